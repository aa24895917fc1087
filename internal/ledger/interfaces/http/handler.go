// Package http 账本查询接口（同步测试与排障用，流水写入走消费者）
package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/cashflow/internal/ledger/application"
	"github.com/wyfcoding/cashflow/internal/ledger/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
	"github.com/wyfcoding/cashflow/pkg/response"
)

type Handler struct {
	service *application.LedgerService
}

func NewHandler(service *application.LedgerService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/organizations/:id/transactions", h.ListTransactions)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, errs.Validationf("invalid organization id"))
		return
	}

	q := domain.Query{OrganizationID: uint(orgID)}

	if raw := c.Query("project_id"); raw != "" {
		projectID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.Error(c, errs.Validationf("invalid project_id"))
			return
		}
		q.ProjectID = uint(projectID)
	}
	if raw := c.Query("basis"); raw != "" {
		q.Basis = domain.Basis(raw)
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, errs.Validationf("invalid from date"))
			return
		}
		q.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, errs.Validationf("invalid to date"))
			return
		}
		q.To = to
	}

	txns, err := h.service.ListTransactions(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txns)
}
