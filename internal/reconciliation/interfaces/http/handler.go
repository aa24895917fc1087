// Package http 对账接口：触发对账、查询匹配、导出方差报告与争议流转
package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ledgerdomain "github.com/wyfcoding/cashflow/internal/ledger/domain"

	"github.com/wyfcoding/cashflow/internal/reconciliation/application"
	"github.com/wyfcoding/cashflow/pkg/errs"
	"github.com/wyfcoding/cashflow/pkg/response"
)

type Handler struct {
	service *application.ReconciliationService
}

func NewHandler(service *application.ReconciliationService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/organizations/:id/reconcile", h.Reconcile)
	r.GET("/organizations/:id/matches", h.Matches)
	r.GET("/organizations/:id/matches/csv", h.MatchesCSV)
	r.POST("/matches/:id/dispute", h.Dispute)
	r.POST("/matches/:id/resolve", h.Resolve)
}

func (h *Handler) Reconcile(c *gin.Context) {
	orgID, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Reconcile(c.Request.Context(), application.ReconcileCmd{
		OrganizationID: orgID,
		Basis:          ledgerdomain.Basis(c.Query("basis")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func (h *Handler) Matches(c *gin.Context) {
	orgID, projectID, err := parseMatchFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	matches, err := h.service.Matches(c.Request.Context(), orgID, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, matches)
}

func (h *Handler) MatchesCSV(c *gin.Context) {
	orgID, projectID, err := parseMatchFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	matches, err := h.service.Matches(c.Request.Context(), orgID, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := application.WriteVarianceCSV(matches)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=variance-%d.csv", orgID))
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *Handler) Dispute(c *gin.Context) {
	matchID, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	match, err := h.service.Dispute(c.Request.Context(), matchID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, match)
}

func (h *Handler) Resolve(c *gin.Context) {
	matchID, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	match, err := h.service.Resolve(c.Request.Context(), matchID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, match)
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, errs.Validationf("invalid %s", name)
	}
	return uint(id), nil
}

func parseMatchFilter(c *gin.Context) (orgID, projectID uint, err error) {
	orgID, err = parseID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	if raw := c.Query("project_id"); raw != "" {
		id, perr := strconv.ParseUint(raw, 10, 32)
		if perr != nil {
			return 0, 0, errs.Validationf("invalid project_id")
		}
		projectID = uint(id)
	}
	return orgID, projectID, nil
}
