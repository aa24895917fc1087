// Package http 预测查询接口
package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/cashflow/internal/forecast/application"
	"github.com/wyfcoding/cashflow/internal/forecast/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
	"github.com/wyfcoding/cashflow/pkg/response"
)

type Handler struct {
	service *application.ForecastService
}

func NewHandler(service *application.ForecastService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/organizations/:id/forecast", h.Forecast)
	r.GET("/organizations/:id/forecast/csv", h.ForecastCSV)
}

func (h *Handler) Forecast(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func (h *Handler) ForecastCSV(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := application.WriteCSV(result.Periods)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("forecast-%d-%s.csv", q.OrganizationID, q.Start.Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *Handler) parseQuery(c *gin.Context) (application.GenerateQuery, error) {
	var q application.GenerateQuery

	orgID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return q, errs.Validationf("invalid organization id")
	}
	q.OrganizationID = uint(orgID)

	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		return q, errs.Validationf("invalid start date, expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		return q, errs.Validationf("invalid end date, expected YYYY-MM-DD")
	}
	q.Start, q.End = start, end

	if raw := c.Query("scenario_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return q, errs.Validationf("invalid scenario_id")
		}
		q.ScenarioID = uint(id)
	}
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return q, errs.Validationf("invalid project_id")
		}
		q.ProjectID = uint(id)
	}
	q.Granularity = domain.Granularity(c.Query("granularity"))
	q.Basis = domain.Basis(c.Query("basis"))
	return q, nil
}
