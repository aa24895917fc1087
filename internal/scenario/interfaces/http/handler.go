// Package http 情景编辑 HTTP 接口
package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/cashflow/internal/scenario/application"
	"github.com/wyfcoding/cashflow/internal/scenario/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
	"github.com/wyfcoding/cashflow/pkg/response"
)

type Handler struct {
	service *application.ScenarioService
}

func NewHandler(service *application.ScenarioService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/organizations/:id/scenarios", h.ListScenarios)
	r.POST("/organizations/:id/scenarios", h.CreateScenario)

	scenarios := r.Group("/scenarios")
	{
		scenarios.GET("/:id/shifts", h.ListShifts)
		scenarios.PUT("/:id/shifts", h.UpsertShift)
		scenarios.DELETE("/:id/shifts/:entityType/:entityId", h.DeleteShift)
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.Error(c, errs.Validationf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

type CreateScenarioReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateScenario(c *gin.Context) {
	orgID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateScenarioReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errs.Validationf("%v", err))
		return
	}

	scenario, err := h.service.CreateScenario(c.Request.Context(), orgID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, scenario)
}

func (h *Handler) ListScenarios(c *gin.Context) {
	orgID, ok := parseID(c, "id")
	if !ok {
		return
	}

	scenarios, err := h.service.ListScenarios(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, scenarios)
}

type UpsertShiftReq struct {
	EntityType  string `json:"entity_type" binding:"required"`
	EntityID    uint   `json:"entity_id" binding:"required"`
	DaysShift   int    `json:"days_shift"`
	AmountShift string `json:"amount_shift"`
}

func (h *Handler) UpsertShift(c *gin.Context) {
	scenarioID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpsertShiftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errs.Validationf("%v", err))
		return
	}

	amountShift := decimal.Zero
	if req.AmountShift != "" {
		var err error
		amountShift, err = decimal.NewFromString(req.AmountShift)
		if err != nil {
			response.Error(c, errs.Validationf("invalid amount_shift: %s", req.AmountShift))
			return
		}
	}

	shift, err := h.service.UpsertShift(c.Request.Context(), application.UpsertShiftCmd{
		ScenarioID:  scenarioID,
		EntityType:  domain.EntityType(req.EntityType),
		EntityID:    req.EntityID,
		DaysShift:   req.DaysShift,
		AmountShift: amountShift,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, shift)
}

func (h *Handler) DeleteShift(c *gin.Context) {
	scenarioID, ok := parseID(c, "id")
	if !ok {
		return
	}
	entityID, ok := parseID(c, "entityId")
	if !ok {
		return
	}

	err := h.service.DeleteShift(c.Request.Context(), scenarioID, domain.EntityType(c.Param("entityType")), entityID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": entityID})
}

func (h *Handler) ListShifts(c *gin.Context) {
	scenarioID, ok := parseID(c, "id")
	if !ok {
		return
	}

	shifts, err := h.service.ListShifts(c.Request.Context(), scenarioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, shifts)
}
