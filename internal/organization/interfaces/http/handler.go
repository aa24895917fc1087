// Package http 主数据 HTTP 接口
package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/cashflow/internal/organization/application"
	"github.com/wyfcoding/cashflow/internal/organization/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
	"github.com/wyfcoding/cashflow/pkg/response"
)

type Handler struct {
	service *application.OrganizationService
}

func NewHandler(service *application.OrganizationService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orgs := r.Group("/organizations")
	{
		orgs.POST("", h.CreateOrganization)
		orgs.GET("/:id", h.GetOrganization)
		orgs.GET("/:id/projects", h.ListProjects)
		orgs.POST("/:id/projects", h.CreateProject)
		orgs.POST("/:id/forecast-lines", h.CreateForecastLine)
	}
	r.POST("/projects/:id/milestones", h.CreateMilestone)
	r.POST("/projects/:id/claims", h.CreateSupplierClaim)
	r.DELETE("/forecast-lines/:id", h.DeleteForecastLine)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.Error(c, errs.Validationf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func parseAmount(c *gin.Context, field, raw string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		response.Error(c, errs.Validationf("invalid %s: %s", field, raw))
		return decimal.Zero, false
	}
	return d, true
}

func parseDate(c *gin.Context, field, raw string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.Error(c, errs.Validationf("invalid %s: %s", field, raw))
		return time.Time{}, false
	}
	return t, true
}

type CreateOrganizationReq struct {
	Name            string `json:"name" binding:"required"`
	StartingBalance string `json:"starting_balance"`
}

func (h *Handler) CreateOrganization(c *gin.Context) {
	var req CreateOrganizationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errs.Validationf("%v", err))
		return
	}

	balance, ok := parseAmount(c, "starting_balance", req.StartingBalance)
	if !ok {
		return
	}

	org, err := h.service.CreateOrganization(c.Request.Context(), application.CreateOrganizationCmd{
		Name:            req.Name,
		StartingBalance: balance,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, org)
}

func (h *Handler) GetOrganization(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	org, err := h.service.GetOrganization(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, org)
}

type CreateProjectReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	orgID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errs.Validationf("%v", err))
		return
	}

	project, err := h.service.CreateProject(c.Request.Context(), application.CreateProjectCmd{
		OrganizationID: orgID,
		Name:           req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

func (h *Handler) ListProjects(c *gin.Context) {
	orgID, ok := parseID(c, "id")
	if !ok {
		return
	}

	projects, err := h.service.ListProjects(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, projects)
}

type CreateMilestoneReq struct {
	OrganizationID       uint   `json:"organization_id" binding:"required"`
	Name                 string `json:"name" binding:"required"`
	Amount               string `json:"amount" binding:"required"`
	Percentage           string `json:"percentage"`
	ExpectedDate         string `json:"expected_date" binding:"required"`
	RetentionAmount      string `json:"retention_amount"`
	RetentionPercentage  string `json:"retention_percentage"`
	RetentionReleaseDays int    `json:"retention_release_days"`
}

func (h *Handler) CreateMilestone(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateMilestoneReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errs.Validationf("%v", err))
		return
	}

	amount, ok := parseAmount(c, "amount", req.Amount)
	if !ok {
		return
	}
	percentage, ok := parseAmount(c, "percentage", req.Percentage)
	if !ok {
		return
	}
	retentionAmount, ok := parseAmount(c, "retention_amount", req.RetentionAmount)
	if !ok {
		return
	}
	retentionPct, ok := parseAmount(c, "retention_percentage", req.RetentionPercentage)
	if !ok {
		return
	}
	expectedDate, ok := parseDate(c, "expected_date", req.ExpectedDate)
	if !ok {
		return
	}

	milestone, err := h.service.CreateMilestone(c.Request.Context(), application.CreateMilestoneCmd{
		OrganizationID:       req.OrganizationID,
		ProjectID:            projectID,
		Name:                 req.Name,
		Amount:               amount,
		Percentage:           percentage,
		ExpectedDate:         expectedDate,
		RetentionAmount:      retentionAmount,
		RetentionPercentage:  retentionPct,
		RetentionReleaseDays: req.RetentionReleaseDays,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, milestone)
}

type CreateClaimReq struct {
	OrganizationID uint   `json:"organization_id" binding:"required"`
	Supplier       string `json:"supplier" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	ExpectedDate   string `json:"expected_date" binding:"required"`
}

func (h *Handler) CreateSupplierClaim(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateClaimReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errs.Validationf("%v", err))
		return
	}

	amount, ok := parseAmount(c, "amount", req.Amount)
	if !ok {
		return
	}
	expectedDate, ok := parseDate(c, "expected_date", req.ExpectedDate)
	if !ok {
		return
	}

	claim, err := h.service.CreateSupplierClaim(c.Request.Context(), application.CreateClaimCmd{
		OrganizationID: req.OrganizationID,
		ProjectID:      projectID,
		Supplier:       req.Supplier,
		Amount:         amount,
		ExpectedDate:   expectedDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, claim)
}

type CreateLineReq struct {
	Name           string `json:"name" binding:"required"`
	Direction      string `json:"direction" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	Frequency      string `json:"frequency" binding:"required"`
	StartDate      string `json:"start_date" binding:"required"`
	InflationRate  string `json:"inflation_rate"`
	EscalationRate string `json:"escalation_rate"`
}

func (h *Handler) CreateForecastLine(c *gin.Context) {
	orgID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateLineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errs.Validationf("%v", err))
		return
	}

	amount, ok := parseAmount(c, "amount", req.Amount)
	if !ok {
		return
	}
	inflation, ok := parseAmount(c, "inflation_rate", req.InflationRate)
	if !ok {
		return
	}
	escalation, ok := parseAmount(c, "escalation_rate", req.EscalationRate)
	if !ok {
		return
	}
	startDate, ok := parseDate(c, "start_date", req.StartDate)
	if !ok {
		return
	}

	line, err := h.service.CreateForecastLine(c.Request.Context(), application.CreateLineCmd{
		OrganizationID: orgID,
		Name:           req.Name,
		Direction:      domain.Direction(req.Direction),
		Amount:         amount,
		Frequency:      domain.Frequency(req.Frequency),
		StartDate:      startDate,
		InflationRate:  inflation,
		EscalationRate: escalation,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, line)
}

func (h *Handler) DeleteForecastLine(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteForecastLine(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": id})
}
