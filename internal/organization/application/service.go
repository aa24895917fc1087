// Package application 主数据应用服务：校验在引擎之前完成，引擎只读快照
package application

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/cashflow/internal/organization/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

// BaseScenarioCreator 由情景服务实现：每个组织创建时生成唯一的基准情景
type BaseScenarioCreator interface {
	EnsureBase(ctx context.Context, orgID uint) error
}

type OrganizationService struct {
	orgRepo       domain.OrganizationRepository
	projectRepo   domain.ProjectRepository
	milestoneRepo domain.MilestoneRepository
	claimRepo     domain.SupplierClaimRepository
	lineRepo      domain.ForecastLineRepository
	scenarios     BaseScenarioCreator
	logger        *slog.Logger
}

func NewOrganizationService(
	orgRepo domain.OrganizationRepository,
	projectRepo domain.ProjectRepository,
	milestoneRepo domain.MilestoneRepository,
	claimRepo domain.SupplierClaimRepository,
	lineRepo domain.ForecastLineRepository,
	scenarios BaseScenarioCreator,
	logger *slog.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:       orgRepo,
		projectRepo:   projectRepo,
		milestoneRepo: milestoneRepo,
		claimRepo:     claimRepo,
		lineRepo:      lineRepo,
		scenarios:     scenarios,
		logger:        logger.With("module", "organization_service"),
	}
}

// CreateOrganization 创建组织并保证基准情景存在
func (s *OrganizationService) CreateOrganization(ctx context.Context, cmd CreateOrganizationCmd) (*domain.Organization, error) {
	if cmd.Name == "" {
		return nil, errs.Validationf("organization name is required")
	}
	if cmd.StartingBalance.IsNegative() {
		return nil, errs.Validationf("starting balance must not be negative")
	}

	org := &domain.Organization{
		Name:            cmd.Name,
		StartingBalance: cmd.StartingBalance,
	}
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}

	if err := s.scenarios.EnsureBase(ctx, org.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to create base scenario", "org_id", org.ID, "error", err)
		return nil, err
	}

	return org, nil
}

// GetOrganization 查询组织
func (s *OrganizationService) GetOrganization(ctx context.Context, id uint) (*domain.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}

// CreateProject 创建项目
func (s *OrganizationService) CreateProject(ctx context.Context, cmd CreateProjectCmd) (*domain.Project, error) {
	if cmd.Name == "" {
		return nil, errs.Validationf("project name is required")
	}
	if _, err := s.orgRepo.GetByID(ctx, cmd.OrganizationID); err != nil {
		return nil, err
	}

	project := &domain.Project{
		OrganizationID: cmd.OrganizationID,
		Name:           cmd.Name,
		Status:         "active",
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects 列出组织下的项目
func (s *OrganizationService) ListProjects(ctx context.Context, orgID uint) ([]domain.Project, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	return s.projectRepo.ListByOrganization(ctx, orgID)
}

// CreateMilestone 创建里程碑，项目内比例之和不得超过 100
func (s *OrganizationService) CreateMilestone(ctx context.Context, cmd CreateMilestoneCmd) (*domain.Milestone, error) {
	if cmd.Amount.IsNegative() {
		return nil, errs.Validationf("milestone amount must not be negative")
	}
	if cmd.ExpectedDate.IsZero() {
		return nil, errs.Validationf("milestone expected date is required")
	}

	project, err := s.projectRepo.GetByID(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OrganizationID != cmd.OrganizationID {
		return nil, errs.Validationf("project %d does not belong to organization %d", cmd.ProjectID, cmd.OrganizationID)
	}

	if cmd.Percentage.IsPositive() {
		existing, err := s.milestoneRepo.ListByProject(ctx, cmd.ProjectID)
		if err != nil {
			return nil, err
		}
		total := cmd.Percentage
		for _, m := range existing {
			total = total.Add(m.Percentage)
		}
		if total.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errs.Validationf("milestone percentages for project %d would exceed 100", cmd.ProjectID)
		}
	}

	milestone := &domain.Milestone{
		OrganizationID:       cmd.OrganizationID,
		ProjectID:            cmd.ProjectID,
		Name:                 cmd.Name,
		Amount:               cmd.Amount,
		Percentage:           cmd.Percentage,
		ExpectedDate:         cmd.ExpectedDate,
		Status:               domain.MilestonePending,
		RetentionAmount:      cmd.RetentionAmount,
		RetentionPercentage:  cmd.RetentionPercentage,
		RetentionReleaseDays: cmd.RetentionReleaseDays,
	}
	if err := s.milestoneRepo.Save(ctx, milestone); err != nil {
		return nil, err
	}
	return milestone, nil
}

// CreateSupplierClaim 创建供应商请款
func (s *OrganizationService) CreateSupplierClaim(ctx context.Context, cmd CreateClaimCmd) (*domain.SupplierClaim, error) {
	if cmd.Amount.IsNegative() {
		return nil, errs.Validationf("claim amount must not be negative")
	}

	project, err := s.projectRepo.GetByID(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OrganizationID != cmd.OrganizationID {
		return nil, errs.Validationf("project %d does not belong to organization %d", cmd.ProjectID, cmd.OrganizationID)
	}

	claim := &domain.SupplierClaim{
		OrganizationID: cmd.OrganizationID,
		ProjectID:      cmd.ProjectID,
		Supplier:       cmd.Supplier,
		Amount:         cmd.Amount,
		ExpectedDate:   cmd.ExpectedDate,
		Status:         domain.ClaimPending,
	}
	if err := s.claimRepo.Save(ctx, claim); err != nil {
		return nil, err
	}
	return claim, nil
}

// CreateForecastLine 创建开销计划行
func (s *OrganizationService) CreateForecastLine(ctx context.Context, cmd CreateLineCmd) (*domain.ForecastLine, error) {
	if cmd.Amount.IsNegative() {
		return nil, errs.Validationf("line amount must not be negative")
	}
	switch cmd.Direction {
	case domain.DirectionIncome, domain.DirectionOutgo:
	default:
		return nil, errs.Validationf("invalid direction: %s", cmd.Direction)
	}
	switch cmd.Frequency {
	case domain.FrequencyOnce, domain.FrequencyWeekly, domain.FrequencyMonthly:
	default:
		return nil, errs.Validationf("invalid frequency: %s", cmd.Frequency)
	}
	if _, err := s.orgRepo.GetByID(ctx, cmd.OrganizationID); err != nil {
		return nil, err
	}

	line := &domain.ForecastLine{
		OrganizationID: cmd.OrganizationID,
		Name:           cmd.Name,
		Direction:      cmd.Direction,
		Amount:         cmd.Amount,
		Frequency:      cmd.Frequency,
		StartDate:      cmd.StartDate,
		InflationRate:  cmd.InflationRate,
		EscalationRate: cmd.EscalationRate,
	}
	if err := s.lineRepo.Save(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// DeleteForecastLine 删除开销计划行
func (s *OrganizationService) DeleteForecastLine(ctx context.Context, id uint) error {
	if _, err := s.lineRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.lineRepo.Delete(ctx, id)
}
