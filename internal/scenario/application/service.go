// Package application 情景应用服务：基准情景生命周期、偏移编辑与解析器装配
package application

import (
	"context"
	"log/slog"

	orgdomain "github.com/wyfcoding/cashflow/internal/organization/domain"
	"github.com/wyfcoding/cashflow/internal/scenario/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

const baseScenarioName = "Base"

type ScenarioService struct {
	scenarioRepo  domain.ScenarioRepository
	shiftRepo     domain.ShiftRepository
	milestoneRepo orgdomain.MilestoneRepository
	claimRepo     orgdomain.SupplierClaimRepository
	logger        *slog.Logger
}

func NewScenarioService(
	scenarioRepo domain.ScenarioRepository,
	shiftRepo domain.ShiftRepository,
	milestoneRepo orgdomain.MilestoneRepository,
	claimRepo orgdomain.SupplierClaimRepository,
	logger *slog.Logger,
) *ScenarioService {
	return &ScenarioService{
		scenarioRepo:  scenarioRepo,
		shiftRepo:     shiftRepo,
		milestoneRepo: milestoneRepo,
		claimRepo:     claimRepo,
		logger:        logger.With("module", "scenario_service"),
	}
}

// EnsureBase 保证组织存在唯一的基准情景，幂等
func (s *ScenarioService) EnsureBase(ctx context.Context, orgID uint) error {
	_, err := s.scenarioRepo.GetBase(ctx, orgID)
	if err == nil {
		return nil
	}
	if !errs.IsNotFound(err) {
		return err
	}

	base := &domain.Scenario{
		OrganizationID: orgID,
		Name:           baseScenarioName,
		IsBase:         true,
	}
	return s.scenarioRepo.Save(ctx, base)
}

// CreateScenario 创建命名情景（非基准）
func (s *ScenarioService) CreateScenario(ctx context.Context, orgID uint, name string) (*domain.Scenario, error) {
	if name == "" {
		return nil, errs.Validationf("scenario name is required")
	}
	if name == baseScenarioName {
		return nil, errs.Validationf("scenario name %q is reserved", baseScenarioName)
	}

	scenario := &domain.Scenario{
		OrganizationID: orgID,
		Name:           name,
		IsBase:         false,
	}
	if err := s.scenarioRepo.Save(ctx, scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

// ListScenarios 列出组织的全部情景
func (s *ScenarioService) ListScenarios(ctx context.Context, orgID uint) ([]domain.Scenario, error) {
	return s.scenarioRepo.ListByOrganization(ctx, orgID)
}

// UpsertShift 写入或更新偏移。基准情景不可挂偏移；
// 被引用实体必须属于情景所属组织。
func (s *ScenarioService) UpsertShift(ctx context.Context, cmd UpsertShiftCmd) (*domain.Shift, error) {
	scenario, err := s.scenarioRepo.GetByID(ctx, cmd.ScenarioID)
	if err != nil {
		return nil, err
	}
	if scenario.IsBase {
		return nil, errs.Validationf("shifts cannot be applied to the base scenario")
	}

	switch cmd.EntityType {
	case domain.EntityMilestone:
		milestone, err := s.milestoneRepo.GetByID(ctx, cmd.EntityID)
		if err != nil {
			return nil, err
		}
		if milestone.OrganizationID != scenario.OrganizationID {
			return nil, errs.Validationf("milestone %d does not belong to organization %d", cmd.EntityID, scenario.OrganizationID)
		}
	case domain.EntitySupplierClaim:
		claim, err := s.claimRepo.GetByID(ctx, cmd.EntityID)
		if err != nil {
			return nil, err
		}
		if claim.OrganizationID != scenario.OrganizationID {
			return nil, errs.Validationf("supplier claim %d does not belong to organization %d", cmd.EntityID, scenario.OrganizationID)
		}
	case domain.EntityMaterialOrder:
		// 采购订单尚未纳入计划事件模型，无法校验归属
		return nil, errs.Validationf("material order shifts are not supported")
	default:
		return nil, errs.Validationf("invalid entity type: %s", cmd.EntityType)
	}

	shift := &domain.Shift{
		ScenarioID:  cmd.ScenarioID,
		EntityType:  cmd.EntityType,
		EntityID:    cmd.EntityID,
		DaysShift:   cmd.DaysShift,
		AmountShift: cmd.AmountShift,
	}
	if err := s.shiftRepo.Upsert(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

// DeleteShift 删除偏移
func (s *ScenarioService) DeleteShift(ctx context.Context, scenarioID uint, entityType domain.EntityType, entityID uint) error {
	if _, err := s.scenarioRepo.GetByID(ctx, scenarioID); err != nil {
		return err
	}
	return s.shiftRepo.Delete(ctx, scenarioID, entityType, entityID)
}

// ListShifts 列出情景偏移
func (s *ScenarioService) ListShifts(ctx context.Context, scenarioID uint) ([]domain.Shift, error) {
	if _, err := s.scenarioRepo.GetByID(ctx, scenarioID); err != nil {
		return nil, err
	}
	return s.shiftRepo.ListByScenario(ctx, scenarioID)
}

// ResolverFor 装配指定情景的解析器。scenarioID 为 0 时取组织基准情景；
// 情景属于其他组织时返回校验错误。
func (s *ScenarioService) ResolverFor(ctx context.Context, orgID, scenarioID uint) (*domain.Resolver, error) {
	var scenario *domain.Scenario
	var err error

	if scenarioID == 0 {
		scenario, err = s.scenarioRepo.GetBase(ctx, orgID)
	} else {
		scenario, err = s.scenarioRepo.GetByID(ctx, scenarioID)
	}
	if err != nil {
		return nil, err
	}
	if scenario.OrganizationID != orgID {
		return nil, errs.Validationf("scenario %d does not belong to organization %d", scenario.ID, orgID)
	}

	var shifts []domain.Shift
	if !scenario.IsBase {
		shifts, err = s.shiftRepo.ListByScenario(ctx, scenario.ID)
		if err != nil {
			return nil, err
		}
	}

	return domain.NewResolver(scenario, shifts), nil
}
