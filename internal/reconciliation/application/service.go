// Package application 对账应用服务：装载候选、运行匹配、落库并发布完成事件
package application

import (
	"context"
	"log/slog"
	"time"

	ledgerdomain "github.com/wyfcoding/cashflow/internal/ledger/domain"
	orgdomain "github.com/wyfcoding/cashflow/internal/organization/domain"

	"github.com/wyfcoding/cashflow/internal/reconciliation/domain"
	"github.com/wyfcoding/cashflow/internal/reconciliation/infrastructure/messaging"
	"github.com/wyfcoding/cashflow/pkg/errs"
	"github.com/wyfcoding/cashflow/pkg/metrics"
)

// EventPublisher 对账完成通知，允许为空实现
type EventPublisher interface {
	Publish(ctx context.Context, event messaging.CompletedEvent)
}

type ReconciliationService struct {
	matchRepo     domain.MatchRepository
	orgRepo       orgdomain.OrganizationRepository
	projectRepo   orgdomain.ProjectRepository
	milestoneRepo orgdomain.MilestoneRepository
	claimRepo     orgdomain.SupplierClaimRepository
	txnRepo       ledgerdomain.TransactionRepository
	cfg           domain.Config
	publisher     EventPublisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func NewReconciliationService(
	matchRepo domain.MatchRepository,
	orgRepo orgdomain.OrganizationRepository,
	projectRepo orgdomain.ProjectRepository,
	milestoneRepo orgdomain.MilestoneRepository,
	claimRepo orgdomain.SupplierClaimRepository,
	txnRepo ledgerdomain.TransactionRepository,
	cfg domain.Config,
	logger *slog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		matchRepo:     matchRepo,
		orgRepo:       orgRepo,
		projectRepo:   projectRepo,
		milestoneRepo: milestoneRepo,
		claimRepo:     claimRepo,
		txnRepo:       txnRepo,
		cfg:           cfg,
		logger:        logger.With("module", "reconciliation_service"),
	}
}

// WithPublisher 启用完成事件发布
func (s *ReconciliationService) WithPublisher(p EventPublisher) *ReconciliationService {
	s.publisher = p
	return s
}

// WithMetrics 启用指标上报
func (s *ReconciliationService) WithMetrics(m *metrics.Metrics) *ReconciliationService {
	s.metrics = m
	return s
}

// Reconcile 跑一轮对账并整体替换组织的匹配结果。
// 候选取未收款的里程碑和未付款的采购索赔，按同方向的实际流水配对。
func (s *ReconciliationService) Reconcile(ctx context.Context, cmd ReconcileCmd) (*ReconcileResult, error) {
	start := time.Now()

	if cmd.OrganizationID == 0 {
		return nil, errs.Validationf("organization id is required")
	}
	basis := cmd.Basis
	switch basis {
	case "":
		basis = ledgerdomain.BasisAccrual
	case ledgerdomain.BasisCash, ledgerdomain.BasisAccrual:
	default:
		return nil, errs.Validationf("invalid basis: %s", basis)
	}

	if _, err := s.orgRepo.GetByID(ctx, cmd.OrganizationID); err != nil {
		return nil, err
	}

	forecasts, err := s.loadForecastItems(ctx, cmd.OrganizationID)
	if err != nil {
		return nil, err
	}
	actuals, err := s.loadActualItems(ctx, cmd.OrganizationID, basis)
	if err != nil {
		return nil, err
	}

	result := domain.Match(cmd.OrganizationID, forecasts, actuals, s.cfg)

	if err := s.matchRepo.ReplaceForOrganization(ctx, cmd.OrganizationID, result.Matches); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reconciliation completed",
		"org_id", cmd.OrganizationID,
		"matched", len(result.Matches),
		"unmatched_forecast", result.UnmatchedForecast,
		"unmatched_actual", result.UnmatchedActual,
	)

	if s.metrics != nil {
		s.metrics.ReconciliationsTotal.Inc()
		s.metrics.ReconciliationDuration.Observe(time.Since(start).Seconds())
		s.metrics.MatchesRecorded.Add(float64(len(result.Matches)))
		s.metrics.UnmatchedForecast.Set(float64(result.UnmatchedForecast))
		s.metrics.UnmatchedActual.Set(float64(result.UnmatchedActual))
	}

	if s.publisher != nil {
		s.publisher.Publish(ctx, messaging.CompletedEvent{
			OrganizationID:    cmd.OrganizationID,
			MatchedCount:      len(result.Matches),
			UnmatchedForecast: result.UnmatchedForecast,
			UnmatchedActual:   result.UnmatchedActual,
		})
	}

	return &ReconcileResult{
		MatchedCount:           len(result.Matches),
		UnmatchedForecastCount: result.UnmatchedForecast,
		UnmatchedActualCount:   result.UnmatchedActual,
	}, nil
}

// Matches 查询组织的匹配结果，projectID 为 0 时不过滤
func (s *ReconciliationService) Matches(ctx context.Context, orgID, projectID uint) ([]domain.VarianceMatch, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	if projectID != 0 {
		project, err := s.projectRepo.GetByID(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if project.OrganizationID != orgID {
			return nil, errs.Validationf("project %d does not belong to organization %d", projectID, orgID)
		}
	}
	return s.matchRepo.ListByOrganization(ctx, orgID, projectID)
}

// Dispute 把匹配置为有争议
func (s *ReconciliationService) Dispute(ctx context.Context, matchID uint) (*domain.VarianceMatch, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := match.Dispute(); err != nil {
		return nil, err
	}
	if err := s.matchRepo.Save(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// Resolve 关闭争议
func (s *ReconciliationService) Resolve(ctx context.Context, matchID uint) (*domain.VarianceMatch, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := match.Resolve(); err != nil {
		return nil, err
	}
	if err := s.matchRepo.Save(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *ReconciliationService) loadForecastItems(ctx context.Context, orgID uint) ([]domain.ForecastItem, error) {
	var items []domain.ForecastItem

	milestones, err := s.milestoneRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, m := range milestones {
		if m.Status == orgdomain.MilestonePaid {
			continue
		}
		items = append(items, domain.ForecastItem{
			EventType: "milestone",
			EventID:   m.ID,
			ProjectID: m.ProjectID,
			Direction: string(ledgerdomain.DirectionIncome),
			Amount:    m.Amount,
			Date:      m.ExpectedDate,
		})
	}

	claims, err := s.claimRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, c := range claims {
		if c.Status == orgdomain.ClaimPaid {
			continue
		}
		items = append(items, domain.ForecastItem{
			EventType: "supplier_claim",
			EventID:   c.ID,
			ProjectID: c.ProjectID,
			Direction: string(ledgerdomain.DirectionOutgo),
			Amount:    c.Amount,
			Date:      c.ExpectedDate,
		})
	}

	return items, nil
}

func (s *ReconciliationService) loadActualItems(ctx context.Context, orgID uint, basis ledgerdomain.Basis) ([]domain.ActualItem, error) {
	txns, err := s.txnRepo.List(ctx, ledgerdomain.Query{
		OrganizationID: orgID,
		Basis:          basis,
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.ActualItem, 0, len(txns))
	for _, t := range txns {
		items = append(items, domain.ActualItem{
			ID:           t.ID,
			ProjectID:    t.ProjectID,
			Direction:    string(t.Direction),
			Amount:       t.Amount,
			Date:         t.OccurredAt,
			ExternalID:   t.ExternalID,
			ExternalType: t.ExternalType,
		})
	}
	return items, nil
}
