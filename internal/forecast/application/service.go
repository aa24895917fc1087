// Package application 预测引擎编排：装载快照 → 应用情景偏移 → 日历聚合 → 回填实际流水。
// 计算本身无副作用，相同输入必然得到相同输出。
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ledgerdomain "github.com/wyfcoding/cashflow/internal/ledger/domain"
	orgdomain "github.com/wyfcoding/cashflow/internal/organization/domain"
	scenariodomain "github.com/wyfcoding/cashflow/internal/scenario/domain"

	"github.com/wyfcoding/cashflow/internal/forecast/domain"
	"github.com/wyfcoding/cashflow/pkg/cache"
	"github.com/wyfcoding/cashflow/pkg/errs"
	"github.com/wyfcoding/cashflow/pkg/metrics"
)

// ScenarioResolver 由情景服务实现：装配指定情景的偏移解析器
type ScenarioResolver interface {
	ResolverFor(ctx context.Context, orgID, scenarioID uint) (*scenariodomain.Resolver, error)
}

type ForecastService struct {
	orgRepo       orgdomain.OrganizationRepository
	projectRepo   orgdomain.ProjectRepository
	milestoneRepo orgdomain.MilestoneRepository
	claimRepo     orgdomain.SupplierClaimRepository
	lineRepo      orgdomain.ForecastLineRepository
	txnRepo       ledgerdomain.TransactionRepository
	scenarios     ScenarioResolver
	// 可选的结果缓存，nil 或 TTL 为 0 时关闭
	cache    *cache.Cache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	clock    func() time.Time
}

func NewForecastService(
	orgRepo orgdomain.OrganizationRepository,
	projectRepo orgdomain.ProjectRepository,
	milestoneRepo orgdomain.MilestoneRepository,
	claimRepo orgdomain.SupplierClaimRepository,
	lineRepo orgdomain.ForecastLineRepository,
	txnRepo ledgerdomain.TransactionRepository,
	scenarios ScenarioResolver,
	logger *slog.Logger,
) *ForecastService {
	return &ForecastService{
		orgRepo:       orgRepo,
		projectRepo:   projectRepo,
		milestoneRepo: milestoneRepo,
		claimRepo:     claimRepo,
		lineRepo:      lineRepo,
		txnRepo:       txnRepo,
		scenarios:     scenarios,
		logger:        logger.With("module", "forecast_service"),
		clock:         time.Now,
	}
}

// WithCache 启用预测结果缓存
func (s *ForecastService) WithCache(c *cache.Cache, ttl time.Duration) *ForecastService {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// WithMetrics 启用指标上报
func (s *ForecastService) WithMetrics(m *metrics.Metrics) *ForecastService {
	s.metrics = m
	return s
}

// WithClock 注入时钟，测试用
func (s *ForecastService) WithClock(clock func() time.Time) *ForecastService {
	s.clock = clock
	return s
}

// Generate 生成预测。scenarioID 为 0 取基准情景；
// 历史分桶按请求的记账口径回填实际收支。
func (s *ForecastService) Generate(ctx context.Context, q GenerateQuery) (*ForecastResult, error) {
	start := time.Now()

	if err := q.normalize(); err != nil {
		return nil, err
	}
	now := q.Now
	if now.IsZero() {
		now = s.clock()
	}

	if key := s.cacheKey(q, now); key != "" {
		var cached ForecastResult
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	org, err := s.orgRepo.GetByID(ctx, q.OrganizationID)
	if err != nil {
		return nil, err
	}

	resolver, err := s.scenarios.ResolverFor(ctx, q.OrganizationID, q.ScenarioID)
	if err != nil {
		return nil, err
	}

	events, err := s.loadEvents(ctx, q)
	if err != nil {
		return nil, err
	}

	adjusted := make([]domain.CashEvent, 0, len(events))
	for _, ev := range events {
		a, err := resolver.Apply(ev)
		if err != nil {
			return nil, err
		}
		adjusted = append(adjusted, a)
	}

	periods, err := domain.Aggregate(adjusted, q.Start, q.End, q.Granularity, org.StartingBalance, now)
	if err != nil {
		return nil, err
	}

	if hasHistorical(periods) {
		flows, err := s.loadActuals(ctx, q)
		if err != nil {
			return nil, err
		}
		domain.AttachActuals(periods, flows)
	}

	result := &ForecastResult{
		Periods: periods,
		Summary: domain.Summarize(periods),
	}

	if s.metrics != nil {
		s.metrics.ForecastsTotal.Inc()
		s.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
		s.metrics.ForecastEvents.Observe(float64(len(adjusted)))
	}

	if key := s.cacheKey(q, now); key != "" {
		if err := s.cache.SetJSON(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to cache forecast", "error", err)
		}
	}

	return result, nil
}

// Calculate 基准情景的默认视图：期初余额取组织配置，月粒度，权责口径
func (s *ForecastService) Calculate(ctx context.Context, orgID uint, start, end, now time.Time) (*ForecastResult, error) {
	return s.Generate(ctx, GenerateQuery{
		OrganizationID: orgID,
		Start:          start,
		End:            end,
		Granularity:    domain.GranularityMonth,
		Basis:          domain.BasisAccrual,
		Now:            now,
	})
}

func (s *ForecastService) loadEvents(ctx context.Context, q GenerateQuery) ([]domain.CashEvent, error) {
	var events []domain.CashEvent

	var milestones []orgdomain.Milestone
	var claims []orgdomain.SupplierClaim
	var err error
	if q.ProjectID != 0 {
		project, err := s.projectRepo.GetByID(ctx, q.ProjectID)
		if err != nil {
			return nil, err
		}
		if project.OrganizationID != q.OrganizationID {
			return nil, errs.Validationf("project %d does not belong to organization %d", q.ProjectID, q.OrganizationID)
		}
		milestones, err = s.milestoneRepo.ListByProject(ctx, q.ProjectID)
		if err != nil {
			return nil, err
		}
		claims, err = s.claimRepo.ListByProject(ctx, q.ProjectID)
		if err != nil {
			return nil, err
		}
	} else {
		milestones, err = s.milestoneRepo.ListByOrganization(ctx, q.OrganizationID)
		if err != nil {
			return nil, err
		}
		claims, err = s.claimRepo.ListByOrganization(ctx, q.OrganizationID)
		if err != nil {
			return nil, err
		}
	}

	for _, m := range milestones {
		events = append(events, domain.CashEvent{
			Kind:                 domain.KindMilestone,
			EntityID:             m.ID,
			OrganizationID:       m.OrganizationID,
			ProjectID:            m.ProjectID,
			Direction:            domain.DirectionIncome,
			Amount:               m.Amount,
			Date:                 m.ExpectedDate,
			Status:               string(m.Status),
			RetentionAmount:      m.Retention(),
			RetentionReleaseDays: m.RetentionReleaseDays,
		})
	}

	for _, c := range claims {
		events = append(events, domain.CashEvent{
			Kind:           domain.KindSupplierClaim,
			EntityID:       c.ID,
			OrganizationID: c.OrganizationID,
			ProjectID:      c.ProjectID,
			Direction:      domain.DirectionOutgo,
			Amount:         c.Amount,
			Date:           c.ExpectedDate,
			Status:         string(c.Status),
		})
	}

	// 开销行挂在组织上，项目视图不包含
	if q.ProjectID == 0 {
		lines, err := s.lineRepo.ListByOrganization(ctx, q.OrganizationID)
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			events = append(events, domain.CashEvent{
				Kind:           domain.KindOverhead,
				EntityID:       l.ID,
				OrganizationID: l.OrganizationID,
				Direction:      domain.Direction(l.Direction),
				Amount:         l.Amount,
				Date:           l.StartDate,
				Frequency:      domain.Frequency(l.Frequency),
				Rate:           l.CompoundRate(),
			})
		}
	}

	return events, nil
}

func (s *ForecastService) loadActuals(ctx context.Context, q GenerateQuery) ([]domain.ActualFlow, error) {
	txns, err := s.txnRepo.List(ctx, ledgerdomain.Query{
		OrganizationID: q.OrganizationID,
		ProjectID:      q.ProjectID,
		Basis:          ledgerdomain.Basis(q.Basis),
		From:           domain.DateOnly(q.Start),
		To:             domain.DateOnly(q.End),
	})
	if err != nil {
		return nil, err
	}

	flows := make([]domain.ActualFlow, 0, len(txns))
	for _, t := range txns {
		flows = append(flows, domain.ActualFlow{
			Direction: domain.Direction(t.Direction),
			Amount:    t.Amount,
			Date:      t.OccurredAt,
		})
	}
	return flows, nil
}

func (s *ForecastService) cacheKey(q GenerateQuery, now time.Time) string {
	if s.cache == nil || s.cacheTTL <= 0 {
		return ""
	}
	return fmt.Sprintf("forecast:%d:%d:%d:%s:%s:%s:%s:%s",
		q.OrganizationID, q.ScenarioID, q.ProjectID,
		q.Start.Format("2006-01-02"), q.End.Format("2006-01-02"),
		q.Granularity, q.Basis, domain.DateOnly(now).Format("2006-01-02"),
	)
}

func hasHistorical(periods []domain.Period) bool {
	for _, p := range periods {
		if p.IsHistorical {
			return true
		}
	}
	return false
}

func (q *GenerateQuery) normalize() error {
	if q.OrganizationID == 0 {
		return errs.Validationf("organization id is required")
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return errs.Validationf("start and end dates are required")
	}
	if q.End.Before(q.Start) {
		return errs.Validationf("invalid range: end before start")
	}
	switch q.Granularity {
	case "":
		q.Granularity = domain.GranularityMonth
	case domain.GranularityMonth, domain.GranularityWeek:
	default:
		return errs.Validationf("invalid granularity: %s", q.Granularity)
	}
	switch q.Basis {
	case "":
		q.Basis = domain.BasisAccrual
	case domain.BasisCash, domain.BasisAccrual:
	default:
		return errs.Validationf("invalid basis: %s", q.Basis)
	}
	return nil
}
