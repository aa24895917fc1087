package application

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/cashflow/internal/forecast/domain"
	ledgerdomain "github.com/wyfcoding/cashflow/internal/ledger/domain"
	orgdomain "github.com/wyfcoding/cashflow/internal/organization/domain"
	scenariodomain "github.com/wyfcoding/cashflow/internal/scenario/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeOrgRepo struct {
	orgs map[uint]*orgdomain.Organization
}

func (f *fakeOrgRepo) Save(ctx context.Context, org *orgdomain.Organization) error { return nil }
func (f *fakeOrgRepo) GetByID(ctx context.Context, id uint) (*orgdomain.Organization, error) {
	org, ok := f.orgs[id]
	if !ok {
		return nil, errs.NotFoundf("organization %d not found", id)
	}
	return org, nil
}

type fakeProjectRepo struct {
	projects map[uint]*orgdomain.Project
}

func (f *fakeProjectRepo) Save(ctx context.Context, p *orgdomain.Project) error { return nil }
func (f *fakeProjectRepo) GetByID(ctx context.Context, id uint) (*orgdomain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, errs.NotFoundf("project %d not found", id)
	}
	return p, nil
}
func (f *fakeProjectRepo) ListByOrganization(ctx context.Context, orgID uint) ([]orgdomain.Project, error) {
	var out []orgdomain.Project
	for _, p := range f.projects {
		if p.OrganizationID == orgID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeMilestoneRepo struct {
	milestones []orgdomain.Milestone
}

func (f *fakeMilestoneRepo) Save(ctx context.Context, m *orgdomain.Milestone) error { return nil }
func (f *fakeMilestoneRepo) GetByID(ctx context.Context, id uint) (*orgdomain.Milestone, error) {
	for i := range f.milestones {
		if f.milestones[i].ID == id {
			return &f.milestones[i], nil
		}
	}
	return nil, errs.NotFoundf("milestone %d not found", id)
}
func (f *fakeMilestoneRepo) ListByOrganization(ctx context.Context, orgID uint) ([]orgdomain.Milestone, error) {
	var out []orgdomain.Milestone
	for _, m := range f.milestones {
		if m.OrganizationID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}
func (f *fakeMilestoneRepo) ListByProject(ctx context.Context, projectID uint) ([]orgdomain.Milestone, error) {
	var out []orgdomain.Milestone
	for _, m := range f.milestones {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeClaimRepo struct {
	claims []orgdomain.SupplierClaim
}

func (f *fakeClaimRepo) Save(ctx context.Context, c *orgdomain.SupplierClaim) error { return nil }
func (f *fakeClaimRepo) GetByID(ctx context.Context, id uint) (*orgdomain.SupplierClaim, error) {
	for i := range f.claims {
		if f.claims[i].ID == id {
			return &f.claims[i], nil
		}
	}
	return nil, errs.NotFoundf("supplier claim %d not found", id)
}
func (f *fakeClaimRepo) ListByOrganization(ctx context.Context, orgID uint) ([]orgdomain.SupplierClaim, error) {
	var out []orgdomain.SupplierClaim
	for _, c := range f.claims {
		if c.OrganizationID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeClaimRepo) ListByProject(ctx context.Context, projectID uint) ([]orgdomain.SupplierClaim, error) {
	var out []orgdomain.SupplierClaim
	for _, c := range f.claims {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeLineRepo struct {
	lines []orgdomain.ForecastLine
}

func (f *fakeLineRepo) Save(ctx context.Context, l *orgdomain.ForecastLine) error { return nil }
func (f *fakeLineRepo) GetByID(ctx context.Context, id uint) (*orgdomain.ForecastLine, error) {
	return nil, errs.NotFoundf("forecast line %d not found", id)
}
func (f *fakeLineRepo) ListByOrganization(ctx context.Context, orgID uint) ([]orgdomain.ForecastLine, error) {
	var out []orgdomain.ForecastLine
	for _, l := range f.lines {
		if l.OrganizationID == orgID {
			out = append(out, l)
		}
	}
	return out, nil
}
func (f *fakeLineRepo) Delete(ctx context.Context, id uint) error { return nil }

type fakeTxnRepo struct {
	txns []ledgerdomain.ActualTransaction
}

func (f *fakeTxnRepo) Upsert(ctx context.Context, txn *ledgerdomain.ActualTransaction) error {
	return nil
}
func (f *fakeTxnRepo) List(ctx context.Context, q ledgerdomain.Query) ([]ledgerdomain.ActualTransaction, error) {
	var out []ledgerdomain.ActualTransaction
	for _, t := range f.txns {
		if t.OrganizationID != q.OrganizationID {
			continue
		}
		if q.Basis != "" && t.Basis != q.Basis {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// fakeScenarios 返回固定的解析器，scenarioID 为 0 视为基准
type fakeScenarios struct {
	orgID  uint
	shifts []scenariodomain.Shift
}

func (f *fakeScenarios) ResolverFor(ctx context.Context, orgID, scenarioID uint) (*scenariodomain.Resolver, error) {
	scenario := &scenariodomain.Scenario{OrganizationID: f.orgID, Name: "test", IsBase: scenarioID == 0}
	return scenariodomain.NewResolver(scenario, f.shifts), nil
}

func newTestService(orgRepo *fakeOrgRepo, milestones *fakeMilestoneRepo, claims *fakeClaimRepo, lines *fakeLineRepo, txns *fakeTxnRepo, scenarios ScenarioResolver) *ForecastService {
	// 项目 10 归组织 1，项目 20 归组织 2
	projects := &fakeProjectRepo{projects: map[uint]*orgdomain.Project{
		10: {OrganizationID: 1, Name: "office tower"},
		20: {OrganizationID: 2, Name: "warehouse"},
	}}
	return NewForecastService(orgRepo, projects, milestones, claims, lines, txns, scenarios, slog.Default()).
		WithClock(func() time.Time { return date(2024, 1, 1) })
}

func milestoneFixture(id, orgID, projectID uint, amount string, expected time.Time) orgdomain.Milestone {
	m := orgdomain.Milestone{
		OrganizationID: orgID,
		ProjectID:      projectID,
		Name:           "milestone",
		Amount:         dec(amount),
		ExpectedDate:   expected,
		Status:         orgdomain.MilestonePending,
	}
	m.Model = gorm.Model{ID: id}
	return m
}

func TestGenerateBaseScenario(t *testing.T) {
	orgRepo := &fakeOrgRepo{orgs: map[uint]*orgdomain.Organization{
		1: {Name: "builder", StartingBalance: dec("25000")},
	}}
	milestones := &fakeMilestoneRepo{milestones: []orgdomain.Milestone{
		// 450000 × 15% 的进度款
		milestoneFixture(5, 1, 10, "67500", date(2024, 2, 15)),
	}}
	claims := &fakeClaimRepo{claims: []orgdomain.SupplierClaim{}}
	lines := &fakeLineRepo{}
	txns := &fakeTxnRepo{}

	svc := newTestService(orgRepo, milestones, claims, lines, txns, &fakeScenarios{orgID: 1})

	result, err := svc.Generate(context.Background(), GenerateQuery{
		OrganizationID: 1,
		Start:          date(2024, 1, 1),
		End:            date(2024, 3, 31),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(result.Periods))
	}

	feb := result.Periods[1]
	if !feb.Income.Equal(dec("67500")) {
		t.Errorf("february income = %s, want 67500", feb.Income)
	}
	if !result.Periods[2].Balance.Equal(dec("92500")) {
		t.Errorf("closing balance = %s, want 92500", result.Periods[2].Balance)
	}
	if !result.Summary.TotalIncome.Equal(dec("67500")) {
		t.Errorf("total income = %s, want 67500", result.Summary.TotalIncome)
	}
}

func TestGenerateScenarioShiftMovesMilestone(t *testing.T) {
	orgRepo := &fakeOrgRepo{orgs: map[uint]*orgdomain.Organization{
		1: {Name: "builder", StartingBalance: decimal.Zero},
	}}
	milestones := &fakeMilestoneRepo{milestones: []orgdomain.Milestone{
		milestoneFixture(5, 1, 10, "67500", date(2024, 2, 15)),
	}}
	scenarios := &fakeScenarios{orgID: 1, shifts: []scenariodomain.Shift{
		{EntityType: scenariodomain.EntityMilestone, EntityID: 5, DaysShift: 30},
	}}

	svc := newTestService(orgRepo, milestones, &fakeClaimRepo{}, &fakeLineRepo{}, &fakeTxnRepo{}, scenarios)

	result, err := svc.Generate(context.Background(), GenerateQuery{
		OrganizationID: 1,
		ScenarioID:     2,
		Start:          date(2024, 1, 1),
		End:            date(2024, 3, 31),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// +30 天后里程碑从二月挪到三月
	if !result.Periods[1].Income.IsZero() {
		t.Errorf("february income = %s, want 0 after shift", result.Periods[1].Income)
	}
	if !result.Periods[2].Income.Equal(dec("67500")) {
		t.Errorf("march income = %s, want 67500 after shift", result.Periods[2].Income)
	}
}

func TestGenerateAttachesActualsToHistoricalPeriods(t *testing.T) {
	orgRepo := &fakeOrgRepo{orgs: map[uint]*orgdomain.Organization{
		1: {Name: "builder", StartingBalance: decimal.Zero},
	}}
	milestones := &fakeMilestoneRepo{milestones: []orgdomain.Milestone{
		milestoneFixture(5, 1, 10, "50000", date(2024, 1, 20)),
	}}
	txns := &fakeTxnRepo{txns: []ledgerdomain.ActualTransaction{
		{
			OrganizationID: 1,
			Direction:      ledgerdomain.DirectionIncome,
			Amount:         dec("48000"),
			OccurredAt:     date(2024, 1, 22),
			Basis:          ledgerdomain.BasisAccrual,
		},
	}}

	svc := newTestService(orgRepo, milestones, &fakeClaimRepo{}, &fakeLineRepo{}, txns, &fakeScenarios{orgID: 1}).
		WithClock(func() time.Time { return date(2024, 3, 10) })

	result, err := svc.Generate(context.Background(), GenerateQuery{
		OrganizationID: 1,
		Start:          date(2024, 1, 1),
		End:            date(2024, 3, 31),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	jan := result.Periods[0]
	if !jan.IsHistorical {
		t.Fatal("january should be historical")
	}
	if jan.ActualIncome == nil || !jan.ActualIncome.Equal(dec("48000")) {
		t.Errorf("january actual income = %v, want 48000", jan.ActualIncome)
	}
	if !result.Summary.TotalActualIncome.Equal(dec("48000")) {
		t.Errorf("total actual income = %s, want 48000", result.Summary.TotalActualIncome)
	}
	if result.Summary.HistoricalPeriods != 2 {
		t.Errorf("historical periods = %d, want 2", result.Summary.HistoricalPeriods)
	}
}

func TestGenerateValidation(t *testing.T) {
	svc := newTestService(
		&fakeOrgRepo{orgs: map[uint]*orgdomain.Organization{}},
		&fakeMilestoneRepo{}, &fakeClaimRepo{}, &fakeLineRepo{}, &fakeTxnRepo{},
		&fakeScenarios{orgID: 1},
	)

	tests := []struct {
		name string
		q    GenerateQuery
	}{
		{"missing org", GenerateQuery{Start: date(2024, 1, 1), End: date(2024, 2, 1)}},
		{"missing dates", GenerateQuery{OrganizationID: 1}},
		{"reversed range", GenerateQuery{OrganizationID: 1, Start: date(2024, 3, 1), End: date(2024, 1, 1)}},
		{"bad granularity", GenerateQuery{OrganizationID: 1, Start: date(2024, 1, 1), End: date(2024, 2, 1), Granularity: "day"}},
		{"bad basis", GenerateQuery{OrganizationID: 1, Start: date(2024, 1, 1), End: date(2024, 2, 1), Basis: "modified"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Generate(context.Background(), tt.q); !errs.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	// 组织不存在
	_, err := svc.Generate(context.Background(), GenerateQuery{
		OrganizationID: 99, Start: date(2024, 1, 1), End: date(2024, 2, 1),
	})
	if !errs.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestGenerateProjectScope(t *testing.T) {
	orgRepo := &fakeOrgRepo{orgs: map[uint]*orgdomain.Organization{
		1: {Name: "builder", StartingBalance: decimal.Zero},
	}}
	milestones := &fakeMilestoneRepo{milestones: []orgdomain.Milestone{
		milestoneFixture(5, 1, 10, "67500", date(2024, 2, 15)),
		milestoneFixture(6, 1, 11, "30000", date(2024, 2, 20)),
	}}
	lines := &fakeLineRepo{lines: []orgdomain.ForecastLine{{
		OrganizationID: 1,
		Direction:      orgdomain.DirectionOutgo,
		Amount:         dec("3500"),
		StartDate:      date(2024, 1, 1),
		Frequency:      orgdomain.FrequencyMonthly,
	}}}

	svc := newTestService(orgRepo, milestones, &fakeClaimRepo{}, lines, &fakeTxnRepo{}, &fakeScenarios{orgID: 1})

	result, err := svc.Generate(context.Background(), GenerateQuery{
		OrganizationID: 1,
		ProjectID:      10,
		Start:          date(2024, 1, 1),
		End:            date(2024, 3, 31),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 只含项目 10 的里程碑，其他项目和组织级开销行都不进入
	if !result.Summary.TotalIncome.Equal(dec("67500")) {
		t.Errorf("total income = %s, want 67500", result.Summary.TotalIncome)
	}
	if !result.Summary.TotalOutgo.IsZero() {
		t.Errorf("total outgo = %s, want 0", result.Summary.TotalOutgo)
	}

	// 项目不存在
	_, err = svc.Generate(context.Background(), GenerateQuery{
		OrganizationID: 1, ProjectID: 99,
		Start: date(2024, 1, 1), End: date(2024, 3, 31),
	})
	if !errs.IsNotFound(err) {
		t.Errorf("unknown project: expected not-found error, got %v", err)
	}

	// 项目属于别的组织
	_, err = svc.Generate(context.Background(), GenerateQuery{
		OrganizationID: 1, ProjectID: 20,
		Start: date(2024, 1, 1), End: date(2024, 3, 31),
	})
	if !errs.IsValidation(err) {
		t.Errorf("cross-org project: expected validation error, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	periods := []domain.Period{
		{Key: "2024-01", Income: dec("60000"), Outgo: dec("12500.5"), Net: dec("47499.5"), Balance: dec("57499.5")},
		{Key: "2024-02", Income: decimal.Zero, Outgo: dec("3500"), Net: dec("-3500"), Balance: dec("53999.5")},
	}

	data, err := WriteCSV(periods)
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Period,Income,Outgo,Net,Balance" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-01,60000.00,12500.50,47499.50,57499.50" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "2024-02,0.00,3500.00,-3500.00,53999.50" {
		t.Errorf("row 2 = %q", lines[2])
	}
}
