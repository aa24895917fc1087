package application

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	orgdomain "github.com/wyfcoding/cashflow/internal/organization/domain"
	"github.com/wyfcoding/cashflow/internal/scenario/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

type fakeScenarioRepo struct {
	scenarios map[uint]*domain.Scenario
	nextID    uint
}

func newFakeScenarioRepo() *fakeScenarioRepo {
	return &fakeScenarioRepo{scenarios: make(map[uint]*domain.Scenario), nextID: 1}
}

func (f *fakeScenarioRepo) Save(ctx context.Context, s *domain.Scenario) error {
	if s.ID == 0 {
		s.ID = f.nextID
		f.nextID++
	}
	cp := *s
	f.scenarios[s.ID] = &cp
	return nil
}

func (f *fakeScenarioRepo) GetByID(ctx context.Context, id uint) (*domain.Scenario, error) {
	s, ok := f.scenarios[id]
	if !ok {
		return nil, errs.NotFoundf("scenario %d not found", id)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeScenarioRepo) GetBase(ctx context.Context, orgID uint) (*domain.Scenario, error) {
	for _, s := range f.scenarios {
		if s.OrganizationID == orgID && s.IsBase {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errs.NotFoundf("base scenario for organization %d not found", orgID)
}

func (f *fakeScenarioRepo) ListByOrganization(ctx context.Context, orgID uint) ([]domain.Scenario, error) {
	var out []domain.Scenario
	for _, s := range f.scenarios {
		if s.OrganizationID == orgID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type shiftKey struct {
	scenarioID uint
	entityType domain.EntityType
	entityID   uint
}

type fakeShiftRepo struct {
	shifts map[shiftKey]domain.Shift
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: make(map[shiftKey]domain.Shift)}
}

func (f *fakeShiftRepo) Upsert(ctx context.Context, s *domain.Shift) error {
	f.shifts[shiftKey{s.ScenarioID, s.EntityType, s.EntityID}] = *s
	return nil
}

func (f *fakeShiftRepo) Delete(ctx context.Context, scenarioID uint, entityType domain.EntityType, entityID uint) error {
	delete(f.shifts, shiftKey{scenarioID, entityType, entityID})
	return nil
}

func (f *fakeShiftRepo) ListByScenario(ctx context.Context, scenarioID uint) ([]domain.Shift, error) {
	var out []domain.Shift
	for k, s := range f.shifts {
		if k.scenarioID == scenarioID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeMilestoneRepo struct {
	milestones map[uint]*orgdomain.Milestone
}

func (f *fakeMilestoneRepo) Save(ctx context.Context, m *orgdomain.Milestone) error { return nil }
func (f *fakeMilestoneRepo) GetByID(ctx context.Context, id uint) (*orgdomain.Milestone, error) {
	m, ok := f.milestones[id]
	if !ok {
		return nil, errs.NotFoundf("milestone %d not found", id)
	}
	return m, nil
}
func (f *fakeMilestoneRepo) ListByOrganization(ctx context.Context, orgID uint) ([]orgdomain.Milestone, error) {
	return nil, nil
}
func (f *fakeMilestoneRepo) ListByProject(ctx context.Context, projectID uint) ([]orgdomain.Milestone, error) {
	return nil, nil
}

type fakeClaimRepo struct {
	claims map[uint]*orgdomain.SupplierClaim
}

func (f *fakeClaimRepo) Save(ctx context.Context, c *orgdomain.SupplierClaim) error { return nil }
func (f *fakeClaimRepo) GetByID(ctx context.Context, id uint) (*orgdomain.SupplierClaim, error) {
	c, ok := f.claims[id]
	if !ok {
		return nil, errs.NotFoundf("supplier claim %d not found", id)
	}
	return c, nil
}
func (f *fakeClaimRepo) ListByOrganization(ctx context.Context, orgID uint) ([]orgdomain.SupplierClaim, error) {
	return nil, nil
}
func (f *fakeClaimRepo) ListByProject(ctx context.Context, projectID uint) ([]orgdomain.SupplierClaim, error) {
	return nil, nil
}

func newTestService() (*ScenarioService, *fakeScenarioRepo, *fakeShiftRepo) {
	scenarioRepo := newFakeScenarioRepo()
	shiftRepo := newFakeShiftRepo()

	milestone := &orgdomain.Milestone{
		OrganizationID: 1,
		ProjectID:      10,
		Amount:         decimal.NewFromInt(67500),
		ExpectedDate:   time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	}
	milestone.Model = gorm.Model{ID: 5}

	foreign := &orgdomain.Milestone{OrganizationID: 2, ProjectID: 20}
	foreign.Model = gorm.Model{ID: 6}

	svc := NewScenarioService(
		scenarioRepo,
		shiftRepo,
		&fakeMilestoneRepo{milestones: map[uint]*orgdomain.Milestone{5: milestone, 6: foreign}},
		&fakeClaimRepo{claims: map[uint]*orgdomain.SupplierClaim{}},
		slog.Default(),
	)
	return svc, scenarioRepo, shiftRepo
}

func TestEnsureBaseIdempotent(t *testing.T) {
	svc, scenarioRepo, _ := newTestService()
	ctx := context.Background()

	if err := svc.EnsureBase(ctx, 1); err != nil {
		t.Fatalf("EnsureBase: %v", err)
	}
	if err := svc.EnsureBase(ctx, 1); err != nil {
		t.Fatalf("EnsureBase second call: %v", err)
	}

	scenarios, _ := scenarioRepo.ListByOrganization(ctx, 1)
	if len(scenarios) != 1 {
		t.Fatalf("expected exactly one base scenario, got %d", len(scenarios))
	}
	if !scenarios[0].IsBase || scenarios[0].Name != "Base" {
		t.Errorf("unexpected base scenario: %+v", scenarios[0])
	}
}

func TestCreateScenarioRejectsReservedName(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.CreateScenario(context.Background(), 1, "Base"); !errs.IsValidation(err) {
		t.Errorf("expected validation error for reserved name, got %v", err)
	}
	if _, err := svc.CreateScenario(context.Background(), 1, ""); !errs.IsValidation(err) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
}

func TestUpsertShiftIdempotent(t *testing.T) {
	svc, _, shiftRepo := newTestService()
	ctx := context.Background()

	scenario, err := svc.CreateScenario(ctx, 1, "client delays")
	if err != nil {
		t.Fatalf("CreateScenario: %v", err)
	}

	cmd := UpsertShiftCmd{
		ScenarioID: scenario.ID,
		EntityType: domain.EntityMilestone,
		EntityID:   5,
		DaysShift:  30,
	}
	if _, err := svc.UpsertShift(ctx, cmd); err != nil {
		t.Fatalf("UpsertShift: %v", err)
	}

	// 重复提交更新而不是叠加
	cmd.DaysShift = 45
	if _, err := svc.UpsertShift(ctx, cmd); err != nil {
		t.Fatalf("UpsertShift repeat: %v", err)
	}

	shifts, _ := shiftRepo.ListByScenario(ctx, scenario.ID)
	if len(shifts) != 1 {
		t.Fatalf("expected 1 shift after repeated upsert, got %d", len(shifts))
	}
	if shifts[0].DaysShift != 45 {
		t.Errorf("days shift = %d, want 45 (last write wins)", shifts[0].DaysShift)
	}
}

func TestUpsertShiftRejectsBaseScenario(t *testing.T) {
	svc, scenarioRepo, _ := newTestService()
	ctx := context.Background()

	if err := svc.EnsureBase(ctx, 1); err != nil {
		t.Fatalf("EnsureBase: %v", err)
	}
	base, err := scenarioRepo.GetBase(ctx, 1)
	if err != nil {
		t.Fatalf("GetBase: %v", err)
	}

	_, err = svc.UpsertShift(ctx, UpsertShiftCmd{
		ScenarioID: base.ID,
		EntityType: domain.EntityMilestone,
		EntityID:   5,
		DaysShift:  10,
	})
	if !errs.IsValidation(err) {
		t.Errorf("expected validation error for base scenario, got %v", err)
	}
}

func TestUpsertShiftRejectsForeignEntity(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	scenario, err := svc.CreateScenario(ctx, 1, "what-if")
	if err != nil {
		t.Fatalf("CreateScenario: %v", err)
	}

	// 里程碑 6 属于组织 2
	_, err = svc.UpsertShift(ctx, UpsertShiftCmd{
		ScenarioID: scenario.ID,
		EntityType: domain.EntityMilestone,
		EntityID:   6,
		DaysShift:  10,
	})
	if !errs.IsValidation(err) {
		t.Errorf("expected validation error for foreign milestone, got %v", err)
	}
}

func TestResolverForCrossOrganization(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	scenario, err := svc.CreateScenario(ctx, 1, "what-if")
	if err != nil {
		t.Fatalf("CreateScenario: %v", err)
	}

	if _, err := svc.ResolverFor(ctx, 2, scenario.ID); !errs.IsValidation(err) {
		t.Errorf("expected validation error for cross-org scenario, got %v", err)
	}
}

func TestResolverForDefaultsToBase(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.EnsureBase(ctx, 1); err != nil {
		t.Fatalf("EnsureBase: %v", err)
	}
	if _, err := svc.ResolverFor(ctx, 1, 0); err != nil {
		t.Fatalf("ResolverFor(0) should resolve the base scenario: %v", err)
	}
}
