package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	forecast "github.com/wyfcoding/cashflow/internal/forecast/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func milestoneEvent(id, orgID uint, amount string, date time.Time) forecast.CashEvent {
	return forecast.CashEvent{
		Kind:           forecast.KindMilestone,
		EntityID:       id,
		OrganizationID: orgID,
		Direction:      forecast.DirectionIncome,
		Amount:         dec(amount),
		Date:           date,
	}
}

func TestResolverBaseIsIdentity(t *testing.T) {
	base := &Scenario{OrganizationID: 1, Name: "Base", IsBase: true}
	// 基准情景上即使误挂了偏移也不生效
	r := NewResolver(base, []Shift{
		{EntityType: EntityMilestone, EntityID: 5, DaysShift: 30},
	})

	ev := milestoneEvent(5, 1, "67500", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	got, err := r.Apply(ev)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !got.Date.Equal(ev.Date) || !got.Amount.Equal(ev.Amount) {
		t.Error("base scenario must return events unchanged")
	}
}

func TestResolverApplyShift(t *testing.T) {
	scenario := &Scenario{OrganizationID: 1, Name: "client delays", IsBase: false}
	r := NewResolver(scenario, []Shift{
		{EntityType: EntityMilestone, EntityID: 5, DaysShift: 30, AmountShift: dec("-7500")},
	})

	ev := milestoneEvent(5, 1, "67500", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	got, err := r.Apply(ev)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC); !got.Date.Equal(want) {
		t.Errorf("shifted date = %v, want %v", got.Date, want)
	}
	if !got.Amount.Equal(dec("60000")) {
		t.Errorf("shifted amount = %s, want 60000", got.Amount)
	}

	// 未被偏移引用的事件原样通过
	other := milestoneEvent(6, 1, "20000", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	got, err = r.Apply(other)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !got.Amount.Equal(other.Amount) || !got.Date.Equal(other.Date) {
		t.Error("events without a shift must pass through unchanged")
	}
}

func TestResolverClampsAmountAtZero(t *testing.T) {
	scenario := &Scenario{OrganizationID: 1, Name: "write-off", IsBase: false}
	r := NewResolver(scenario, []Shift{
		{EntityType: EntityMilestone, EntityID: 5, AmountShift: dec("-90000")},
	})

	ev := milestoneEvent(5, 1, "67500", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	got, err := r.Apply(ev)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !got.Amount.IsZero() {
		t.Errorf("amount = %s, want clamped to zero", got.Amount)
	}
}

func TestResolverRejectsForeignEntity(t *testing.T) {
	scenario := &Scenario{OrganizationID: 1, Name: "cross-org", IsBase: false}
	r := NewResolver(scenario, []Shift{
		{EntityType: EntityMilestone, EntityID: 5, DaysShift: 10},
	})

	ev := milestoneEvent(5, 2, "67500", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if _, err := r.Apply(ev); !errs.IsValidation(err) {
		t.Errorf("expected validation error for foreign entity, got %v", err)
	}
}

func TestResolverLastShiftWins(t *testing.T) {
	scenario := &Scenario{OrganizationID: 1, Name: "revised", IsBase: false}
	// 同一实体出现两次时后一条覆盖前一条，与存储层 upsert 语义一致
	r := NewResolver(scenario, []Shift{
		{EntityType: EntityMilestone, EntityID: 5, DaysShift: 10},
		{EntityType: EntityMilestone, EntityID: 5, DaysShift: 30},
	})

	ev := milestoneEvent(5, 1, "1000", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	got, err := r.Apply(ev)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC); !got.Date.Equal(want) {
		t.Errorf("date = %v, want %v (last shift wins)", got.Date, want)
	}
}
