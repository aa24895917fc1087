package domain

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
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

func TestMatchSingleCandidate(t *testing.T) {
	forecasts := []ForecastItem{{
		EventType: "milestone",
		EventID:   1,
		ProjectID: 10,
		Direction: "income",
		Amount:    dec("100000"),
		Date:      date(2024, 3, 15),
	}}
	actuals := []ActualItem{{
		ID:           42,
		ProjectID:    10,
		Direction:    "income",
		Amount:       dec("98000"),
		Date:         date(2024, 3, 18),
		ExternalID:   "INV-1001",
		ExternalType: "invoice",
	}}

	result := Match(1, forecasts, actuals, DefaultConfig())
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}

	m := result.Matches[0]
	if !m.AmountVariance.Equal(dec("-2000")) {
		t.Errorf("amount variance = %s, want -2000 (actual minus forecast)", m.AmountVariance)
	}
	if m.TimingVarianceDays != 3 {
		t.Errorf("timing variance = %d, want 3", m.TimingVarianceDays)
	}
	// 0.6×(1-2000/100000) + 0.4×(1-3/30) = 0.948
	if !m.ConfidenceScore.Equal(dec("0.948")) {
		t.Errorf("confidence = %s, want 0.948", m.ConfidenceScore)
	}
	if m.Status != StatusMatched {
		t.Errorf("status = %s, want %s", m.Status, StatusMatched)
	}
	if m.ExternalID != "INV-1001" || m.ExternalType != "invoice" {
		t.Error("match must carry the external transaction reference")
	}
	if result.UnmatchedForecast != 0 || result.UnmatchedActual != 0 {
		t.Errorf("unmatched counts = %d/%d, want 0/0", result.UnmatchedForecast, result.UnmatchedActual)
	}
}

func TestMatchBelowThreshold(t *testing.T) {
	forecasts := []ForecastItem{{
		EventType: "milestone", EventID: 1,
		Direction: "income", Amount: dec("100000"), Date: date(2024, 3, 15),
	}}
	// 金额偏差接近一倍、时间偏差接近窗口边缘，置信度低于阈值
	actuals := []ActualItem{{
		ID: 42, Direction: "income", Amount: dec("8000"), Date: date(2024, 4, 12),
	}}

	result := Match(1, forecasts, actuals, DefaultConfig())
	if len(result.Matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(result.Matches))
	}
	if result.UnmatchedForecast != 1 || result.UnmatchedActual != 1 {
		t.Errorf("unmatched counts = %d/%d, want 1/1", result.UnmatchedForecast, result.UnmatchedActual)
	}
}

func TestMatchOutsideWindow(t *testing.T) {
	forecasts := []ForecastItem{{
		EventType: "milestone", EventID: 1,
		Direction: "income", Amount: dec("100000"), Date: date(2024, 3, 15),
	}}
	actuals := []ActualItem{{
		ID: 42, Direction: "income", Amount: dec("100000"), Date: date(2024, 4, 20),
	}}

	result := Match(1, forecasts, actuals, DefaultConfig())
	if len(result.Matches) != 0 {
		t.Fatal("a perfect amount outside the timing window must not match")
	}
}

func TestMatchDirectionAndProjectFilter(t *testing.T) {
	forecasts := []ForecastItem{{
		EventType: "supplier_claim", EventID: 1, ProjectID: 10,
		Direction: "outgo", Amount: dec("5000"), Date: date(2024, 3, 15),
	}}
	actuals := []ActualItem{
		// 方向不同
		{ID: 1, ProjectID: 10, Direction: "income", Amount: dec("5000"), Date: date(2024, 3, 15)},
		// 项目不同
		{ID: 2, ProjectID: 11, Direction: "outgo", Amount: dec("5000"), Date: date(2024, 3, 15)},
		// 未归属项目的交易可以匹配
		{ID: 3, ProjectID: 0, Direction: "outgo", Amount: dec("5000"), Date: date(2024, 3, 16)},
	}

	result := Match(1, forecasts, actuals, DefaultConfig())
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].ActualEventID != 3 {
		t.Errorf("matched actual = %d, want 3", result.Matches[0].ActualEventID)
	}
}

func TestMatchGreedyOneToOne(t *testing.T) {
	// 两个预测竞争同一笔交易：日期靠前的预测先挑，
	// 第二个预测只能退而求其次
	forecasts := []ForecastItem{
		{EventType: "milestone", EventID: 2, Direction: "income", Amount: dec("50000"), Date: date(2024, 3, 20)},
		{EventType: "milestone", EventID: 1, Direction: "income", Amount: dec("50000"), Date: date(2024, 3, 10)},
	}
	actuals := []ActualItem{
		{ID: 100, Direction: "income", Amount: dec("50000"), Date: date(2024, 3, 10)},
		{ID: 101, Direction: "income", Amount: dec("50000"), Date: date(2024, 3, 28)},
	}

	result := Match(1, forecasts, actuals, DefaultConfig())
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].CashEventID != 1 || result.Matches[0].ActualEventID != 100 {
		t.Errorf("first match = forecast %d / actual %d, want 1/100",
			result.Matches[0].CashEventID, result.Matches[0].ActualEventID)
	}
	if result.Matches[1].CashEventID != 2 || result.Matches[1].ActualEventID != 101 {
		t.Errorf("second match = forecast %d / actual %d, want 2/101",
			result.Matches[1].CashEventID, result.Matches[1].ActualEventID)
	}
}

func TestMatchPrefersSmallerTimingVariance(t *testing.T) {
	forecasts := []ForecastItem{{
		EventType: "milestone", EventID: 1,
		Direction: "income", Amount: dec("10000"), Date: date(2024, 3, 15),
	}}
	actuals := []ActualItem{
		{ID: 1, Direction: "income", Amount: dec("10000"), Date: date(2024, 3, 25)},
		{ID: 2, Direction: "income", Amount: dec("10000"), Date: date(2024, 3, 17)},
	}

	result := Match(1, forecasts, actuals, DefaultConfig())
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].ActualEventID != 2 {
		t.Errorf("matched actual = %d, want the closer-dated 2", result.Matches[0].ActualEventID)
	}
}

func TestMatchZeroForecastAmount(t *testing.T) {
	forecasts := []ForecastItem{{
		EventType: "milestone", EventID: 1,
		Direction: "income", Amount: decimal.Zero, Date: date(2024, 3, 15),
	}}

	// 非零交易对零额预测没有金额贴合度
	result := Match(1, forecasts, []ActualItem{
		{ID: 1, Direction: "income", Amount: dec("100"), Date: date(2024, 3, 15)},
	}, DefaultConfig())
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match on timing alone, got %d", len(result.Matches))
	}
	// 0.6×0 + 0.4×1 = 0.4
	if !result.Matches[0].ConfidenceScore.Equal(dec("0.4")) {
		t.Errorf("confidence = %s, want 0.4", result.Matches[0].ConfidenceScore)
	}

	// 零额交易与零额预测完全贴合
	result = Match(1, forecasts, []ActualItem{
		{ID: 2, Direction: "income", Amount: decimal.Zero, Date: date(2024, 3, 15)},
	}, DefaultConfig())
	if !result.Matches[0].ConfidenceScore.Equal(dec("1")) {
		t.Errorf("confidence = %s, want 1", result.Matches[0].ConfidenceScore)
	}
}

func TestMatchDeterministic(t *testing.T) {
	forecasts := []ForecastItem{
		{EventType: "milestone", EventID: 3, Direction: "income", Amount: dec("20000"), Date: date(2024, 3, 5)},
		{EventType: "supplier_claim", EventID: 1, Direction: "outgo", Amount: dec("8000"), Date: date(2024, 3, 8)},
		{EventType: "milestone", EventID: 1, Direction: "income", Amount: dec("15000"), Date: date(2024, 3, 5)},
	}
	actuals := []ActualItem{
		{ID: 1, Direction: "income", Amount: dec("19500"), Date: date(2024, 3, 7)},
		{ID: 2, Direction: "outgo", Amount: dec("8000"), Date: date(2024, 3, 9)},
		{ID: 3, Direction: "income", Amount: dec("15200"), Date: date(2024, 3, 4)},
	}

	first := Match(1, forecasts, actuals, DefaultConfig())
	// 输入顺序打乱后结果不变
	shuffled := []ForecastItem{forecasts[2], forecasts[0], forecasts[1]}
	second := Match(1, shuffled, actuals, DefaultConfig())

	if !reflect.DeepEqual(first, second) {
		t.Error("matching must be independent of forecast input order")
	}
}

func TestVarianceMatchTransitions(t *testing.T) {
	m := &VarianceMatch{Status: StatusMatched}

	if err := m.Resolve(); err == nil {
		t.Error("resolving a matched record must fail")
	}
	if err := m.Dispute(); err != nil {
		t.Fatalf("Dispute: %v", err)
	}
	if err := m.Dispute(); err == nil {
		t.Error("disputing twice must fail")
	}
	if err := m.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Status != StatusResolved {
		t.Errorf("status = %s, want %s", m.Status, StatusResolved)
	}
}
