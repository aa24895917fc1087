package domain

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ForecastItem 参与匹配的预测侧事件
type ForecastItem struct {
	EventType string
	EventID   uint
	ProjectID uint
	Direction string
	Amount    decimal.Decimal
	Date      time.Time
}

// ActualItem 参与匹配的实际交易
type ActualItem struct {
	ID           uint
	ProjectID    uint
	Direction    string
	Amount       decimal.Decimal
	Date         time.Time
	ExternalID   string
	ExternalType string
}

// Config 匹配参数。置信度 = AmountWeight×金额贴合度 + TimingWeight×时间贴合度，
// 低于 MinConfidence 的候选不产生匹配。
type Config struct {
	WindowDays    int
	AmountWeight  float64
	TimingWeight  float64
	MinConfidence float64
}

func DefaultConfig() Config {
	return Config{
		WindowDays:    30,
		AmountWeight:  0.6,
		TimingWeight:  0.4,
		MinConfidence: 0.3,
	}
}

// Result 一轮匹配的产出
type Result struct {
	Matches           []VarianceMatch
	UnmatchedForecast int
	UnmatchedActual   int
}

// Match 贪心一对一匹配：按日期顺序逐个预测事件挑置信度最高的候选交易，
// 选中即占用。并列时先比时间方差绝对值再比金额方差绝对值。
// 纯函数，相同输入必然给出相同配对。
func Match(orgID uint, forecasts []ForecastItem, actuals []ActualItem, cfg Config) Result {
	ordered := make([]ForecastItem, len(forecasts))
	copy(ordered, forecasts)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		if ordered[i].EventType != ordered[j].EventType {
			return ordered[i].EventType < ordered[j].EventType
		}
		return ordered[i].EventID < ordered[j].EventID
	})

	used := make(map[uint]bool, len(actuals))
	var matches []VarianceMatch

	for _, f := range ordered {
		best := -1
		bestScore := 0.0
		bestTiming := 0
		bestAmount := decimal.Zero

		for i, a := range actuals {
			if used[a.ID] {
				continue
			}
			if a.Direction != f.Direction {
				continue
			}
			// 未归属项目的交易可以匹配任何项目的事件
			if a.ProjectID != 0 && f.ProjectID != 0 && a.ProjectID != f.ProjectID {
				continue
			}
			timing := daysBetween(f.Date, a.Date)
			if abs(timing) > cfg.WindowDays {
				continue
			}

			score := cfg.AmountWeight*amountScore(f.Amount, a.Amount) + cfg.TimingWeight*timingScore(timing, cfg.WindowDays)
			if score < cfg.MinConfidence {
				continue
			}

			amountVar := a.Amount.Sub(f.Amount)
			if best >= 0 {
				if score < bestScore {
					continue
				}
				if score == bestScore {
					if abs(timing) > abs(bestTiming) {
						continue
					}
					if abs(timing) == abs(bestTiming) && amountVar.Abs().GreaterThanOrEqual(bestAmount.Abs()) {
						continue
					}
				}
			}
			best = i
			bestScore = score
			bestTiming = timing
			bestAmount = amountVar
		}

		if best < 0 {
			continue
		}
		a := actuals[best]
		used[a.ID] = true
		matches = append(matches, VarianceMatch{
			OrganizationID:     orgID,
			ProjectID:          f.ProjectID,
			CashEventType:      f.EventType,
			CashEventID:        f.EventID,
			ActualEventID:      a.ID,
			ExternalID:         a.ExternalID,
			ExternalType:       a.ExternalType,
			ForecastAmount:     f.Amount,
			ActualAmount:       a.Amount,
			ForecastDate:       f.Date,
			ActualDate:         a.Date,
			AmountVariance:     a.Amount.Sub(f.Amount),
			TimingVarianceDays: bestTiming,
			ConfidenceScore:    decimal.NewFromFloat(bestScore).Round(4),
			Status:             StatusMatched,
		})
	}

	return Result{
		Matches:           matches,
		UnmatchedForecast: len(forecasts) - len(matches),
		UnmatchedActual:   len(actuals) - len(matches),
	}
}

// amountScore 金额贴合度 ∈ [0,1]：1 - |实际-预测|/|预测|，差异超过一倍记 0。
// 预测金额为零时只有零额交易算完全贴合。
func amountScore(forecast, actual decimal.Decimal) float64 {
	if forecast.IsZero() {
		if actual.IsZero() {
			return 1
		}
		return 0
	}
	ratio, _ := actual.Sub(forecast).Abs().Div(forecast.Abs()).Float64()
	return math.Max(0, 1-ratio)
}

// timingScore 时间贴合度 ∈ [0,1]：窗口内线性衰减
func timingScore(days, window int) float64 {
	if window <= 0 {
		if days == 0 {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-float64(abs(days))/float64(window))
}

// daysBetween 实际日减预测日的整天数，早到为负
func daysBetween(forecast, actual time.Time) int {
	f := time.Date(forecast.Year(), forecast.Month(), forecast.Day(), 0, 0, 0, 0, time.UTC)
	a := time.Date(actual.Year(), actual.Month(), actual.Day(), 0, 0, 0, 0, time.UTC)
	return int(a.Sub(f).Hours() / 24)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
