package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/cashflow/pkg/errs"
)

// Period 预测输出的一个日历分桶。Start/End 为闭区间，边界桶按查询区间裁剪。
// ActualIncome/ActualOutgo 仅在历史分桶上由实际流水回填。
type Period struct {
	Key          string           `json:"key"`
	Start        time.Time        `json:"start"`
	End          time.Time        `json:"end"`
	Income       decimal.Decimal  `json:"income"`
	Outgo        decimal.Decimal  `json:"outgo"`
	Net          decimal.Decimal  `json:"net"`
	Balance      decimal.Decimal  `json:"balance"`
	ActualIncome *decimal.Decimal `json:"actual_income,omitempty"`
	ActualOutgo  *decimal.Decimal `json:"actual_outgo,omitempty"`
	IsHistorical bool             `json:"is_historical"`
}

// DateOnly 丢弃时分秒，统一为 UTC 午夜
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthKey YYYY-MM
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// WeekKey ISO 周，YYYY-Www
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// weekStart 所在 ISO 周的周一
func weekStart(t time.Time) time.Time {
	t = DateOnly(t)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// BuildPeriods 构造覆盖 [start, end] 的连续不重叠分桶，升序排列。
// 分桶是否属于历史由 now 判定：整个跨度早于 now 当日即为历史。
func BuildPeriods(start, end time.Time, granularity Granularity, now time.Time) ([]Period, error) {
	start = DateOnly(start)
	end = DateOnly(end)
	if end.Before(start) {
		return nil, errs.Validationf("invalid range: end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	today := DateOnly(now)
	var periods []Period

	switch granularity {
	case GranularityWeek:
		for cur := weekStart(start); !cur.After(end); cur = cur.AddDate(0, 0, 7) {
			pEnd := minDate(cur.AddDate(0, 0, 6), end)
			pStart := maxDate(cur, start)
			periods = append(periods, Period{
				Key:          WeekKey(cur),
				Start:        pStart,
				End:          pEnd,
				Income:       decimal.Zero,
				Outgo:        decimal.Zero,
				Net:          decimal.Zero,
				Balance:      decimal.Zero,
				IsHistorical: pEnd.Before(today),
			})
		}

	case GranularityMonth, "":
		for cur := monthStart(start); !cur.After(end); cur = cur.AddDate(0, 1, 0) {
			pEnd := minDate(cur.AddDate(0, 1, -1), end)
			pStart := maxDate(cur, start)
			periods = append(periods, Period{
				Key:          MonthKey(cur),
				Start:        pStart,
				End:          pEnd,
				Income:       decimal.Zero,
				Outgo:        decimal.Zero,
				Net:          decimal.Zero,
				Balance:      decimal.Zero,
				IsHistorical: pEnd.Before(today),
			})
		}

	default:
		return nil, errs.Validationf("invalid granularity: %s", granularity)
	}

	return periods, nil
}
