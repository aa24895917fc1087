package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ActualFlow 已记账的实际流水快照，供历史分桶回填
type ActualFlow struct {
	Direction Direction
	Amount    decimal.Decimal
	Date      time.Time
}

// Summary 预测汇总
type Summary struct {
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalOutgo        decimal.Decimal `json:"total_outgo"`
	NetCashflow       decimal.Decimal `json:"net_cashflow"`
	TotalActualIncome decimal.Decimal `json:"total_actual_income"`
	TotalActualOutgo  decimal.Decimal `json:"total_actual_outgo"`
	HistoricalPeriods int             `json:"historical_periods"`
	FuturePeriods     int             `json:"future_periods"`
}

// Aggregate 把计划事件展开并聚合到日历分桶：
// 每桶累计收入/支出/净额，余额从期初余额起逐桶滚动（历史桶同样计入）。
// 输出不依赖事件的输入顺序。
func Aggregate(events []CashEvent, start, end time.Time, granularity Granularity, openingBalance decimal.Decimal, now time.Time) ([]Period, error) {
	periods, err := BuildPeriods(start, end, granularity, now)
	if err != nil {
		return nil, err
	}

	occurrences := Expand(events, DateOnly(start), DateOnly(end))
	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Date.Before(occurrences[j].Date)
	})

	idx := 0
	for _, occ := range occurrences {
		date := DateOnly(occ.Date)
		for idx < len(periods) && periods[idx].End.Before(date) {
			idx++
		}
		if idx >= len(periods) {
			break
		}
		p := &periods[idx]
		if occ.Direction == DirectionIncome {
			p.Income = p.Income.Add(occ.Amount)
		} else {
			p.Outgo = p.Outgo.Add(occ.Amount)
		}
	}

	balance := openingBalance
	for i := range periods {
		periods[i].Net = periods[i].Income.Sub(periods[i].Outgo)
		balance = balance.Add(periods[i].Net)
		periods[i].Balance = balance
	}

	return periods, nil
}

// AttachActuals 把实际流水按日期汇入历史分桶的 ActualIncome/ActualOutgo
func AttachActuals(periods []Period, flows []ActualFlow) {
	for i := range periods {
		if !periods[i].IsHistorical {
			continue
		}
		income := decimal.Zero
		outgo := decimal.Zero
		for _, f := range flows {
			date := DateOnly(f.Date)
			if date.Before(periods[i].Start) || date.After(periods[i].End) {
				continue
			}
			if f.Direction == DirectionIncome {
				income = income.Add(f.Amount)
			} else {
				outgo = outgo.Add(f.Amount)
			}
		}
		periods[i].ActualIncome = &income
		periods[i].ActualOutgo = &outgo
	}
}

// Summarize 汇总分桶为总量视图
func Summarize(periods []Period) Summary {
	s := Summary{
		TotalIncome:       decimal.Zero,
		TotalOutgo:        decimal.Zero,
		NetCashflow:       decimal.Zero,
		TotalActualIncome: decimal.Zero,
		TotalActualOutgo:  decimal.Zero,
	}
	for _, p := range periods {
		s.TotalIncome = s.TotalIncome.Add(p.Income)
		s.TotalOutgo = s.TotalOutgo.Add(p.Outgo)
		if p.ActualIncome != nil {
			s.TotalActualIncome = s.TotalActualIncome.Add(*p.ActualIncome)
		}
		if p.ActualOutgo != nil {
			s.TotalActualOutgo = s.TotalActualOutgo.Add(*p.ActualOutgo)
		}
		if p.IsHistorical {
			s.HistoricalPeriods++
		} else {
			s.FuturePeriods++
		}
	}
	s.NetCashflow = s.TotalIncome.Sub(s.TotalOutgo)
	return s
}
