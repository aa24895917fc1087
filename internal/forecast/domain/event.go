// Package domain 现金流预测核心：计划事件展开、日历分桶与余额聚合。
// 所有函数均为纯函数，输入是加载完成的只读快照，"当前时间"由调用方显式传入。
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventKind string
type Direction string
type Frequency string
type Granularity string
type Basis string

const (
	KindMilestone     EventKind = "milestone"
	KindSupplierClaim EventKind = "supplier_claim"
	KindOverhead      EventKind = "overhead"
	KindRetention     EventKind = "retention"

	DirectionIncome Direction = "income"
	DirectionOutgo  Direction = "outgo"

	FrequencyOnce    Frequency = "once"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"

	GranularityMonth Granularity = "month"
	GranularityWeek  Granularity = "week"

	BasisCash    Basis = "cash"
	BasisAccrual Basis = "accrual"
)

// CashEvent 计划性财务事件的只读快照。金额恒为非负，方向由 Direction 决定。
// Frequency 非空表示经常性开销行，聚合时按月复利展开；
// RetentionAmount 为正表示里程碑带质保金，展开时拆分为到期款与质保金释放两笔。
type CashEvent struct {
	Kind           EventKind
	EntityID       uint
	OrganizationID uint
	// 0 表示无项目归属（如开销行）
	ProjectID uint
	Direction Direction
	Amount    decimal.Decimal
	// 里程碑/请款为预计日期，开销行为起始日期
	Date   time.Time
	Status string

	Frequency Frequency
	// 月利率，复利展开用
	Rate decimal.Decimal

	RetentionAmount      decimal.Decimal
	RetentionReleaseDays int
}

// inRange 闭区间判断
func inRange(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// monthsBetween 完整经过的日历月数，不足一月不计
func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// addMonthsClamped 按日历月推进日期，日固定在起始日，
// 目标月天数不足时取月末。直接 AddDate 会把 1-31 规范化成 3-02。
func addMonthsClamped(t time.Time, months int) time.Time {
	anchor := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).
		AddDate(0, months, 0)
	day := t.Day()
	if last := anchor.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return anchor.AddDate(0, 0, day-1)
}

// compound 按月复利：amount × (1+rate)^months，四舍五入到分
func compound(amount, rate decimal.Decimal, months int) decimal.Decimal {
	if rate.IsZero() || months == 0 {
		return amount.Round(2)
	}
	factor := decimal.NewFromInt(1).Add(rate).Pow(decimal.NewFromInt(int64(months)))
	return amount.Mul(factor).Round(2)
}

// Expand 把计划事件展开为区间内的原子收支：
// 经常性开销按频率生成多笔，带质保金的里程碑拆为两笔，其余原样保留。
// 区间外的展开结果被丢弃。
func Expand(events []CashEvent, start, end time.Time) []CashEvent {
	var out []CashEvent

	for _, ev := range events {
		switch {
		case ev.Frequency == FrequencyMonthly:
			for k := 0; ; k++ {
				date := addMonthsClamped(ev.Date, k)
				if date.After(end) {
					break
				}
				if date.Before(start) {
					continue
				}
				occ := ev
				occ.Date = date
				occ.Amount = compound(ev.Amount, ev.Rate, k)
				out = append(out, occ)
			}

		case ev.Frequency == FrequencyWeekly:
			for k := 0; ; k++ {
				date := ev.Date.AddDate(0, 0, 7*k)
				if date.After(end) {
					break
				}
				if date.Before(start) {
					continue
				}
				occ := ev
				occ.Date = date
				occ.Amount = compound(ev.Amount, ev.Rate, monthsBetween(ev.Date, date))
				out = append(out, occ)
			}

		case ev.RetentionAmount.IsPositive():
			retention := ev.RetentionAmount
			if retention.GreaterThan(ev.Amount) {
				retention = ev.Amount
			}

			main := ev
			main.Amount = ev.Amount.Sub(retention)
			main.RetentionAmount = decimal.Zero
			if inRange(main.Date, start, end) {
				out = append(out, main)
			}

			release := ev
			release.Kind = KindRetention
			release.Amount = retention
			release.Date = ev.Date.AddDate(0, 0, ev.RetentionReleaseDays)
			release.RetentionAmount = decimal.Zero
			if inRange(release.Date, start, end) {
				out = append(out, release)
			}

		default:
			if inRange(ev.Date, start, end) {
				out = append(out, ev)
			}
		}
	}

	return out
}
