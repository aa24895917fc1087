// Package domain 施工企业现金流主数据：组织、项目、里程碑、供应商请款与日常开销计划
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MilestoneStatus string
type ClaimStatus string
type Direction string
type Frequency string

const (
	MilestonePending  MilestoneStatus = "pending"
	MilestoneInvoiced MilestoneStatus = "invoiced"
	MilestonePaid     MilestoneStatus = "paid"

	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimPaid     ClaimStatus = "paid"

	DirectionIncome Direction = "income"
	DirectionOutgo  Direction = "outgo"

	FrequencyOnce    Frequency = "once"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Organization 组织聚合根，StartingBalance 为预测的期初余额
type Organization struct {
	gorm.Model
	Name            string          `gorm:"column:name;type:varchar(128);not null"`
	StartingBalance decimal.Decimal `gorm:"column:starting_balance;type:decimal(20,2);not null;default:0"`
}

func (Organization) TableName() string { return "organizations" }

// Project 工程项目
type Project struct {
	gorm.Model
	OrganizationID uint   `gorm:"column:organization_id;index;not null"`
	Name           string `gorm:"column:name;type:varchar(128);not null"`
	Status         string `gorm:"column:status;type:varchar(32);default:'active'"`
}

func (Project) TableName() string { return "projects" }

// Milestone 项目里程碑（收入侧计划事件）
// Retention 元数据描述质保金：到期日只收到 Amount 减去质保金，
// 质保金在 RetentionReleaseDays 天后释放
type Milestone struct {
	gorm.Model
	OrganizationID       uint            `gorm:"column:organization_id;index;not null"`
	ProjectID            uint            `gorm:"column:project_id;index;not null"`
	Name                 string          `gorm:"column:name;type:varchar(128);not null"`
	Amount               decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null"`
	Percentage           decimal.Decimal `gorm:"column:percentage;type:decimal(5,2)"`
	ExpectedDate         time.Time       `gorm:"column:expected_date;not null"`
	Status               MilestoneStatus `gorm:"column:status;type:varchar(32);not null;default:'pending'"`
	RetentionAmount      decimal.Decimal `gorm:"column:retention_amount;type:decimal(20,2)"`
	RetentionPercentage  decimal.Decimal `gorm:"column:retention_percentage;type:decimal(5,2)"`
	RetentionReleaseDays int             `gorm:"column:retention_release_days"`
}

func (Milestone) TableName() string { return "milestones" }

// Retention 质保金金额：优先取固定金额，否则按比例计算
func (m *Milestone) Retention() decimal.Decimal {
	if m.RetentionAmount.IsPositive() {
		return m.RetentionAmount
	}
	if m.RetentionPercentage.IsPositive() {
		return m.Amount.Mul(m.RetentionPercentage).Div(decimal.NewFromInt(100)).Round(2)
	}
	return decimal.Zero
}

// SupplierClaim 供应商请款（支出侧计划事件）
type SupplierClaim struct {
	gorm.Model
	OrganizationID uint            `gorm:"column:organization_id;index;not null"`
	ProjectID      uint            `gorm:"column:project_id;index;not null"`
	Supplier       string          `gorm:"column:supplier;type:varchar(128);not null"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null"`
	ExpectedDate   time.Time       `gorm:"column:expected_date;not null"`
	Status         ClaimStatus     `gorm:"column:status;type:varchar(32);not null;default:'pending'"`
}

func (SupplierClaim) TableName() string { return "supplier_claims" }

// ForecastLine 日常开销/经常性收支计划行
// Monthly/Weekly 频率在聚合时按月复利展开，通胀率与调价率二选一（调价率优先）
type ForecastLine struct {
	gorm.Model
	OrganizationID uint            `gorm:"column:organization_id;index;not null"`
	Name           string          `gorm:"column:name;type:varchar(128);not null"`
	Direction      Direction       `gorm:"column:direction;type:varchar(16);not null"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null"`
	Frequency      Frequency       `gorm:"column:frequency;type:varchar(16);not null;default:'monthly'"`
	StartDate      time.Time       `gorm:"column:start_date;not null"`
	InflationRate  decimal.Decimal `gorm:"column:inflation_rate;type:decimal(8,6)"`
	EscalationRate decimal.Decimal `gorm:"column:escalation_rate;type:decimal(8,6)"`
}

func (ForecastLine) TableName() string { return "forecast_lines" }

// CompoundRate 复利使用的月利率：调价率优先于通胀率
func (f *ForecastLine) CompoundRate() decimal.Decimal {
	if !f.EscalationRate.IsZero() {
		return f.EscalationRate
	}
	return f.InflationRate
}
