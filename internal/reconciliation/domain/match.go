// Package domain 对账领域：预测事件与实际流水的方差匹配
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/cashflow/pkg/errs"
)

// MatchStatus 匹配记录的复核状态
type MatchStatus string

const (
	StatusMatched  MatchStatus = "matched"
	StatusDisputed MatchStatus = "disputed"
	StatusResolved MatchStatus = "resolved"
)

// VarianceMatch 一条预测事件与一笔实际交易的配对结果。
// 方差口径统一为 实际 - 预测。
type VarianceMatch struct {
	gorm.Model
	OrganizationID     uint            `gorm:"not null;index:idx_match_org" json:"organization_id"`
	ProjectID          uint            `gorm:"index" json:"project_id,omitempty"`
	CashEventType      string          `gorm:"type:varchar(32);not null" json:"cash_event_type"`
	CashEventID        uint            `gorm:"not null" json:"cash_event_id"`
	ActualEventID      uint            `gorm:"not null" json:"actual_event_id"`
	ExternalID         string          `gorm:"type:varchar(64)" json:"external_id"`
	ExternalType       string          `gorm:"type:varchar(32)" json:"external_type"`
	ForecastAmount     decimal.Decimal `gorm:"type:decimal(20,2)" json:"forecast_amount"`
	ActualAmount       decimal.Decimal `gorm:"type:decimal(20,2)" json:"actual_amount"`
	ForecastDate       time.Time       `json:"forecast_date"`
	ActualDate         time.Time       `json:"actual_date"`
	AmountVariance     decimal.Decimal `gorm:"type:decimal(20,2)" json:"amount_variance"`
	TimingVarianceDays int             `json:"timing_variance_days"`
	ConfidenceScore    decimal.Decimal `gorm:"type:decimal(5,4)" json:"confidence_score"`
	Status             MatchStatus     `gorm:"type:varchar(16);not null;default:'matched'" json:"status"`
}

func (VarianceMatch) TableName() string {
	return "variance_matches"
}

// Dispute 把匹配标记为有争议，只能从 matched 转出
func (m *VarianceMatch) Dispute() error {
	if m.Status != StatusMatched {
		return errs.Validationf("cannot dispute match in status %s", m.Status)
	}
	m.Status = StatusDisputed
	return nil
}

// Resolve 关闭争议
func (m *VarianceMatch) Resolve() error {
	if m.Status != StatusDisputed {
		return errs.Validationf("cannot resolve match in status %s", m.Status)
	}
	m.Status = StatusResolved
	return nil
}
