// Package domain 实际流水账本：由外部记账系统同步管道物化的交易记录。
// 引擎只读，写入来自同步消费者。
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Direction string
type Basis string

const (
	DirectionIncome Direction = "income"
	DirectionOutgo  Direction = "outgo"

	BasisCash    Basis = "cash"
	BasisAccrual Basis = "accrual"
)

// ActualTransaction 已发生的实际交易。ExternalID/ExternalType 指向
// 记账系统中的原始单据，(organization, external_id, external_type) 唯一。
type ActualTransaction struct {
	gorm.Model
	OrganizationID uint            `gorm:"column:organization_id;index;uniqueIndex:idx_org_external;not null"`
	ProjectID      uint            `gorm:"column:project_id;index"`
	Direction      Direction       `gorm:"column:direction;type:varchar(16);not null"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null"`
	OccurredAt     time.Time       `gorm:"column:occurred_at;index;not null"`
	Basis          Basis           `gorm:"column:basis;type:varchar(16);not null;default:'accrual'"`
	ExternalID     string          `gorm:"column:external_id;type:varchar(64);uniqueIndex:idx_org_external;not null"`
	ExternalType   string          `gorm:"column:external_type;type:varchar(32);uniqueIndex:idx_org_external;not null"`
}

func (ActualTransaction) TableName() string { return "actual_transactions" }

// Query 流水查询条件。ProjectID 为 0 表示不过滤项目。
type Query struct {
	OrganizationID uint
	ProjectID      uint
	Basis          Basis
	From           time.Time
	To             time.Time
}

type TransactionRepository interface {
	// Upsert 以外部单据标识为键写入，同步重放不产生重复记录
	Upsert(ctx context.Context, txn *ActualTransaction) error
	List(ctx context.Context, q Query) ([]ActualTransaction, error)
}
