// Package mysql 实际流水的 GORM 持久化实现
package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/cashflow/internal/ledger/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Upsert 以 (organization, external_id, external_type) 为键写入，
// 同步管道重放同一单据时更新而不是重复插入
func (r *TransactionRepository) Upsert(ctx context.Context, txn *domain.ActualTransaction) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "organization_id"},
			{Name: "external_id"},
			{Name: "external_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"project_id", "direction", "amount", "occurred_at", "basis", "updated_at",
		}),
	}).Create(txn).Error
	if err != nil {
		return errs.Upstreamf(err, "upsert actual transaction")
	}
	return nil
}

func (r *TransactionRepository) List(ctx context.Context, q domain.Query) ([]domain.ActualTransaction, error) {
	db := r.db.WithContext(ctx).Where("organization_id = ?", q.OrganizationID)
	if q.ProjectID != 0 {
		db = db.Where("project_id = ?", q.ProjectID)
	}
	if q.Basis != "" {
		db = db.Where("basis = ?", q.Basis)
	}
	if !q.From.IsZero() {
		db = db.Where("occurred_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where("occurred_at <= ?", q.To)
	}

	var txns []domain.ActualTransaction
	if err := db.Order("occurred_at").Find(&txns).Error; err != nil {
		return nil, errs.Upstreamf(err, "list actual transactions")
	}
	return txns, nil
}
