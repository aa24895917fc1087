// Package application 账本应用服务：接收同步管道物化的流水并提供查询
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/cashflow/internal/ledger/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

type LedgerService struct {
	txnRepo domain.TransactionRepository
	logger  *slog.Logger
}

func NewLedgerService(txnRepo domain.TransactionRepository, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		txnRepo: txnRepo,
		logger:  logger.With("module", "ledger_service"),
	}
}

// RecordSynced 写入一条同步下来的实际交易，按外部单据标识幂等
func (s *LedgerService) RecordSynced(ctx context.Context, cmd RecordSyncedCmd) error {
	if cmd.ExternalID == "" || cmd.ExternalType == "" {
		return errs.Validationf("external transaction reference is required")
	}
	if cmd.Amount.IsNegative() {
		return errs.Validationf("transaction amount must not be negative")
	}
	switch cmd.Direction {
	case domain.DirectionIncome, domain.DirectionOutgo:
	default:
		return errs.Validationf("invalid direction: %s", cmd.Direction)
	}

	basis := cmd.Basis
	if basis == "" {
		basis = domain.BasisAccrual
	}

	txn := &domain.ActualTransaction{
		OrganizationID: cmd.OrganizationID,
		ProjectID:      cmd.ProjectID,
		Direction:      cmd.Direction,
		Amount:         cmd.Amount,
		OccurredAt:     cmd.OccurredAt,
		Basis:          basis,
		ExternalID:     cmd.ExternalID,
		ExternalType:   cmd.ExternalType,
	}
	if err := s.txnRepo.Upsert(ctx, txn); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "actual transaction recorded",
		"org_id", cmd.OrganizationID,
		"external_id", cmd.ExternalID,
	)
	return nil
}

// ListTransactions 查询流水
func (s *LedgerService) ListTransactions(ctx context.Context, q domain.Query) ([]domain.ActualTransaction, error) {
	return s.txnRepo.List(ctx, q)
}

type RecordSyncedCmd struct {
	OrganizationID uint
	ProjectID      uint
	Direction      domain.Direction
	Amount         decimal.Decimal
	OccurredAt     time.Time
	Basis          domain.Basis
	ExternalID     string
	ExternalType   string
}
