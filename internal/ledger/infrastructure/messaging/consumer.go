// Package messaging 消费同步管道发布的已物化交易记录。
// 记账系统协议本身在同步服务里，这里只接收结果。
package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/cashflow/internal/ledger/application"
	"github.com/wyfcoding/cashflow/internal/ledger/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

// SyncedTransaction 同步管道发布的消息格式
type SyncedTransaction struct {
	OrganizationID uint   `json:"organization_id"`
	ProjectID      uint   `json:"project_id,omitempty"`
	Direction      string `json:"direction"`
	Amount         string `json:"amount"`
	OccurredAt     string `json:"occurred_at"`
	Basis          string `json:"basis"`
	ExternalID     string `json:"external_id"`
	ExternalType   string `json:"external_type"`
}

// transactionRecorder 入账接口，由账本应用服务实现
type transactionRecorder interface {
	RecordSynced(ctx context.Context, cmd application.RecordSyncedCmd) error
}

type Consumer struct {
	reader       *kafka.Reader
	service      transactionRecorder
	logger       *slog.Logger
	retryBackoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, service *application.LedgerService, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return &Consumer{
		reader:       reader,
		service:      service,
		logger:       logger.With("module", "ledger_consumer"),
		retryBackoff: 5 * time.Second,
	}
}

// Run 循环消费直到 context 取消。格式错误的消息记录后跳过，
// 存储不可用时原地退避重试同一条消息，避免 FetchMessage 把偏移滑过去。
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.handleWithRetry(ctx, msg.Value); err != nil {
			// context 取消，消息未提交，重投给下一任消费者
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.ErrorContext(ctx, "failed to commit offset", "error", err)
		}
	}
}

// handleWithRetry 处理单条消息。存储故障按 retryBackoff 重试直到成功或
// context 取消；格式错误的消息记录后视为已处理。
func (c *Consumer) handleWithRetry(ctx context.Context, payload []byte) error {
	for {
		err := c.handle(ctx, payload)
		switch {
		case err == nil:
			return nil
		case errs.IsUpstream(err):
			c.logger.ErrorContext(ctx, "failed to store synced transaction, retrying", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryBackoff):
			}
		default:
			c.logger.WarnContext(ctx, "dropping malformed synced transaction", "error", err)
			return nil
		}
	}
}

func (c *Consumer) handle(ctx context.Context, payload []byte) error {
	var msg SyncedTransaction
	if err := json.Unmarshal(payload, &msg); err != nil {
		return errs.Validationf("invalid payload: %v", err)
	}

	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return errs.Validationf("invalid amount %q: %v", msg.Amount, err)
	}
	occurredAt, err := time.Parse("2006-01-02", msg.OccurredAt)
	if err != nil {
		return errs.Validationf("invalid occurred_at %q: %v", msg.OccurredAt, err)
	}

	return c.service.RecordSynced(ctx, application.RecordSyncedCmd{
		OrganizationID: msg.OrganizationID,
		ProjectID:      msg.ProjectID,
		Direction:      domain.Direction(msg.Direction),
		Amount:         amount,
		OccurredAt:     occurredAt,
		Basis:          domain.Basis(msg.Basis),
		ExternalID:     msg.ExternalID,
		ExternalType:   msg.ExternalType,
	})
}

// Close 关闭底层 reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
