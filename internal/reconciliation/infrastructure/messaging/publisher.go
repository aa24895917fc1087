// Package messaging 对账完成事件发布，下游报表与告警订阅
package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// CompletedEvent 一轮对账结束后发布的摘要
type CompletedEvent struct {
	OrganizationID    uint   `json:"organization_id"`
	MatchedCount      int    `json:"matched_count"`
	UnmatchedForecast int    `json:"unmatched_forecast"`
	UnmatchedActual   int    `json:"unmatched_actual"`
	CompletedAt       string `json:"completed_at"`
}

type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{
		writer: writer,
		logger: logger.With("module", "reconciliation_publisher"),
	}
}

// Publish 发布对账完成事件。发布失败只记日志，不影响对账结果落库。
func (p *Publisher) Publish(ctx context.Context, event CompletedEvent) {
	if event.CompletedAt == "" {
		event.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode reconciliation event", "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.OrganizationID), 10)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish reconciliation event",
			"org_id", event.OrganizationID,
			"error", err,
		)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
