// Package events defines the messages emitted after a transfer commits.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/shopspring/decimal"
)

const TopicTransferCompleted = "transfer_completed"

type TransferCompleted struct {
	TransferID     uuid.UUID       `json:"transfer_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	SenderID       uuid.UUID       `json:"sender_id"`
	RecipientID    uuid.UUID       `json:"recipient_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       domain.Currency `json:"currency"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func NewTransferCompleted(rec domain.TransferRecord) TransferCompleted {
	return TransferCompleted{
		TransferID:     rec.ID,
		IdempotencyKey: rec.IdempotencyKey,
		SenderID:       rec.SenderID,
		RecipientID:    rec.RecipientID,
		Amount:         rec.Amount,
		Currency:       rec.Currency,
		OccurredAt:     rec.CreatedAt,
	}
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTransferCompleted(ctx context.Context, event TransferCompleted) error {
	return nil
}
