package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/punchamoorthee/globalpay/internal/events"
)

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks github.com/punchamoorthee/globalpay/internal/service AccountLedger,IdempotencyStore,Converter,EventPublisher

// AccountReader looks up committed account snapshots.
type AccountReader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error)
}

// AccountLedger is the only writer of account balances.
type AccountLedger interface {
	AccountReader
	CreateAccount(ctx context.Context, balance domain.Money) (domain.Account, error)
	ApplyTransfer(ctx context.Context, m domain.LedgerMutation) (domain.TransferRecord, error)
}

// IdempotencyStore keeps one record per key. Reserve must detect a
// conflicting key in the same operation that inserts it.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, requestHash string) (domain.IdempotencyRecord, bool, error)
	UpdateStatus(ctx context.Context, key string, status domain.Status) error
	GetStatus(ctx context.Context, key string) (domain.IdempotencyRecord, error)
}

type TransferLister interface {
	ListTransfers(ctx context.Context, offset, limit int) ([]domain.TransferRecord, int64, error)
}

type Converter interface {
	Convert(ctx context.Context, money domain.Money, to domain.Currency) (domain.Money, error)
}

type EventPublisher interface {
	PublishTransferCompleted(ctx context.Context, event events.TransferCompleted) error
}
