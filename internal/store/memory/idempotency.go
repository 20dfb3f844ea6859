package memory

import (
	"context"
	"sync"
	"time"

	"github.com/punchamoorthee/globalpay/internal/domain"
)

// IdempotencyStore enforces one record per key under a single mutex, which
// plays the role of the unique index.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]domain.IdempotencyRecord
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: make(map[string]domain.IdempotencyRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Reserve inserts a PROCESSING record or reports the existing one.
func (s *IdempotencyStore) Reserve(ctx context.Context, key, requestHash string) (domain.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok {
		return existing, false, nil
	}

	now := s.now()
	rec := domain.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.records[key] = rec
	return rec, true, nil
}

func (s *IdempotencyStore) UpdateStatus(ctx context.Context, key string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return domain.ErrIdempotencyKeyNotFound
	}
	if !rec.Status.CanTransitionTo(status) {
		return domain.ErrInvalidStatusTransition
	}
	if rec.Status == status {
		return nil
	}

	rec.Status = status
	rec.UpdatedAt = s.now()
	s.records[key] = rec
	return nil
}

func (s *IdempotencyStore) GetStatus(ctx context.Context, key string) (domain.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	}
	return rec, nil
}
