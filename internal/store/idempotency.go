package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/punchamoorthee/globalpay/internal/domain"
)

// Reserve inserts a PROCESSING row for key. The primary key on
// idempotency_keys decides the race: a conflicting insert is reported with
// the stored record instead of an error.
func (s *Store) Reserve(ctx context.Context, key, requestHash string) (domain.IdempotencyRecord, bool, error) {
	rec := domain.IdempotencyRecord{Key: key, RequestHash: requestHash, Status: domain.StatusProcessing}
	err := s.Db.QueryRow(ctx,
		"INSERT INTO idempotency_keys (key, request_hash, status) VALUES ($1, $2, $3) RETURNING created_at, updated_at",
		key, requestHash, domain.StatusProcessing,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err == nil {
		return rec, true, nil
	}
	if !isUniqueViolation(err) {
		return domain.IdempotencyRecord{}, false, fmt.Errorf("key reservation failed: %w", err)
	}

	existing, err := s.GetStatus(ctx, key)
	if err != nil {
		return domain.IdempotencyRecord{}, false, err
	}
	return existing, false, nil
}

// UpdateStatus moves PROCESSING to a terminal status. Re-applying the same
// terminal status is a no-op; any other change is refused.
func (s *Store) UpdateStatus(ctx context.Context, key string, status domain.Status) error {
	if !status.IsTerminal() {
		return domain.ErrInvalidStatusTransition
	}

	tag, err := s.Db.Exec(ctx,
		`UPDATE idempotency_keys SET status = $1, updated_at = now()
		 WHERE key = $2 AND status IN ($3, $1)`,
		status, key, domain.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("idempotency update failed: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := s.GetStatus(ctx, key); err != nil {
		return err
	}
	return domain.ErrInvalidStatusTransition
}

func (s *Store) GetStatus(ctx context.Context, key string) (domain.IdempotencyRecord, error) {
	var rec domain.IdempotencyRecord
	err := s.Db.QueryRow(ctx,
		"SELECT key, request_hash, status, created_at, updated_at FROM idempotency_keys WHERE key = $1", key,
	).Scan(&rec.Key, &rec.RequestHash, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
		}
		return domain.IdempotencyRecord{}, fmt.Errorf("idempotency query failed: %w", err)
	}
	return rec, nil
}
