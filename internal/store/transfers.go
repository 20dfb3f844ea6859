package store

import (
	"context"
	"fmt"

	"github.com/punchamoorthee/globalpay/internal/domain"
)

// ListTransfers pages through completed transfers in insertion order.
func (s *Store) ListTransfers(ctx context.Context, offset, limit int) ([]domain.TransferRecord, int64, error) {
	var total int64
	if err := s.Db.QueryRow(ctx, "SELECT COUNT(*) FROM transfers").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("transfer count failed: %w", err)
	}

	rows, err := s.Db.Query(ctx,
		`SELECT id, seq, idempotency_key, sender_id, recipient_id, amount, currency, status, created_at
		 FROM transfers ORDER BY seq LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("transfer query failed: %w", err)
	}
	defer rows.Close()

	transfers := []domain.TransferRecord{}
	for rows.Next() {
		var t domain.TransferRecord
		if err := rows.Scan(&t.ID, &t.Seq, &t.IdempotencyKey, &t.SenderID, &t.RecipientID,
			&t.Amount, &t.Currency, &t.Status, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("transfer scan failed: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("transfer rows failed: %w", err)
	}
	return transfers, total, nil
}
