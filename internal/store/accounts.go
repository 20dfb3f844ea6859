package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) CreateAccount(ctx context.Context, balance domain.Money) (domain.Account, error) {
	acc := domain.Account{ID: uuid.New(), Balance: balance.Amount, Currency: balance.Currency}
	err := s.Db.QueryRow(ctx,
		"INSERT INTO accounts (id, balance, currency) VALUES ($1, $2, $3) RETURNING created_at",
		acc.ID, acc.Balance, acc.Currency,
	).Scan(&acc.CreatedAt)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account insert failed: %w", err)
	}
	return acc, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	var acc domain.Account
	err := s.Db.QueryRow(ctx,
		"SELECT id, balance, currency, created_at FROM accounts WHERE id = $1", id,
	).Scan(&acc.ID, &acc.Balance, &acc.Currency, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, domain.AccountNotFound(id)
		}
		return domain.Account{}, fmt.Errorf("account query failed: %w", err)
	}
	return acc, nil
}

type lockedAccount struct {
	balance  decimal.Decimal
	currency domain.Currency
}

// ApplyTransfer applies the mutation in one transaction. Both rows are locked
// in ascending id order, so concurrent transfers over the same pair cannot
// deadlock, and the sender balance is re-checked under the lock.
func (s *Store) ApplyTransfer(ctx context.Context, m domain.LedgerMutation) (domain.TransferRecord, error) {
	if m.FromAccountID == m.ToAccountID {
		return domain.TransferRecord{}, domain.ErrSameAccount
	}
	if m.Debit.Amount.IsNegative() || m.Credit.Amount.IsNegative() {
		return domain.TransferRecord{}, domain.ErrNegativeAmount
	}

	tx, err := s.Db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return domain.TransferRecord{}, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// Deterministic locking (deadlock prevention)
	first, second := m.FromAccountID, m.ToAccountID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	locked := make(map[uuid.UUID]lockedAccount, 2)
	for _, id := range []uuid.UUID{first, second} {
		var acc lockedAccount
		err := tx.QueryRow(ctx,
			"SELECT balance, currency FROM accounts WHERE id = $1 FOR UPDATE", id,
		).Scan(&acc.balance, &acc.currency)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.TransferRecord{}, domain.AccountNotFound(id)
			}
			return domain.TransferRecord{}, fmt.Errorf("lock acquisition failed: %w", err)
		}
		locked[id] = acc
	}

	from, to := locked[m.FromAccountID], locked[m.ToAccountID]
	if from.currency != m.Debit.Currency || to.currency != m.Credit.Currency {
		return domain.TransferRecord{}, domain.ErrCurrencyMismatch
	}
	if from.balance.LessThan(m.Debit.Amount) {
		return domain.TransferRecord{}, &domain.Rejection{Kind: domain.RejectInsufficientFunds, AccountID: m.FromAccountID}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE accounts SET balance = balance - $1 WHERE id = $2", m.Debit.Amount, m.FromAccountID,
	); err != nil {
		return domain.TransferRecord{}, fmt.Errorf("debit failed: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE accounts SET balance = balance + $1 WHERE id = $2", m.Credit.Amount, m.ToAccountID,
	); err != nil {
		return domain.TransferRecord{}, fmt.Errorf("credit failed: %w", err)
	}

	rec := domain.TransferRecord{
		ID:             uuid.New(),
		IdempotencyKey: m.IdempotencyKey,
		SenderID:       m.FromAccountID,
		RecipientID:    m.ToAccountID,
		Amount:         m.Requested.Amount,
		Currency:       m.Requested.Currency,
		Status:         domain.StatusCompleted,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO transfers (id, idempotency_key, sender_id, recipient_id, amount, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING seq, created_at`,
		rec.ID, rec.IdempotencyKey, rec.SenderID, rec.RecipientID, rec.Amount, rec.Currency, rec.Status,
	).Scan(&rec.Seq, &rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.TransferRecord{}, domain.ErrDuplicateTransfer
		}
		return domain.TransferRecord{}, fmt.Errorf("transfer insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.TransferRecord{}, fmt.Errorf("tx commit failed: %w", err)
	}
	return rec, nil
}
