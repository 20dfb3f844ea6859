// Package memory holds in-process implementations of the ledger stores.
// Data is lost on restart; use the postgres store for durability.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/shopspring/decimal"
)

type accountSlot struct {
	mu  sync.Mutex
	acc domain.Account
}

// AccountStore keeps balances and transfer records in memory. Every account
// has its own mutex; multi-account operations lock in ascending id order.
type AccountStore struct {
	mapMu    sync.RWMutex // protects the accounts map itself
	accounts map[uuid.UUID]*accountSlot

	trMu      sync.RWMutex
	transfers []domain.TransferRecord
	byKey     map[string]int

	now func() time.Time
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[uuid.UUID]*accountSlot),
		byKey:    make(map[string]int),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *AccountStore) CreateAccount(ctx context.Context, balance domain.Money) (domain.Account, error) {
	acc := domain.Account{
		ID:        uuid.New(),
		Balance:   balance.Amount,
		Currency:  balance.Currency,
		CreatedAt: s.now(),
	}

	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	s.accounts[acc.ID] = &accountSlot{acc: acc}
	return acc, nil
}

func (s *AccountStore) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	slots, unlock, err := s.lock(id)
	if err != nil {
		return domain.Account{}, err
	}
	defer unlock()
	return slots[id].acc, nil
}

// ApplyTransfer debits and credits both accounts and records the transfer,
// all while holding both account locks.
func (s *AccountStore) ApplyTransfer(ctx context.Context, m domain.LedgerMutation) (domain.TransferRecord, error) {
	if m.FromAccountID == m.ToAccountID {
		return domain.TransferRecord{}, domain.ErrSameAccount
	}
	if m.Debit.Amount.IsNegative() || m.Credit.Amount.IsNegative() {
		return domain.TransferRecord{}, domain.ErrNegativeAmount
	}

	slots, unlock, err := s.lock(m.FromAccountID, m.ToAccountID)
	if err != nil {
		return domain.TransferRecord{}, err
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.TransferRecord{}, err
	}

	from, to := slots[m.FromAccountID], slots[m.ToAccountID]
	if from.acc.Currency != m.Debit.Currency || to.acc.Currency != m.Credit.Currency {
		return domain.TransferRecord{}, domain.ErrCurrencyMismatch
	}

	newFrom := from.acc.Balance.Sub(m.Debit.Amount)
	if newFrom.IsNegative() {
		return domain.TransferRecord{}, &domain.Rejection{Kind: domain.RejectInsufficientFunds, AccountID: from.acc.ID}
	}
	newTo := to.acc.Balance.Add(m.Credit.Amount)

	s.trMu.Lock()
	defer s.trMu.Unlock()

	if _, dup := s.byKey[m.IdempotencyKey]; dup {
		return domain.TransferRecord{}, domain.ErrDuplicateTransfer
	}

	rec := domain.TransferRecord{
		ID:             uuid.New(),
		Seq:            int64(len(s.transfers) + 1),
		IdempotencyKey: m.IdempotencyKey,
		SenderID:       m.FromAccountID,
		RecipientID:    m.ToAccountID,
		Amount:         m.Requested.Amount,
		Currency:       m.Requested.Currency,
		Status:         domain.StatusCompleted,
		CreatedAt:      s.now(),
	}

	// Nothing below can fail: balances and the record commit together.
	from.acc.Balance = newFrom
	to.acc.Balance = newTo
	s.byKey[rec.IdempotencyKey] = len(s.transfers)
	s.transfers = append(s.transfers, rec)

	return rec, nil
}

// ListTransfers returns records in insertion order.
func (s *AccountStore) ListTransfers(ctx context.Context, offset, limit int) ([]domain.TransferRecord, int64, error) {
	s.trMu.RLock()
	defer s.trMu.RUnlock()

	total := int64(len(s.transfers))
	if offset >= len(s.transfers) {
		return []domain.TransferRecord{}, total, nil
	}
	end := offset + limit
	if end > len(s.transfers) {
		end = len(s.transfers)
	}

	out := make([]domain.TransferRecord, end-offset)
	copy(out, s.transfers[offset:end])
	return out, total, nil
}

// TotalIn sums every balance converted with rate(currency) into one reference
// currency, under a snapshot of all accounts.
func (s *AccountStore) TotalIn(rate func(domain.Currency) decimal.Decimal) decimal.Decimal {
	s.mapMu.RLock()
	ids := make([]uuid.UUID, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	s.mapMu.RUnlock()

	slots, unlock, err := s.lock(ids...)
	if err != nil {
		return decimal.Zero
	}
	defer unlock()

	total := decimal.Zero
	for _, slot := range slots {
		total = total.Add(slot.acc.Balance.Mul(rate(slot.acc.Currency)))
	}
	return total
}

// lock acquires the mutexes of the given accounts in ascending id order.
func (s *AccountStore) lock(ids ...uuid.UUID) (map[uuid.UUID]*accountSlot, func(), error) {
	slots := make(map[uuid.UUID]*accountSlot, len(ids))

	s.mapMu.RLock()
	for _, id := range ids {
		slot, ok := s.accounts[id]
		if !ok {
			s.mapMu.RUnlock()
			return nil, nil, domain.AccountNotFound(id)
		}
		slots[id] = slot
	}
	s.mapMu.RUnlock()

	ordered := make([]uuid.UUID, 0, len(slots))
	for id := range slots {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	for _, id := range ordered {
		slots[id].mu.Lock()
	}
	unlock := func() {
		for i := len(ordered) - 1; i >= 0; i-- {
			slots[ordered[i]].mu.Unlock()
		}
	}
	return slots, unlock, nil
}
