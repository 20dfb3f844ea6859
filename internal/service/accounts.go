package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/punchamoorthee/globalpay/internal/domain"
)

var ErrNegativeOpeningBalance = errors.New("opening balance must not be negative")

type AccountService struct {
	ledger AccountLedger
}

func NewAccountService(ledger AccountLedger) *AccountService {
	return &AccountService{ledger: ledger}
}

func (s *AccountService) Open(ctx context.Context, balance domain.Money) (domain.Account, error) {
	if !balance.Currency.Valid() {
		return domain.Account{}, &domain.Rejection{Kind: domain.RejectUnsupportedCurrency, Detail: string(balance.Currency)}
	}
	if balance.Amount.IsNegative() {
		return domain.Account{}, ErrNegativeOpeningBalance
	}
	return s.ledger.CreateAccount(ctx, balance)
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return s.ledger.GetAccount(ctx, id)
}
