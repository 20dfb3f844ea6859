package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/punchamoorthee/globalpay/internal/service"
	"github.com/shopspring/decimal"
)

type stubAccounts map[uuid.UUID]domain.Account

func (s stubAccounts) GetAccount(_ context.Context, id uuid.UUID) (domain.Account, error) {
	acc, ok := s[id]
	if !ok {
		return domain.Account{}, domain.AccountNotFound(id)
	}
	return acc, nil
}

// stubRates multiplies by a fixed rate per target currency.
type stubRates struct {
	rates map[domain.Currency]decimal.Decimal
	err   error
	calls int
}

func (s *stubRates) Convert(_ context.Context, m domain.Money, to domain.Currency) (domain.Money, error) {
	s.calls++
	if s.err != nil {
		return domain.Money{}, s.err
	}
	if m.Currency == to {
		return m, nil
	}
	return domain.NewMoney(m.Amount.Mul(s.rates[to]), to), nil
}

func TestValidator_Validate(t *testing.T) {
	eurAcc := domain.Account{ID: uuid.New(), Balance: decimal.NewFromInt(100), Currency: domain.EUR}
	hufAcc := domain.Account{ID: uuid.New(), Balance: decimal.NewFromInt(50), Currency: domain.HUF}
	poorAcc := domain.Account{ID: uuid.New(), Balance: decimal.NewFromInt(5), Currency: domain.EUR}
	accounts := stubAccounts{eurAcc.ID: eurAcc, hufAcc.ID: hufAcc, poorAcc.ID: poorAcc}
	missing := uuid.New()

	tests := []struct {
		name       string
		req        domain.TransferRequest
		wantKind   domain.RejectionKind
		wantDebit  string
		wantCredit string
	}{
		{
			name:       "credit converted to recipient currency",
			req:        domain.TransferRequest{FromAccountID: eurAcc.ID, ToAccountID: hufAcc.ID, Amount: decimal.NewFromInt(10), Currency: domain.EUR},
			wantDebit:  "10",
			wantCredit: "4000",
		},
		{
			name:       "zero amount",
			req:        domain.TransferRequest{FromAccountID: eurAcc.ID, ToAccountID: hufAcc.ID, Amount: decimal.Zero, Currency: domain.EUR},
			wantDebit:  "0",
			wantCredit: "0",
		},
		{
			name:       "whole balance",
			req:        domain.TransferRequest{FromAccountID: poorAcc.ID, ToAccountID: eurAcc.ID, Amount: decimal.NewFromInt(5), Currency: domain.EUR},
			wantDebit:  "5",
			wantCredit: "5",
		},
		{
			name:     "negative amount",
			req:      domain.TransferRequest{FromAccountID: eurAcc.ID, ToAccountID: hufAcc.ID, Amount: decimal.NewFromInt(-1), Currency: domain.EUR},
			wantKind: domain.RejectNegativeAmount,
		},
		{
			name:     "unsupported currency",
			req:      domain.TransferRequest{FromAccountID: eurAcc.ID, ToAccountID: hufAcc.ID, Amount: decimal.NewFromInt(1), Currency: "GBP"},
			wantKind: domain.RejectUnsupportedCurrency,
		},
		{
			name:     "same account",
			req:      domain.TransferRequest{FromAccountID: eurAcc.ID, ToAccountID: eurAcc.ID, Amount: decimal.NewFromInt(1), Currency: domain.EUR},
			wantKind: domain.RejectSameAccount,
		},
		{
			name:     "unknown sender",
			req:      domain.TransferRequest{FromAccountID: missing, ToAccountID: eurAcc.ID, Amount: decimal.NewFromInt(1), Currency: domain.EUR},
			wantKind: domain.RejectAccountNotFound,
		},
		{
			name:     "unknown recipient",
			req:      domain.TransferRequest{FromAccountID: eurAcc.ID, ToAccountID: missing, Amount: decimal.NewFromInt(1), Currency: domain.EUR},
			wantKind: domain.RejectAccountNotFound,
		},
		{
			name:     "insufficient funds after conversion",
			req:      domain.TransferRequest{FromAccountID: hufAcc.ID, ToAccountID: eurAcc.ID, Amount: decimal.NewFromInt(1), Currency: domain.EUR},
			wantKind: domain.RejectInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := &stubRates{rates: map[domain.Currency]decimal.Decimal{domain.HUF: decimal.NewFromInt(400)}}
			v := service.NewValidator(accounts, rates)

			got, err := v.Validate(context.Background(), tt.req)

			if tt.wantKind != "" {
				rej, ok := domain.AsRejection(err)
				if !ok {
					t.Fatalf("expected rejection %s, got %v", tt.wantKind, err)
				}
				if rej.Kind != tt.wantKind {
					t.Fatalf("expected rejection %s, got %s", tt.wantKind, rej.Kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Debit.Amount.Equal(decimal.RequireFromString(tt.wantDebit)) || got.Debit.Currency != got.From.Currency {
				t.Errorf("debit: expected %s %s, got %s", tt.wantDebit, got.From.Currency, got.Debit)
			}
			if !got.Credit.Amount.Equal(decimal.RequireFromString(tt.wantCredit)) || got.Credit.Currency != got.To.Currency {
				t.Errorf("credit: expected %s %s, got %s", tt.wantCredit, got.To.Currency, got.Credit)
			}
		})
	}
}

func TestValidator_RejectsBeforeRateLookup(t *testing.T) {
	rates := &stubRates{}
	v := service.NewValidator(stubAccounts{}, rates)

	_, err := v.Validate(context.Background(), domain.TransferRequest{
		FromAccountID: uuid.New(),
		ToAccountID:   uuid.New(),
		Amount:        decimal.NewFromInt(-10),
		Currency:      domain.USD,
	})
	if !errors.Is(err, domain.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if rates.calls != 0 {
		t.Fatalf("expected no rate lookups, got %d", rates.calls)
	}
}

func TestValidator_ConversionFailureIsNotRejection(t *testing.T) {
	from := domain.Account{ID: uuid.New(), Balance: decimal.NewFromInt(100), Currency: domain.EUR}
	to := domain.Account{ID: uuid.New(), Currency: domain.USD}
	boom := errors.New("rate source down")
	v := service.NewValidator(stubAccounts{from.ID: from, to.ID: to}, &stubRates{err: boom})

	_, err := v.Validate(context.Background(), domain.TransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.NewFromInt(1),
		Currency:      domain.EUR,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped rate error, got %v", err)
	}
	if domain.IsRejection(err) {
		t.Fatalf("rate failure must not be classified as a rejection")
	}
}
