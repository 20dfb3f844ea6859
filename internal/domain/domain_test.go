package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	all := []Status{StatusProcessing, StatusCompleted, StatusBadRequest, StatusFailed}

	for _, from := range all {
		for _, to := range all {
			want := to.IsTerminal() && (from == StatusProcessing || from == to)
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestStatus_Valid(t *testing.T) {
	if Status("DONE").Valid() {
		t.Error("unknown status reported valid")
	}
	if StatusProcessing.IsTerminal() {
		t.Error("PROCESSING must not be terminal")
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in      string
		want    Currency
		wantErr bool
	}{
		{in: "EUR", want: EUR},
		{in: " huf ", want: HUF},
		{in: "usd", want: USD},
		{in: "GBP", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCurrency(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedCurrency) {
					t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("expected %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}

func TestSupportedCurrencies_ReturnsCopy(t *testing.T) {
	list := SupportedCurrencies()
	list[0] = "XXX"
	if !SupportedCurrencies()[0].Valid() {
		t.Fatal("caller mutated the supported currency list")
	}
}

func TestMoney_Equal(t *testing.T) {
	a := NewMoney(decimal.RequireFromString("1.0"), EUR)
	if !a.Equal(NewMoney(decimal.NewFromInt(1), EUR)) {
		t.Error("1.0 EUR should equal 1 EUR")
	}
	if a.Equal(NewMoney(decimal.NewFromInt(1), USD)) {
		t.Error("amounts in different currencies must not be equal")
	}
}

func TestTransferRequest_Fingerprint(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	base := TransferRequest{FromAccountID: from, ToAccountID: to, Amount: decimal.RequireFromString("75"), Currency: EUR}

	same := base
	same.Amount = decimal.RequireFromString("75.00")
	if base.Fingerprint() != same.Fingerprint() {
		t.Error("numerically equal amounts should share a fingerprint")
	}

	for name, changed := range map[string]TransferRequest{
		"amount":    {FromAccountID: from, ToAccountID: to, Amount: decimal.RequireFromString("75.01"), Currency: EUR},
		"currency":  {FromAccountID: from, ToAccountID: to, Amount: decimal.RequireFromString("75"), Currency: USD},
		"direction": {FromAccountID: to, ToAccountID: from, Amount: decimal.RequireFromString("75"), Currency: EUR},
	} {
		if changed.Fingerprint() == base.Fingerprint() {
			t.Errorf("changing %s kept the fingerprint", name)
		}
	}
}

func TestRejection_Is(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("lookup: %w", AccountNotFound(id))

	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatal("wrapped account_not_found should match ErrAccountNotFound")
	}
	if errors.Is(err, ErrInsufficientFunds) {
		t.Fatal("rejections of different kinds must not match")
	}

	rej, ok := AsRejection(err)
	if !ok || rej.AccountID != id {
		t.Fatalf("expected rejection naming %s, got %v", id, rej)
	}
	if IsRejection(errors.New("io timeout")) {
		t.Fatal("plain errors are not rejections")
	}
}

func TestValidationResult_Mutation(t *testing.T) {
	v := ValidationResult{
		From:   Account{ID: uuid.New(), Currency: EUR},
		To:     Account{ID: uuid.New(), Currency: HUF},
		Debit:  NewMoney(decimal.NewFromInt(1), EUR),
		Credit: NewMoney(decimal.RequireFromString("379.08"), HUF),
	}
	req := NewMoney(decimal.NewFromInt(1), EUR)

	m := v.Mutation("k", req)
	if m.FromAccountID != v.From.ID || m.ToAccountID != v.To.ID || m.IdempotencyKey != "k" {
		t.Fatalf("unexpected mutation %+v", m)
	}
	if !m.Debit.Equal(v.Debit) || !m.Credit.Equal(v.Credit) || !m.Requested.Equal(req) {
		t.Fatalf("mutation amounts do not match validation result: %+v", m)
	}
}
