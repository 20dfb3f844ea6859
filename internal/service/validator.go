package service

import (
	"context"
	"fmt"

	"github.com/punchamoorthee/globalpay/internal/domain"
)

// Validator decides whether a transfer may proceed and computes the exact
// amounts to move. It never mutates state.
type Validator struct {
	accounts AccountReader
	rates    Converter
}

func NewValidator(accounts AccountReader, rates Converter) *Validator {
	return &Validator{accounts: accounts, rates: rates}
}

// Validate returns a *domain.Rejection for client errors. Lookup and rate
// failures are returned wrapped and must be treated as infrastructure errors.
//
// Debit and credit come from two separate rate lookups. If the rate table
// changes between them the legs are not priced at the same rate.
func (v *Validator) Validate(ctx context.Context, req domain.TransferRequest) (domain.ValidationResult, error) {
	if req.Amount.IsNegative() {
		return domain.ValidationResult{}, domain.ErrNegativeAmount
	}
	if !req.Currency.Valid() {
		return domain.ValidationResult{}, &domain.Rejection{Kind: domain.RejectUnsupportedCurrency, Detail: string(req.Currency)}
	}
	if req.FromAccountID == req.ToAccountID {
		return domain.ValidationResult{}, domain.ErrSameAccount
	}

	from, err := v.accounts.GetAccount(ctx, req.FromAccountID)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	to, err := v.accounts.GetAccount(ctx, req.ToAccountID)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	money := req.Money()

	debit, err := v.rates.Convert(ctx, money, from.Currency)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("convert debit leg: %w", err)
	}
	if debit.Amount.GreaterThan(from.Balance) {
		return domain.ValidationResult{}, &domain.Rejection{Kind: domain.RejectInsufficientFunds, AccountID: from.ID}
	}

	credit, err := v.rates.Convert(ctx, money, to.Currency)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("convert credit leg: %w", err)
	}

	return domain.ValidationResult{From: from, To: to, Debit: debit, Credit: credit}, nil
}
