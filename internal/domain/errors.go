package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RejectionKind classifies client-attributable transfer errors.
type RejectionKind string

const (
	RejectNegativeAmount      RejectionKind = "negative_amount"
	RejectAccountNotFound     RejectionKind = "account_not_found"
	RejectInsufficientFunds   RejectionKind = "insufficient_funds"
	RejectSameAccount         RejectionKind = "same_account"
	RejectUnsupportedCurrency RejectionKind = "unsupported_currency"
)

// Rejection is returned when a transfer request can never succeed as submitted.
// Any other error seen by the orchestrator is an infrastructure failure.
type Rejection struct {
	Kind      RejectionKind
	AccountID uuid.UUID
	Detail    string
}

func (r *Rejection) Error() string {
	switch r.Kind {
	case RejectAccountNotFound:
		return fmt.Sprintf("transfer rejected: account %s does not exist", r.AccountID)
	case RejectUnsupportedCurrency:
		return fmt.Sprintf("transfer rejected: unsupported currency %q", r.Detail)
	default:
		return "transfer rejected: " + string(r.Kind)
	}
}

// Is matches rejections by kind so callers can use errors.Is with the
// ErrX values below.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Kind == r.Kind
}

var (
	ErrNegativeAmount      = &Rejection{Kind: RejectNegativeAmount}
	ErrAccountNotFound     = &Rejection{Kind: RejectAccountNotFound}
	ErrInsufficientFunds   = &Rejection{Kind: RejectInsufficientFunds}
	ErrSameAccount         = &Rejection{Kind: RejectSameAccount}
	ErrUnsupportedCurrency = &Rejection{Kind: RejectUnsupportedCurrency}
)

func AccountNotFound(id uuid.UUID) error {
	return &Rejection{Kind: RejectAccountNotFound, AccountID: id}
}

// AsRejection unwraps err into a Rejection if it carries one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

func IsRejection(err error) bool {
	_, ok := AsRejection(err)
	return ok
}

var (
	ErrIdempotencyKeyNotFound  = errors.New("idempotency: key not found")
	ErrInvalidStatusTransition = errors.New("idempotency: invalid status transition")
	ErrDuplicateTransfer       = errors.New("ledger: transfer already recorded for idempotency key")
	ErrCurrencyMismatch        = errors.New("ledger: amount currency does not match account currency")
)
