package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 code supported by the ledger.
type Currency string

const (
	EUR Currency = "EUR"
	HUF Currency = "HUF"
	USD Currency = "USD"
)

var supportedCurrencies = []Currency{EUR, HUF, USD}

// SupportedCurrencies returns the currencies accounts may be denominated in.
func SupportedCurrencies() []Currency {
	out := make([]Currency, len(supportedCurrencies))
	copy(out, supportedCurrencies)
	return out
}

func (c Currency) Valid() bool {
	for _, s := range supportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

// ParseCurrency normalises and validates a client supplied code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", &Rejection{Kind: RejectUnsupportedCurrency, Detail: s}
	}
	return c, nil
}

// Money is an immutable amount in a given currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// Equal compares numerically, so 1.0 EUR equals 1 EUR.
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

func (m Money) String() string {
	return m.Amount.String() + " " + string(m.Currency)
}

// Account is a committed snapshot of a ledger account.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  Currency        `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransferRequest is the DTO for incoming transfer requests.
type TransferRequest struct {
	FromAccountID uuid.UUID       `json:"from_account_id"`
	ToAccountID   uuid.UUID       `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
}

func (r TransferRequest) Money() Money { return NewMoney(r.Amount, r.Currency) }

// Fingerprint hashes the canonical form of the request. Numerically equal
// amounts ("75" and "75.00") produce the same fingerprint.
func (r TransferRequest) Fingerprint() string {
	payload := fmt.Sprintf("%s|%s|%s|%s",
		r.FromAccountID, r.ToAccountID, r.Amount.String(),
		strings.ToUpper(strings.TrimSpace(string(r.Currency))))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// IdempotencyRecord holds the state of a request key.
type IdempotencyRecord struct {
	Key         string    `json:"idempotency_key"`
	RequestHash string    `json:"-"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TransferRecord is the audit row written together with the balance mutation.
// Amount and Currency are those of the client request, not the converted legs.
type TransferRecord struct {
	ID             uuid.UUID       `json:"id"`
	Seq            int64           `json:"-"`
	IdempotencyKey string          `json:"idempotency_key"`
	SenderID       uuid.UUID       `json:"sender_id"`
	RecipientID    uuid.UUID       `json:"recipient_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       Currency        `json:"currency"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TransferPage is one page of completed transfers in insertion order.
type TransferPage struct {
	Items    []TransferRecord `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int64            `json:"total"`
}

// ValidationResult carries the exact amounts to move, each in its account's currency.
type ValidationResult struct {
	From   Account
	To     Account
	Debit  Money
	Credit Money
}

// LedgerMutation is the delta applied atomically by the account ledger.
type LedgerMutation struct {
	IdempotencyKey string
	FromAccountID  uuid.UUID
	ToAccountID    uuid.UUID
	Debit          Money
	Credit         Money
	Requested      Money
}

func (v ValidationResult) Mutation(key string, requested Money) LedgerMutation {
	return LedgerMutation{
		IdempotencyKey: key,
		FromAccountID:  v.From.ID,
		ToAccountID:    v.To.ID,
		Debit:          v.Debit,
		Credit:         v.Credit,
		Requested:      requested,
	}
}
