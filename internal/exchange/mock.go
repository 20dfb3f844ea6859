package exchange

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/shopspring/decimal"
)

// Pivot is the currency every mock rate is quoted against.
const Pivot = domain.HUF

// DefaultPivotRates is HUF per unit of each currency.
func DefaultPivotRates() map[domain.Currency]decimal.Decimal {
	return map[domain.Currency]decimal.Decimal{
		domain.HUF: decimal.NewFromInt(1),
		domain.EUR: decimal.RequireFromString("379.08"),
		domain.USD: decimal.RequireFromString("322.13"),
	}
}

// MockSource simulates a slow, flaky remote rate API backed by a pivot table.
type MockSource struct {
	mu          sync.Mutex
	toPivot     map[domain.Currency]decimal.Decimal
	latency     time.Duration
	failureRate float64
	rnd         *rand.Rand
	calls       int
}

type MockOption func(*MockSource)

func WithLatency(d time.Duration) MockOption {
	return func(m *MockSource) { m.latency = d }
}

// WithFailureRate sets the probability in [0,1] that a lookup fails.
func WithFailureRate(p float64) MockOption {
	return func(m *MockSource) { m.failureRate = p }
}

func WithRand(r *rand.Rand) MockOption {
	return func(m *MockSource) { m.rnd = r }
}

func WithPivotRates(rates map[domain.Currency]decimal.Decimal) MockOption {
	return func(m *MockSource) {
		m.toPivot = make(map[domain.Currency]decimal.Decimal, len(rates))
		for c, r := range rates {
			m.toPivot[c] = r
		}
	}
}

func NewMockSource(opts ...MockOption) *MockSource {
	m := &MockSource{
		toPivot:     DefaultPivotRates(),
		latency:     500 * time.Millisecond,
		failureRate: 0.1,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetRate changes the pivot rate of a currency. Lookups already in flight
// may observe either value.
func (m *MockSource) SetRate(c domain.Currency, toPivot decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toPivot[c] = toPivot
}

// Calls returns how many lookups reached the source.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockSource) Rate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	m.mu.Lock()
	m.calls++
	latency := m.latency
	fail := m.failureRate > 0 && m.rnd.Float64() < m.failureRate
	m.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return decimal.Zero, ctx.Err()
		case <-t.C:
		}
	}

	if fail {
		return decimal.Zero, ErrUnavailable
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	m.mu.Lock()
	fromRate, okFrom := m.toPivot[from]
	toRate, okTo := m.toPivot[to]
	m.mu.Unlock()

	if !okFrom {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownRate, from)
	}
	if !okTo {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownRate, to)
	}
	return CrossRate(fromRate, toRate), nil
}

var _ RateSource = (*MockSource)(nil)
