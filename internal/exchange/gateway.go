// Package exchange converts money between currencies using a remote rate source.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/shopspring/decimal"
)

// RatePrecision is the number of fractional digits kept for cross rates.
const RatePrecision = 10

var (
	ErrUnavailable = errors.New("exchange: rate source unavailable")
	ErrTimeout     = errors.New("exchange: rate lookup timed out")
	ErrUnknownRate = errors.New("exchange: no rate for currency")
)

var (
	rateRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "globalpay_exchange_rate_requests_total",
		Help: "Rate lookups sent to the rate source, labeled by result",
	}, []string{"result"})

	rateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "globalpay_exchange_rate_duration_seconds",
		Help:    "Latency of rate source lookups",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// RateSource returns how many units of `to` one unit of `from` buys.
type RateSource interface {
	Rate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error)
}

// Gateway wraps a RateSource with the identity shortcut and a per-call timeout.
type Gateway struct {
	source  RateSource
	timeout time.Duration
}

func NewGateway(source RateSource, timeout time.Duration) *Gateway {
	return &Gateway{source: source, timeout: timeout}
}

// Rate returns exactly 1 for identical currencies without contacting the source.
func (g *Gateway) Rate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	timer := prometheus.NewTimer(rateLatency)
	rate, err := g.source.Rate(ctx, from, to)
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			rateRequestsTotal.WithLabelValues("timeout").Inc()
			return decimal.Zero, fmt.Errorf("%w: %s->%s", ErrTimeout, from, to)
		}
		rateRequestsTotal.WithLabelValues("error").Inc()
		return decimal.Zero, fmt.Errorf("rate %s->%s: %w", from, to, err)
	}
	if !rate.IsPositive() {
		rateRequestsTotal.WithLabelValues("error").Inc()
		return decimal.Zero, fmt.Errorf("rate %s->%s: non-positive rate %s: %w", from, to, rate, ErrUnavailable)
	}

	rateRequestsTotal.WithLabelValues("ok").Inc()
	return rate, nil
}

// Convert expresses money in another currency. Converting into the same
// currency returns the input unchanged.
func (g *Gateway) Convert(ctx context.Context, money domain.Money, to domain.Currency) (domain.Money, error) {
	if money.Currency == to {
		return money, nil
	}
	rate, err := g.Rate(ctx, money.Currency, to)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.NewMoney(money.Amount.Mul(rate), to), nil
}

// CrossRate derives from/to through a pivot currency, rounded half-up.
func CrossRate(fromToPivot, toToPivot decimal.Decimal) decimal.Decimal {
	return fromToPivot.DivRound(toToPivot, RatePrecision)
}
