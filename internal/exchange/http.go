package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/shopspring/decimal"
)

// HTTPSource queries a remote rate API: GET {base}/rates?from=EUR&to=HUF
// answering {"rate":"379.08"}.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

type rateResponse struct {
	Rate decimal.Decimal `json:"rate"`
}

func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{baseURL: baseURL, client: client}
}

func (s *HTTPSource) Rate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("from", string(from))
	q.Set("to", string(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/rates?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return body.Rate, nil
}

var _ RateSource = (*HTTPSource)(nil)
