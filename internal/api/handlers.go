package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/punchamoorthee/globalpay/internal/logger"
	"github.com/punchamoorthee/globalpay/internal/service"
	"github.com/shopspring/decimal"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "globalpay_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "globalpay_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "endpoint"})
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	transfers *service.TransferService
	accounts  *service.AccountService
	monitor   *service.MonitorService
	db        Pinger
}

// NewHandler wires the services. db may be nil when running on the memory store.
func NewHandler(transfers *service.TransferService, accounts *service.AccountService, monitor *service.MonitorService, db Pinger) *Handler {
	return &Handler{transfers: transfers, accounts: accounts, monitor: monitor, db: db}
}

// statusCodes maps the final state of an idempotency key to a response code.
var statusCodes = map[domain.Status]int{
	domain.StatusCompleted:  http.StatusCreated,
	domain.StatusProcessing: http.StatusConflict,
	domain.StatusBadRequest: http.StatusBadRequest,
	domain.StatusFailed:     http.StatusServiceUnavailable,
}

type transferBody struct {
	FromAccountID uuid.UUID       `json:"from_account_id"`
	ToAccountID   uuid.UUID       `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

type transferResponse struct {
	IdempotencyKey string                 `json:"idempotency_key"`
	Status         domain.Status          `json:"status"`
	Replayed       bool                   `json:"replayed"`
	Transfer       *domain.TransferRecord `json:"transfer,omitempty"`
	Reason         domain.RejectionKind   `json:"reason,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

type accountBody struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			logger.FromContext(r.Context()).Error().Err(err).Msg("health check failed")
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transfers"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = r.Header.Get("X-Idempotency-Key")
	}
	if strings.TrimSpace(key) == "" {
		h.fail(w, "POST", endpoint, http.StatusBadRequest, "Missing Idempotency-Key header")
		return
	}

	var body transferBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.fail(w, "POST", endpoint, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	req := domain.TransferRequest{
		FromAccountID: body.FromAccountID,
		ToAccountID:   body.ToAccountID,
		Amount:        body.Amount,
		Currency:      domain.Currency(strings.ToUpper(strings.TrimSpace(body.Currency))),
	}

	res, err := h.transfers.Handle(r.Context(), key, req)
	resp := transferResponse{
		IdempotencyKey: strings.TrimSpace(key),
		Status:         res.Status,
		Replayed:       res.Replayed,
		Transfer:       res.Transfer,
	}

	switch {
	case errors.Is(err, service.ErrIdempotencyMismatch):
		h.fail(w, "POST", endpoint, http.StatusUnprocessableEntity, "Key reuse with mismatched payload")
		return
	case err != nil && res.Status == "":
		logger.FromContext(r.Context()).Error().Err(err).Msg("transfer not accepted")
		h.fail(w, "POST", endpoint, http.StatusServiceUnavailable, "Service unavailable")
		return
	case err != nil:
		// Infrastructure details stay in the logs.
		logger.FromContext(r.Context()).Error().Err(err).Msg("transfer failed")
		resp.Error = "Transfer could not be completed"
	}

	if res.Rejection != nil {
		resp.Reason = res.Rejection.Kind
		resp.Error = res.Rejection.Error()
	}

	code := statusCodes[res.Status]
	if res.Transfer != nil {
		w.Header().Set("Location", "/api/v1/transfers/status/"+resp.IdempotencyKey)
	}
	h.respond(w, "POST", endpoint, code, resp)
}

func (h *Handler) GetTransferStatusHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transfers/status/{key}"
	rec, err := h.transfers.Status(r.Context(), strings.TrimSpace(mux.Vars(r)["key"]))
	if err != nil {
		if errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
			h.fail(w, "GET", endpoint, http.StatusNotFound, "Idempotency key not found")
			return
		}
		logger.FromContext(r.Context()).Error().Err(err).Msg("status lookup failed")
		h.fail(w, "GET", endpoint, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	h.respond(w, "GET", endpoint, http.StatusOK, rec)
}

func (h *Handler) ListTransfersHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transfers"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	page, err1 := queryInt(r, "page", 0)
	size, err2 := queryInt(r, "page_size", 20)
	if err1 != nil || err2 != nil {
		h.fail(w, "GET", endpoint, http.StatusBadRequest, "page and page_size must be integers")
		return
	}

	result, err := h.monitor.CompletedTransfers(r.Context(), page, size)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPage) {
			h.fail(w, "GET", endpoint, http.StatusBadRequest, err.Error())
			return
		}
		logger.FromContext(r.Context()).Error().Err(err).Msg("transfer listing failed")
		h.fail(w, "GET", endpoint, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	h.respond(w, "GET", endpoint, http.StatusOK, result)
}

func (h *Handler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/accounts"

	var body accountBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.fail(w, "POST", endpoint, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	currency, err := domain.ParseCurrency(body.Currency)
	if err != nil {
		h.fail(w, "POST", endpoint, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := h.accounts.Open(r.Context(), domain.NewMoney(body.Balance, currency))
	if err != nil {
		if errors.Is(err, service.ErrNegativeOpeningBalance) {
			h.fail(w, "POST", endpoint, http.StatusBadRequest, err.Error())
			return
		}
		logger.FromContext(r.Context()).Error().Err(err).Msg("account creation failed")
		h.fail(w, "POST", endpoint, http.StatusInternalServerError, "System error creating account")
		return
	}
	w.Header().Set("Location", "/api/v1/accounts/"+acc.ID.String())
	h.respond(w, "POST", endpoint, http.StatusCreated, acc)
}

func (h *Handler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/accounts/{id}"

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, "GET", endpoint, http.StatusBadRequest, "Invalid account id")
		return
	}

	acc, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			h.fail(w, "GET", endpoint, http.StatusNotFound, "Account not found")
			return
		}
		logger.FromContext(r.Context()).Error().Err(err).Msg("account lookup failed")
		h.fail(w, "GET", endpoint, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	h.respond(w, "GET", endpoint, http.StatusOK, acc)
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func (h *Handler) respond(w http.ResponseWriter, method, endpoint string, code int, payload interface{}) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	respondWithJSON(w, code, payload)
}

func (h *Handler) fail(w http.ResponseWriter, method, endpoint string, code int, message string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	respondWithError(w, code, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
