package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/punchamoorthee/globalpay/internal/events"
	"github.com/punchamoorthee/globalpay/internal/logger"
	"github.com/rs/zerolog"
)

var (
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrIdempotencyMismatch   = errors.New("key reuse with mismatched payload")
)

var (
	transferOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "globalpay_transfer_outcomes_total",
		Help: "Transfer requests by final status, labeled by whether business logic ran",
	}, []string{"status", "replay"})

	finalizeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "globalpay_idempotency_finalize_failures_total",
		Help: "Idempotency keys that could not be moved out of PROCESSING",
	})
)

const (
	finalizeAttempts = 3
	finalizeTimeout  = 5 * time.Second
	publishTimeout   = 5 * time.Second
)

// Result is what the caller learns about an idempotency key.
type Result struct {
	Status    domain.Status
	Replayed  bool
	Transfer  *domain.TransferRecord
	Rejection *domain.Rejection
}

// TransferService runs the idempotent transfer protocol: reserve the key,
// validate, apply, then finalize the key.
type TransferService struct {
	idem      IdempotencyStore
	ledger    AccountLedger
	validator *Validator
	publisher EventPublisher
	log       zerolog.Logger
}

func NewTransferService(idem IdempotencyStore, ledger AccountLedger, rates Converter, publisher EventPublisher, log zerolog.Logger) *TransferService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TransferService{
		idem:      idem,
		ledger:    ledger,
		validator: NewValidator(ledger, rates),
		publisher: publisher,
		log:       log,
	}
}

// Handle executes the transfer at most once per key. A key seen before
// returns its stored status without running any business logic, PROCESSING
// included. Infrastructure failures finalize the key as FAILED and are
// returned alongside that status.
func (s *TransferService) Handle(ctx context.Context, key string, req domain.TransferRequest) (Result, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Result{}, ErrMissingIdempotencyKey
	}

	log := logger.FromContextOr(ctx, s.log).With().
		Str("idempotency_key", key).
		Str("from", req.FromAccountID.String()).
		Str("to", req.ToAccountID.String()).
		Str("amount", req.Amount.String()).
		Str("currency", string(req.Currency)).
		Logger()

	hash := req.Fingerprint()
	existing, reserved, err := s.idem.Reserve(ctx, key, hash)
	if err != nil {
		log.Error().Err(err).Msg("idempotency reservation failed")
		return Result{}, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if !reserved {
		if existing.RequestHash != "" && existing.RequestHash != hash {
			log.Warn().Str("status", string(existing.Status)).Msg("idempotency key reused with a different payload")
			return Result{Status: existing.Status, Replayed: true}, ErrIdempotencyMismatch
		}
		transferOutcomes.WithLabelValues(string(existing.Status), "true").Inc()
		log.Debug().Str("status", string(existing.Status)).Msg("idempotent replay")
		return Result{Status: existing.Status, Replayed: true}, nil
	}

	rec, err := s.execute(ctx, key, req)

	var res Result
	switch rejection, rejected := domain.AsRejection(err); {
	case err == nil:
		res = Result{Status: domain.StatusCompleted, Transfer: &rec}
	case rejected:
		res = Result{Status: domain.StatusBadRequest, Rejection: rejection}
		err = nil
	default:
		res = Result{Status: domain.StatusFailed}
	}

	s.finalize(ctx, log, key, res.Status)
	transferOutcomes.WithLabelValues(string(res.Status), "false").Inc()

	switch res.Status {
	case domain.StatusCompleted:
		log.Info().Str("transfer_id", rec.ID.String()).Msg("transfer completed")
		s.publish(ctx, log, rec)
		return res, nil
	case domain.StatusBadRequest:
		log.Info().Str("reason", string(res.Rejection.Kind)).Msg("transfer rejected")
		return res, nil
	default:
		log.Error().Err(err).Msg("transfer failed")
		return res, fmt.Errorf("transfer %s: %w", key, err)
	}
}

// Status reports the stored state of a key, normalised the same way Handle
// stores it.
func (s *TransferService) Status(ctx context.Context, key string) (domain.IdempotencyRecord, error) {
	return s.idem.GetStatus(ctx, strings.TrimSpace(key))
}

// execute validates before touching the ledger so no account lock is held
// while waiting on the rate source.
func (s *TransferService) execute(ctx context.Context, key string, req domain.TransferRequest) (domain.TransferRecord, error) {
	result, err := s.validator.Validate(ctx, req)
	if err != nil {
		return domain.TransferRecord{}, err
	}
	return s.ledger.ApplyTransfer(ctx, result.Mutation(key, req.Money()))
}

// finalize moves the key to its terminal status even when the request
// context is already cancelled.
func (s *TransferService) finalize(ctx context.Context, log zerolog.Logger, key string, status domain.Status) {
	base := context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= finalizeAttempts; attempt++ {
		fctx, cancel := context.WithTimeout(base, finalizeTimeout)
		err = s.idem.UpdateStatus(fctx, key, status)
		cancel()
		if err == nil || errors.Is(err, domain.ErrInvalidStatusTransition) || errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
			break
		}
	}
	if err != nil {
		finalizeFailures.Inc()
		log.Error().Err(err).Str("status", string(status)).Msg("could not finalize idempotency key")
	}
}

// publish is best effort: the transfer is already committed.
func (s *TransferService) publish(ctx context.Context, log zerolog.Logger, rec domain.TransferRecord) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishTransferCompleted(pctx, events.NewTransferCompleted(rec)); err != nil {
		log.Warn().Err(err).Str("transfer_id", rec.ID.String()).Msg("transfer event not published")
	}
}
