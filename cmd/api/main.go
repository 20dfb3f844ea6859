package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/punchamoorthee/globalpay/internal/api"
	"github.com/punchamoorthee/globalpay/internal/config"
	"github.com/punchamoorthee/globalpay/internal/events"
	"github.com/punchamoorthee/globalpay/internal/events/kafka"
	"github.com/punchamoorthee/globalpay/internal/exchange"
	"github.com/punchamoorthee/globalpay/internal/logger"
	"github.com/punchamoorthee/globalpay/internal/service"
	"github.com/punchamoorthee/globalpay/internal/store"
	"github.com/punchamoorthee/globalpay/internal/store/memory"
	"github.com/rs/zerolog"
)

// ledger is what a storage backend must provide to the services.
type ledger interface {
	service.AccountLedger
	service.TransferLister
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", false)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Layers
	var (
		accounts ledger
		idem     service.IdempotencyStore
		db       api.Pinger
	)
	switch cfg.Storage {
	case config.StorageMemory:
		accounts = memory.NewAccountStore()
		idem = memory.NewIdempotencyStore()
		log.Warn().Msg("using in-memory storage, data is lost on restart")
	default:
		pg, err := store.NewStore(ctx, cfg.DBSource)
		if err != nil {
			log.Fatal().Err(err).Msg("unable to connect to database")
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("unable to apply schema")
		}
		accounts, idem, db = pg, pg, pg
	}

	gateway := exchange.NewGateway(rateSource(cfg), cfg.ExchangeTimeout)

	var publisher service.EventPublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
	}

	handler := api.NewHandler(
		service.NewTransferService(idem, accounts, gateway, publisher, log),
		service.NewAccountService(accounts),
		service.NewMonitorService(accounts),
		db,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Str("exchange", cfg.ExchangeSource).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdown(srv, log)
}

func rateSource(cfg *config.Config) exchange.RateSource {
	if cfg.ExchangeSource == config.ExchangeHTTP {
		return exchange.NewHTTPSource(cfg.ExchangeURL, nil)
	}
	return exchange.NewMockSource(
		exchange.WithLatency(cfg.ExchangeLatency),
		exchange.WithFailureRate(cfg.ExchangeFailureRate),
	)
}

func shutdown(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
