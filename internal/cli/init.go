// Package cli provides common CLI initialization utilities shared by the
// fintrack commands: logging, configuration, and opening the ledger.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/persist"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger. An unknown level falls back to info.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	cfg.Output = os.Stderr
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from path (or $FINTRACK_CONFIG)
// and the environment, then validates it.
func LoadAndValidateConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Ledger bundles an opened ledger service with the resources behind it.
type Ledger struct {
	Service *services.LedgerService
	Events  *amqp.Client
	Load    services.LoadReport

	cleanups []func() error
}

// Close releases the event client and the storage backend.
func (l *Ledger) Close() error {
	var errs []error
	for i := len(l.cleanups) - 1; i >= 0; i-- {
		if err := l.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenLedger opens the configured storage backend, optionally connects to
// AMQP, and loads the persisted snapshot into a fresh ledger service.
// AMQP failures are logged and the ledger runs without change events.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Ledger, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("open storage backend: %w", err)
	}

	ledger := &Ledger{}
	ledger.cleanups = append(ledger.cleanups, res.Cleanup)

	opts := []services.Option{
		services.WithLogger(logger.WithComponent(log.ComponentLedger)),
		services.WithProfitFormula(cfg.Formula()),
		services.WithFoldCost(cfg.WeekFoldCost),
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events",
				log.FieldComponent, log.ComponentAMQP,
				log.FieldError, err)
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			ledger.Events = client
			ledger.cleanups = append(ledger.cleanups, client.Close)
			opts = append(opts, services.WithEvents(client))
		}
	}

	snapshot := persist.NewSnapshot(res.KV, cfg.StorageKey)
	ledger.Service = services.NewLedgerService(store.New(), snapshot, opts...)
	ledger.Load = ledger.Service.Load(ctx)
	return ledger, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
