package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often pending changes are pushed (default: 10s)
	PollInterval time.Duration

	// MaxRetries is how many failed pushes are tolerated before the pending
	// change is dropped until the next event (default: 3)
	MaxRetries int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		MaxRetries:   3,
	}
}

// SyncProcessor mirrors the ledger to a spreadsheet. Change events reload
// the ledger from its snapshot and mark it dirty; the loop pushes dirty
// state at most once per poll interval.
type SyncProcessor struct {
	ledger *LedgerService
	sheet  sheets.Pusher
	config SyncProcessorConfig
	logger *log.Logger

	mu       sync.Mutex
	dirty    bool
	gen      uint64 // bumped by every change event
	attempts int
	lastRef  string

	// Lifecycle management
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(ledger *LedgerService, sheet sheets.Pusher, config SyncProcessorConfig, logger *log.Logger) *SyncProcessor {
	defaults := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncProcessor{
		ledger: ledger,
		sheet:  sheet,
		config: config,
		logger: logger.WithComponent(log.ComponentWatch),
	}
}

// HandleEvent reloads the ledger after a change made elsewhere. A failed
// reload is returned so the event is redelivered.
func (p *SyncProcessor) HandleEvent(ctx context.Context, ev amqp.TransactionEvent) error {
	rep := p.ledger.Load(ctx)
	if rep.Err != nil {
		return fmt.Errorf("reload ledger: %w", rep.Err)
	}
	p.logger.InfoContext(ctx, "Ledger reloaded after change event",
		"event_op", string(ev.Op),
		log.FieldTransactionID, ev.ID,
		log.FieldCount, rep.Loaded)

	if p.sheet != nil {
		p.mu.Lock()
		p.dirty = true
		p.gen++
		p.attempts = 0
		p.mu.Unlock()
	}
	return nil
}

// Start begins the push loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"sheet_enabled", p.sheet != nil)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Pending reports whether a change is waiting to be pushed.
func (p *SyncProcessor) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// LastRef returns the range written by the last successful push.
func (p *SyncProcessor) LastRef() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRef
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.Flush(ctx)
		}
	}
}

// Flush pushes pending state now. It is a no-op when nothing is pending.
func (p *SyncProcessor) Flush(ctx context.Context) error {
	p.mu.Lock()
	if !p.dirty || p.sheet == nil {
		p.mu.Unlock()
		return nil
	}
	gen := p.gen
	p.mu.Unlock()

	txs := p.ledger.Transactions()
	ref, err := p.sheet.Push(ctx, txs)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if p.gen == gen {
			p.handleFailure(ctx, err)
		}
		return err
	}
	// A change that arrived during the push stays pending.
	if p.gen == gen {
		p.dirty = false
	}
	p.attempts = 0
	p.lastRef = ref
	p.logger.InfoContext(ctx, "Mirrored ledger to sheet",
		log.FieldCount, len(txs),
		"sheets_ref", ref)
	return nil
}

// handleFailure counts a failed push. Called with p.mu held.
func (p *SyncProcessor) handleFailure(ctx context.Context, err error) {
	p.attempts++
	p.logger.WarnContext(ctx, "Sheet push failed",
		"attempt", p.attempts,
		log.FieldError, err)

	if p.attempts >= p.config.MaxRetries {
		p.logger.ErrorContext(ctx, "Sheet push failed permanently after max retries",
			"attempts", p.attempts)
		p.dirty = false
		p.attempts = 0
	}
}
