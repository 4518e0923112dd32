// Package services wires the store, persistence and events into the
// operations the CLI and HTTP server expose.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/aggregate"
	"fintrack/internal/amqp"
	"fintrack/internal/chart"
	"fintrack/internal/core"
	"fintrack/internal/exchange"
	"fintrack/internal/log"
	"fintrack/internal/period"
	"fintrack/internal/persist"
	"fintrack/internal/store"
)

// DefaultDailyDays is the length of the daily chart window.
const DefaultDailyDays = 7

// LedgerService owns the transaction store. Every mutation is applied to the
// store first; persisting the snapshot and publishing an event follow as
// separate steps whose failures are logged and never returned.
type LedgerService struct {
	store     *store.Store
	snapshot  *persist.Snapshot
	events    EventPublisher
	clock     Clock
	newID     func() string
	logger    *log.Logger
	audit     *log.StructuredLogger
	formatter chart.Formatter
	formula   aggregate.ProfitFormula
	foldCost  bool

	// writeMu orders mutations with their snapshot writes so a slower
	// Save never overwrites a newer one.
	writeMu sync.Mutex
}

type Option func(*LedgerService)

func WithClock(c Clock) Option {
	return func(s *LedgerService) { s.clock = c }
}

// WithEvents enables change events. A nil publisher disables them.
func WithEvents(p EventPublisher) Option {
	return func(s *LedgerService) { s.events = p }
}

func WithIDGenerator(f func() string) Option {
	return func(s *LedgerService) { s.newID = f }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l.WithComponent(log.ComponentLedger) }
}

func WithProfitFormula(f aggregate.ProfitFormula) Option {
	return func(s *LedgerService) { s.formula = f }
}

// WithFoldCost makes the weekly comparison count cost as expense.
func WithFoldCost(fold bool) Option {
	return func(s *LedgerService) { s.foldCost = fold }
}

func WithFormatter(f chart.Formatter) Option {
	return func(s *LedgerService) { s.formatter = f }
}

// NewLedgerService builds a service around st. A nil snapshot disables
// persistence.
func NewLedgerService(st *store.Store, snapshot *persist.Snapshot, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     st,
		snapshot:  snapshot,
		clock:     SystemClock,
		newID:     uuid.NewString,
		logger:    log.Discard(),
		formatter: chart.DefaultFormatter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = store.New()
	}
	s.audit = log.NewStructuredLogger(s.logger)
	return s
}

// LoadReport describes what Load found in the snapshot.
type LoadReport struct {
	Loaded  int
	Skipped int
	Err     error
}

// Load replaces the store contents with the persisted snapshot. A snapshot
// that cannot be read leaves the store empty; the problem is logged and
// reported, not returned.
func (s *LedgerService) Load(ctx context.Context) LoadReport {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.snapshot == nil {
		s.store.Replace(nil)
		return LoadReport{}
	}
	res, err := s.snapshot.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Could not load snapshot, starting empty",
			log.FieldStorageKey, s.snapshot.Key(),
			log.FieldError, err)
		s.store.Replace(nil)
		return LoadReport{Err: err}
	}
	for _, skipped := range res.Skipped {
		s.logger.WarnContext(ctx, "Skipping malformed stored record", log.FieldError, skipped.Error())
	}
	n := s.store.Replace(res.Transactions)
	rep := LoadReport{Loaded: n, Skipped: len(res.Skipped) + len(res.Transactions) - n}
	s.logger.InfoContext(ctx, "Snapshot loaded",
		log.FieldStorageKey, s.snapshot.Key(),
		log.FieldCount, rep.Loaded,
		log.FieldSkipped, rep.Skipped)
	return rep
}

// Create adds tx, assigning a fresh ID when it has none.
func (s *LedgerService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = s.newID()
	}
	s.writeMu.Lock()
	if err := s.store.Add(tx); err != nil {
		s.writeMu.Unlock()
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.audit.LogTransaction(ctx, log.OpCreate, tx.ID, string(tx.Kind()), tx.Amount().Cents, tx.Category)
	s.persist(ctx)
	s.writeMu.Unlock()
	s.publish(ctx, amqp.OpCreated, tx.ID, 1)
	return tx, nil
}

// Update replaces the transaction with tx.ID. An unknown ID is a no-op that
// reports false; nothing is persisted or published.
func (s *LedgerService) Update(ctx context.Context, tx core.Transaction) (bool, error) {
	s.writeMu.Lock()
	err := s.store.Update(tx)
	if errors.Is(err, store.ErrNotFound) {
		s.writeMu.Unlock()
		s.logger.DebugContext(ctx, "Update of unknown transaction ignored", log.FieldTransactionID, tx.ID)
		return false, nil
	}
	if err != nil {
		s.writeMu.Unlock()
		return false, fmt.Errorf("update transaction: %w", err)
	}
	s.audit.LogTransaction(ctx, log.OpUpdate, tx.ID, string(tx.Kind()), tx.Amount().Cents, tx.Category)
	s.persist(ctx)
	s.writeMu.Unlock()
	s.publish(ctx, amqp.OpUpdated, tx.ID, 1)
	return true, nil
}

// Delete removes id. An unknown ID is a no-op that reports false.
func (s *LedgerService) Delete(ctx context.Context, id string) bool {
	s.writeMu.Lock()
	if err := s.store.Delete(id); err != nil {
		s.writeMu.Unlock()
		s.logger.DebugContext(ctx, "Delete of unknown transaction ignored", log.FieldTransactionID, id)
		return false
	}
	s.audit.LogTransaction(ctx, log.OpDelete, id, "", 0, "")
	s.persist(ctx)
	s.writeMu.Unlock()
	s.publish(ctx, amqp.OpDeleted, id, 1)
	return true
}

// Import adds every parsed row. Rows the store rejects are logged and
// skipped. The snapshot is written once at the end.
func (s *LedgerService) Import(ctx context.Context, res exchange.ImportResult) int {
	for _, rowErr := range res.Skipped {
		s.logger.WarnContext(ctx, "Skipping import row", log.FieldError, rowErr.Error())
	}
	s.writeMu.Lock()
	added := 0
	for _, tx := range res.Transactions {
		if tx.ID == "" {
			tx.ID = s.newID()
		}
		if err := s.store.Add(tx); err != nil {
			s.logger.WarnContext(ctx, "Rejected imported transaction",
				log.FieldTransactionID, tx.ID,
				log.FieldError, err)
			continue
		}
		added++
	}
	s.logger.InfoContext(ctx, "Import finished",
		log.FieldOperation, log.OpImport,
		log.FieldCount, added,
		log.FieldSkipped, len(res.Skipped)+len(res.Transactions)-added,
		"legacy_format", res.LegacyFormat)
	if added == 0 {
		s.writeMu.Unlock()
		return 0
	}
	s.persist(ctx)
	s.writeMu.Unlock()
	s.publish(ctx, amqp.OpImported, "", added)
	return added
}

// Get returns one transaction by ID.
func (s *LedgerService) Get(id string) (core.Transaction, bool) {
	return s.store.Get(id)
}

// Transactions returns the collection in insertion order.
func (s *LedgerService) Transactions() []core.Transaction {
	return s.store.List()
}

// Recent returns the collection newest date first; ties keep insertion
// order reversed so the latest entry of a day comes first.
func (s *LedgerService) Recent() []core.Transaction {
	txs := s.store.List()
	slices.Reverse(txs)
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
	return txs
}

func (s *LedgerService) Summary() aggregate.Summary {
	return aggregate.SummarizeAllWith(s.store.List(), s.formula)
}

// Daily returns the chart points for the last days days, today included.
// A non-positive days uses DefaultDailyDays.
func (s *LedgerService) Daily(days int) []chart.DailyPoint {
	return s.daily(s.store.List(), days)
}

func (s *LedgerService) daily(txs []core.Transaction, days int) []chart.DailyPoint {
	if days <= 0 {
		days = DefaultDailyDays
	}
	w := period.Trailing(s.clock.Now(), days, true)
	return s.formatter.Daily(aggregate.AggregateWith(txs, w, s.formula))
}

// Period totals the named preset window.
func (s *LedgerService) Period(name string) (chart.NamedPeriod, error) {
	return s.period(s.store.List(), name)
}

func (s *LedgerService) period(txs []core.Transaction, name string) (chart.NamedPeriod, error) {
	gen, err := period.Get(period.Preset(name))
	if err != nil {
		return chart.NamedPeriod{}, err
	}
	return chart.NamedPeriod{Name: name, PeriodStats: aggregate.Period(txs, gen.Window(s.clock.Now()))}, nil
}

// Weeks compares this week with the previous one, Monday to Sunday.
func (s *LedgerService) Weeks() []chart.WeekdayPoint {
	return s.weeks(s.store.List())
}

func (s *LedgerService) weeks(txs []core.Transaction) []chart.WeekdayPoint {
	this, last := period.Week(s.clock.Now())
	wc := aggregate.CompareWeeks(txs, this, last, aggregate.CompareOptions{
		FoldCost: s.foldCost,
		Formula:  s.formula,
	})
	return s.formatter.Weekly(wc)
}

// persist must be called with writeMu held.
func (s *LedgerService) persist(ctx context.Context) {
	if s.snapshot == nil {
		return
	}
	if err := s.snapshot.Save(ctx, s.store.List()); err != nil {
		s.audit.LogError(ctx, "Failed to persist snapshot", err, log.OpPersist,
			log.NewFields().WithComponent(log.ComponentStorage))
	}
}

func (s *LedgerService) publish(ctx context.Context, op amqp.EventOp, id string, count int) {
	if s.events == nil {
		return
	}
	ev := amqp.NewTransactionEvent(op, id, count, s.clock.Now())
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, log.OpPublish,
			"op", op,
			log.FieldTransactionID, id,
			log.FieldError, err)
	}
}
