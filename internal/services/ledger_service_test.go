package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/aggregate"
	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/exchange"
	"fintrack/internal/persist"
	mock_persist "fintrack/internal/persist/mocks"
	"fintrack/internal/store"
	mock_services "fintrack/internal/services/mocks"
)

// Wednesday 15 May 2024, mid-morning
var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() Clock { return ClockFunc(func() time.Time { return fixedNow }) }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
}

func money(c int64) core.Money { return core.Money{Cents: c} }

func newTestService(t *testing.T, opts ...Option) (*LedgerService, *persist.MemoryKV) {
	t.Helper()
	kv := persist.NewMemoryKV()
	base := []Option{WithClock(fixedClock()), WithIDGenerator(seqIDs())}
	return NewLedgerService(store.New(), persist.NewSnapshot(kv, ""), append(base, opts...)...), kv
}

func TestLedgerService_CreatePersists(t *testing.T) {
	ctx := context.Background()
	svc, kv := newTestService(t)

	tx, err := svc.Create(ctx, core.NewIncome("", core.NewDate(2024, 5, 14), money(10000), nil, "Sales", ""))
	require.NoError(t, err)
	assert.Equal(t, "tx-1", tx.ID)

	raw, err := kv.Get(ctx, persist.DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"tx-1","date":"2024-05-14","type":"income","amount":100,"category":"Sales","description":""}]`, string(raw))

	// explicit ids are kept
	tx, err = svc.Create(ctx, core.NewExpense("mine", core.NewDate(2024, 5, 14), money(1), "", ""))
	require.NoError(t, err)
	assert.Equal(t, "mine", tx.ID)
}

func TestLedgerService_CreateRejectsInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), core.NewExpense("", core.NewDate(2024, 5, 1), money(-5), "", ""))
	assert.ErrorIs(t, err, core.ErrNegativeAmount)
	assert.Empty(t, svc.Transactions())
}

func TestLedgerService_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, kv := newTestService(t)
	_, _ = svc.Create(ctx, core.NewIncome("", core.NewDate(2024, 5, 1), money(500), nil, "", ""))
	_, _ = svc.Create(ctx, core.NewExpense("", core.NewDate(2024, 5, 2), money(200), "", ""))

	reloaded := NewLedgerService(store.New(), persist.NewSnapshot(kv, ""), WithClock(fixedClock()))
	rep := reloaded.Load(ctx)
	assert.NoError(t, rep.Err)
	assert.Equal(t, 2, rep.Loaded)
	assert.Equal(t, svc.Transactions(), reloaded.Transactions())
}

func TestLedgerService_LoadMalformedStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := persist.NewMemoryKV()
	require.NoError(t, kv.Put(ctx, persist.DefaultKey, []byte("{not an array")))

	st := store.New()
	_ = st.Add(core.NewExpense("stale", core.NewDate(2024, 1, 1), money(1), "", ""))
	svc := NewLedgerService(st, persist.NewSnapshot(kv, ""))

	rep := svc.Load(ctx)
	assert.ErrorIs(t, rep.Err, persist.ErrMalformedSnapshot)
	assert.Empty(t, svc.Transactions())
}

func TestLedgerService_PersistFailuresAreSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	kv := mock_persist.NewMockKV(ctrl)
	kv.EXPECT().Put(gomock.Any(), persist.DefaultKey, gomock.Any()).Return(errors.New("disk full")).Times(3)

	svc := NewLedgerService(store.New(), persist.NewSnapshot(kv, ""), WithClock(fixedClock()), WithIDGenerator(seqIDs()))

	tx, err := svc.Create(ctx, core.NewIncome("", core.NewDate(2024, 5, 1), money(100), nil, "", ""))
	require.NoError(t, err)

	tx.Category = "edited"
	ok, err := svc.Update(ctx, tx)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, svc.Delete(ctx, tx.ID))
	assert.Empty(t, svc.Transactions())
}

func TestLedgerService_UnknownIDsAreNoOps(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No Put and no PublishEvent may happen
	kv := mock_persist.NewMockKV(ctrl)
	pub := mock_services.NewMockEventPublisher(ctrl)
	svc := NewLedgerService(store.New(), persist.NewSnapshot(kv, ""), WithEvents(pub), WithClock(fixedClock()))

	ok, err := svc.Update(context.Background(), core.NewExpense("ghost", core.NewDate(2024, 5, 1), money(1), "", ""))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, svc.Delete(context.Background(), "ghost"))
}

func TestLedgerService_PublishesEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	pub := mock_services.NewMockEventPublisher(ctrl)
	svc, _ := newTestService(t, WithEvents(pub))

	gomock.InOrder(
		pub.EXPECT().PublishEvent(gomock.Any(), amqp.NewTransactionEvent(amqp.OpCreated, "tx-1", 1, fixedNow)).Return(nil),
		pub.EXPECT().PublishEvent(gomock.Any(), amqp.NewTransactionEvent(amqp.OpUpdated, "tx-1", 1, fixedNow)).Return(errors.New("broker down")),
		pub.EXPECT().PublishEvent(gomock.Any(), amqp.NewTransactionEvent(amqp.OpDeleted, "tx-1", 1, fixedNow)).Return(nil),
		pub.EXPECT().PublishEvent(gomock.Any(), amqp.NewTransactionEvent(amqp.OpImported, "", 2, fixedNow)).Return(nil),
	)

	tx, err := svc.Create(ctx, core.NewExpense("", core.NewDate(2024, 5, 1), money(100), "", ""))
	require.NoError(t, err)
	ok, err := svc.Update(ctx, tx)
	require.NoError(t, err, "publish failure must not fail the update")
	assert.True(t, ok)
	assert.True(t, svc.Delete(ctx, tx.ID))

	res := exchange.ParseRows([][]string{
		exchange.Header,
		{"2024-05-01", "income", "10", "", "", ""},
		{"2024-05-02", "expense", "3", "", "", ""},
	}, nil)
	assert.Equal(t, 2, svc.Import(ctx, res))
}

func TestLedgerService_ImportSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, _ = svc.Create(ctx, core.NewExpense("dup", core.NewDate(2024, 5, 1), money(1), "", ""))

	res := exchange.ImportResult{Transactions: []core.Transaction{
		core.NewExpense("dup", core.NewDate(2024, 5, 1), money(1), "", ""),
		core.NewExpense("fresh", core.NewDate(2024, 5, 1), money(1), "", ""),
	}}
	assert.Equal(t, 1, svc.Import(ctx, res))
	assert.Len(t, svc.Transactions(), 2)

	assert.Equal(t, 0, svc.Import(ctx, exchange.ImportResult{}))
}

func TestLedgerService_ReadSide(t *testing.T) {
	ctx := context.Background()
	cost := money(2000)
	svc, _ := newTestService(t, WithProfitFormula(aggregate.GrossProfit), WithFoldCost(true))

	for _, tx := range []core.Transaction{
		core.NewIncome("", core.NewDate(2024, 5, 13), money(10000), &cost, "Sales", ""), // Monday this week
		core.NewExpense("", core.NewDate(2024, 5, 6), money(1000), "Rent", ""),          // Monday last week
		core.NewExpense("", core.NewDate(2024, 5, 15), money(500), "Food", ""),          // today
		core.NewIncome("", core.NewDate(2024, 4, 1), money(700), nil, "Old", ""),        // outside every window
	} {
		_, err := svc.Create(ctx, tx)
		require.NoError(t, err)
	}

	sum := svc.Summary()
	assert.Equal(t, 4, sum.Count)
	assert.Equal(t, int64(10700-2000), sum.Profit.Cents, "gross profit ignores expense")

	daily := svc.Daily(0)
	require.Len(t, daily, DefaultDailyDays)
	assert.Equal(t, "5/9", daily[0].Label)
	assert.Equal(t, "5/15", daily[6].Label)
	assert.Equal(t, -5.0, daily[6].ExpenseBar)

	last7, err := svc.Period("last7")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), last7.Income.Cents)
	assert.Equal(t, int64(2000), last7.Outflow.Cents, "cost counts as outflow; 6 May is outside the window")

	_, err = svc.Period("fortnight")
	assert.Error(t, err)

	weeks := svc.Weeks()
	require.Len(t, weeks, 7)
	assert.Equal(t, int64(2000), weeks[0].ThisExpense.Cents, "cost folded into expense")
	assert.Equal(t, int64(1000), weeks[0].LastExpense.Cents)
	assert.Equal(t, "+100.0%", weeks[0].ExpenseChange.String())

	recent := svc.Recent()
	assert.Equal(t, "2024-05-15", recent[0].Date.Key())
	assert.Equal(t, "2024-04-01", recent[len(recent)-1].Date.Key())
}

func TestLedgerService_Dashboard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, _ = svc.Create(ctx, core.NewIncome("", core.NewDate(2024, 5, 14), money(1000), nil, "", ""))

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Summary.Count)
	assert.Len(t, d.Daily, DefaultDailyDays)
	assert.Len(t, d.Weekly, 7)
	require.Len(t, d.Periods, len(DashboardPeriods))
	assert.Equal(t, "last7", d.Periods[0].Name)
	assert.Equal(t, int64(1000), d.Periods[0].Income.Cents)
	assert.Equal(t, "last30", d.Periods[1].Name)
}

func TestLedgerService_WithoutSnapshot(t *testing.T) {
	svc := NewLedgerService(nil, nil)
	rep := svc.Load(context.Background())
	assert.Zero(t, rep.Loaded)

	_, err := svc.Create(context.Background(), core.NewExpense("", core.NewDate(2024, 1, 1), money(1), "", ""))
	assert.NoError(t, err)
	assert.Len(t, svc.Transactions(), 1)
}

func TestLedgerService_DeleteThenRecreateRestoresTotals(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	cost := money(300)
	sale := core.NewIncome("sale", core.NewDate(2024, 5, 14), money(2500), &cost, "Sales", "")
	for _, tx := range []core.Transaction{
		sale,
		core.NewExpense("", core.NewDate(2024, 5, 14), money(400), "Food", ""),
		core.NewIncome("", core.NewDate(2024, 5, 12), money(1000), nil, "Tips", ""),
	} {
		_, err := svc.Create(ctx, tx)
		require.NoError(t, err)
	}

	origSummary := svc.Summary()
	origDaily := svc.Daily(0)
	dayIdx := len(origDaily) - 2 // 14 May, yesterday
	require.Equal(t, "5/14", origDaily[dayIdx].Label)

	require.True(t, svc.Delete(ctx, "sale"))
	afterDelete := svc.Summary()
	assert.Equal(t, origSummary.TotalIncome.Cents-2500, afterDelete.TotalIncome.Cents)
	assert.Equal(t, origSummary.TotalCost.Cents-300, afterDelete.TotalCost.Cents)
	assert.Equal(t, origSummary.Profit.Cents-2200, afterDelete.Profit.Cents)
	assert.Equal(t, origSummary.Count-1, afterDelete.Count)
	dailyAfter := svc.Daily(0)
	assert.Equal(t, origDaily[dayIdx].Income.Cents-2500, dailyAfter[dayIdx].Income.Cents)
	assert.Equal(t, origDaily[dayIdx].Cost.Cents-300, dailyAfter[dayIdx].Cost.Cents)

	_, err := svc.Create(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, origSummary, svc.Summary())
	assert.Equal(t, origDaily, svc.Daily(0))
}

// gatedKV blocks the first Put until release is closed.
type gatedKV struct {
	*persist.MemoryKV
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedKV) Put(ctx context.Context, key string, value []byte) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.MemoryKV.Put(ctx, key, value)
}

func TestLedgerService_OverlappingMutationsPersistInOrder(t *testing.T) {
	ctx := context.Background()
	kv := &gatedKV{
		MemoryKV: persist.NewMemoryKV(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	svc := NewLedgerService(store.New(), persist.NewSnapshot(kv, ""), WithClock(fixedClock()))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Create(ctx, core.NewExpense("a", core.NewDate(2024, 5, 1), money(100), "", ""))
		assert.NoError(t, err)
	}()
	<-kv.entered

	go func() {
		defer wg.Done()
		_, err := svc.Create(ctx, core.NewExpense("b", core.NewDate(2024, 5, 2), money(200), "", ""))
		assert.NoError(t, err)
	}()
	// give the second create time to race the blocked write
	time.Sleep(50 * time.Millisecond)
	close(kv.release)
	wg.Wait()

	reloaded := NewLedgerService(store.New(), persist.NewSnapshot(kv, ""), WithClock(fixedClock()))
	rep := reloaded.Load(ctx)
	require.NoError(t, rep.Err)
	assert.Equal(t, 2, rep.Loaded)
	assert.Len(t, svc.Transactions(), 2)
}
