package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	mock_persist "fintrack/internal/persist/mocks"
)

func sampleTransactions() []core.Transaction {
	cost := core.Money{Cents: 2000}
	return []core.Transaction{
		core.NewIncome("a", core.NewDate(2024, 1, 1), core.Money{Cents: 10000}, &cost, "Sales", "first"),
		core.NewExpense("b", core.NewDate(2024, 1, 2), core.Money{Cents: 3050}, "Rent", `with "quotes"`),
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	snap := NewSnapshot(kv, "")
	assert.Equal(t, DefaultKey, snap.Key())

	require.NoError(t, snap.Save(ctx, sampleTransactions()))

	raw, err := kv.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":"a","date":"2024-01-01","type":"income","amount":100,"cost":20,"category":"Sales","description":"first"},
		{"id":"b","date":"2024-01-02","type":"expense","amount":30.5,"category":"Rent","description":"with \"quotes\""}
	]`, string(raw))

	res, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, sampleTransactions(), res.Transactions)
}

func TestSnapshot_MissingKeyIsEmpty(t *testing.T) {
	res, err := NewSnapshot(NewMemoryKV(), "").Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantIDs     []string
		wantSkipped int
		wantErr     error
	}{
		{name: "empty payload", payload: "  "},
		{name: "empty array", payload: "[]"},
		{name: "not json", payload: "{oops", wantErr: ErrMalformedSnapshot},
		{name: "object instead of array", payload: `{"id":"a"}`, wantErr: ErrMalformedSnapshot},
		{
			name: "skips malformed records",
			payload: `[
				{"id":"ok","date":"2024-01-01","type":"income","amount":1},
				{"id":"bad-date","date":"2024-13-01","type":"income","amount":1},
				{"id":"bad-type","date":"2024-01-01","type":"transfer","amount":1},
				{"id":"bad-amount","date":"2024-01-01","type":"expense","amount":"x"},
				{"id":"negative","date":"2024-01-01","type":"expense","amount":-5},
				42,
				{"id":"ok2","date":"2024-01-02","type":"expense","amount":"2.5","cost":9}
			]`,
			wantIDs:     []string{"ok", "ok2"},
			wantSkipped: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Decode([]byte(tt.payload))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, res.Transactions)
				return
			}
			require.NoError(t, err)
			var ids []string
			for _, tx := range res.Transactions {
				ids = append(ids, tx.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Len(t, res.Skipped, tt.wantSkipped)
		})
	}
}

func TestDecode_DropsCostOnExpense(t *testing.T) {
	res, err := Decode([]byte(`[{"id":"e","date":"2024-01-02","type":"expense","amount":2.5,"cost":9}]`))
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	_, hasCost := res.Transactions[0].Cost()
	assert.False(t, hasCost)
	assert.Equal(t, int64(250), res.Transactions[0].Amount().Cents)
}

func TestSnapshot_BackendErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	boom := errors.New("disk on fire")
	kv := mock_persist.NewMockKV(ctrl)
	snap := NewSnapshot(kv, "custom")

	kv.EXPECT().Get(gomock.Any(), "custom").Return(nil, boom)
	_, err := snap.Load(ctx)
	assert.ErrorIs(t, err, boom)

	kv.EXPECT().Put(gomock.Any(), "custom", gomock.Any()).Return(boom)
	err = snap.Save(ctx, sampleTransactions())
	assert.ErrorIs(t, err, boom)
}
