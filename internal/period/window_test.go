package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestTrailing(t *testing.T) {
	now := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		n            int
		includeToday bool
		want         []string
	}{
		{
			name:         "includes today, crosses leap day",
			n:            3,
			includeToday: true,
			want:         []string{"2024-02-29", "2024-03-01", "2024-03-02"},
		},
		{
			name:         "excludes today",
			n:            3,
			includeToday: false,
			want:         []string{"2024-02-28", "2024-02-29", "2024-03-01"},
		},
		{
			name:         "single day",
			n:            1,
			includeToday: true,
			want:         []string{"2024-03-02"},
		},
		{
			name: "zero days",
			n:    0,
			want: []string{},
		},
		{
			name: "negative days",
			n:    -4,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Trailing(now, tt.n, tt.includeToday).Keys())
		})
	}
}

func TestTrailingYearRollover(t *testing.T) {
	now := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	w := Trailing(now, 30, false)
	require.Len(t, w, 30)
	assert.Equal(t, "2024-12-03", w[0].Key())
	assert.Equal(t, "2025-01-01", w[29].Key())
}

func TestTrailingUsesLocationOfNow(t *testing.T) {
	// 23:30 on Jan 1st in New York is already Jan 2nd in UTC.
	ny := time.FixedZone("EST", -5*3600)
	now := time.Date(2024, 1, 1, 23, 30, 0, 0, ny)
	w := Trailing(now, 1, true)
	assert.Equal(t, []string{"2024-01-01"}, w.Keys())
}

func TestWeek(t *testing.T) {
	tests := []struct {
		name      string
		ref       time.Time
		thisFirst string
		thisLast  string
		lastFirst string
	}{
		{
			name:      "midweek wednesday",
			ref:       time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC),
			thisFirst: "2024-05-13",
			thisLast:  "2024-05-19",
			lastFirst: "2024-05-06",
		},
		{
			name:      "monday is the first day",
			ref:       time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
			thisFirst: "2024-05-13",
			thisLast:  "2024-05-19",
			lastFirst: "2024-05-06",
		},
		{
			name:      "sunday belongs to the week before",
			ref:       time.Date(2024, 5, 19, 23, 0, 0, 0, time.UTC),
			thisFirst: "2024-05-13",
			thisLast:  "2024-05-19",
			lastFirst: "2024-05-06",
		},
		{
			name:      "week spanning new year",
			ref:       time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
			thisFirst: "2024-12-30",
			thisLast:  "2025-01-05",
			lastFirst: "2024-12-23",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			this, last := Week(tt.ref)
			require.Len(t, this, 7)
			require.Len(t, last, 7)
			assert.Equal(t, tt.thisFirst, this[0].Key())
			assert.Equal(t, tt.thisLast, this[6].Key())
			assert.Equal(t, tt.lastFirst, last[0].Key())
			assert.Equal(t, time.Monday, this[0].Weekday())
			assert.Equal(t, time.Sunday, this[6].Weekday())
			for i := range this {
				assert.Equal(t, this[i].Key(), last[i].AddDays(7).Key())
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 2)}
	assert.True(t, w.Contains(core.NewDate(2024, 1, 2)))
	assert.False(t, w.Contains(core.NewDate(2024, 1, 3)))
}

func TestPresets(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	for _, name := range []Preset{Recent7, Last7, Last30, ThisWeek, LastWeek} {
		g, err := Get(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, g.Window(now), name)
	}

	g, _ := Get(Recent7)
	assert.Equal(t, "2024-05-15", g.Window(now)[6].Key())
	g, _ = Get(Last7)
	assert.Equal(t, "2024-05-14", g.Window(now)[6].Key())
	g, _ = Get(Last30)
	assert.Len(t, g.Window(now), 30)

	_, err := Get("fortnight")
	assert.Error(t, err)
}

func TestRegisterPreset(t *testing.T) {
	Register("today", TrailingGenerator{Days: 1, IncludeToday: true})
	defer delete(presets, "today")

	g, err := Get("today")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-15"}, g.Window(time.Date(2024, 5, 15, 1, 0, 0, 0, time.UTC)).Keys())
	assert.Contains(t, Names(), Preset("today"))
}
