package aggregate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

// Change is a week-over-week percentage. Infinite marks growth from zero,
// where no finite percentage exists.
type Change struct {
	Percent  float64
	Infinite bool
}

// PercentChange is (this − last) / last · 100 when last > 0, the Infinite
// sentinel when last is 0 and this is positive, and 0 otherwise.
func PercentChange(this, last core.Money) Change {
	if last.Cents > 0 {
		diff := decimal.NewFromInt(this.Cents - last.Cents)
		pct := diff.Div(decimal.NewFromInt(last.Cents)).Mul(decimal.NewFromInt(100))
		f, _ := pct.Float64()
		return Change{Percent: f}
	}
	if this.Cents > 0 {
		return Change{Percent: math.Inf(1), Infinite: true}
	}
	return Change{}
}

// String renders "+∞", "0", or a signed one-decimal percentage.
func (c Change) String() string {
	switch {
	case c.Infinite:
		return "+∞"
	case c.Percent == 0:
		return "0"
	case c.Percent > 0:
		return "+" + strconv.FormatFloat(c.Percent, 'f', 1, 64) + "%"
	}
	return strconv.FormatFloat(c.Percent, 'f', 1, 64) + "%"
}

// MarshalText makes Change serialise as its display string.
func (c Change) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText reads the display form written by MarshalText.
func (c *Change) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch s {
	case "+∞":
		*c = Change{Percent: math.Inf(1), Infinite: true}
		return nil
	case "0", "":
		*c = Change{}
		return nil
	}
	if !strings.HasSuffix(s, "%") {
		return fmt.Errorf("invalid change %q", s)
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return fmt.Errorf("invalid change %q: %w", s, err)
	}
	*c = Change{Percent: f}
	return nil
}

// CompareOptions tunes CompareWeeks.
type CompareOptions struct {
	// FoldCost counts income cost as expense when computing the expense
	// change, matching the weekly chart.
	FoldCost bool
	Formula  ProfitFormula
}

// DayComparison pairs the same weekday position of two weeks.
type DayComparison struct {
	Weekday       time.Weekday
	This          Bucket
	Last          Bucket
	ThisExpense   core.Money
	LastExpense   core.Money
	IncomeChange  Change
	ExpenseChange Change
}

type WeekComparison struct {
	ThisWeek Series
	LastWeek Series
	Days     []DayComparison
}

// CompareWeeks aggregates both windows and pairs their days by position.
// Positions beyond the shorter window are dropped.
func CompareWeeks(txs []core.Transaction, thisWeek, lastWeek period.Window, opts CompareOptions) WeekComparison {
	wc := WeekComparison{
		ThisWeek: AggregateWith(txs, thisWeek, opts.Formula),
		LastWeek: AggregateWith(txs, lastWeek, opts.Formula),
	}
	n := min(wc.ThisWeek.Len(), wc.LastWeek.Len())
	wc.Days = make([]DayComparison, n)
	for i := 0; i < n; i++ {
		this, last := wc.ThisWeek.Buckets[i], wc.LastWeek.Buckets[i]
		thisExp, lastExp := this.Expense, last.Expense
		if opts.FoldCost {
			thisExp, lastExp = this.Outflow(), last.Outflow()
		}
		wc.Days[i] = DayComparison{
			Weekday:       this.Date.Weekday(),
			This:          this,
			Last:          last,
			ThisExpense:   thisExp,
			LastExpense:   lastExp,
			IncomeChange:  PercentChange(this.Income, last.Income),
			ExpenseChange: PercentChange(thisExp, lastExp),
		}
	}
	return wc
}

// Totals returns the folded totals of both weeks.
func (wc WeekComparison) Totals() (this, last Totals) {
	return wc.ThisWeek.Total(), wc.LastWeek.Total()
}
