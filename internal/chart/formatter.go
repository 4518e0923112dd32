// Package chart shapes aggregates into chart-ready series and renders them.
package chart

import (
	"fmt"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

// DailyPoint is one day of the daily chart. ExpenseBar is the negated
// expense so it plots below the axis; the other amounts stay positive.
type DailyPoint struct {
	Date       core.Date  `json:"date"`
	Label      string     `json:"label"`
	IncomeBar  float64    `json:"incomeBar"`
	ExpenseBar float64    `json:"expenseBar"`
	Income     core.Money `json:"income"`
	Expense    core.Money `json:"expense"`
	Cost       core.Money `json:"cost"`
	Profit     core.Money `json:"profit"`
}

// WeekdayPoint pairs one weekday of this week with the same weekday of the
// previous week.
type WeekdayPoint struct {
	Day            string           `json:"day"`
	ThisDate       core.Date        `json:"thisDate"`
	LastDate       core.Date        `json:"lastDate"`
	ThisIncome     core.Money       `json:"thisIncome"`
	LastIncome     core.Money       `json:"lastIncome"`
	ThisExpense    core.Money       `json:"thisExpense"`
	LastExpense    core.Money       `json:"lastExpense"`
	ThisExpenseBar float64          `json:"thisExpenseBar"`
	LastExpenseBar float64          `json:"lastExpenseBar"`
	IncomeChange   aggregate.Change `json:"incomeChange"`
	ExpenseChange  aggregate.Change `json:"expenseChange"`
}

type Formatter interface {
	Daily(s aggregate.Series) []DailyPoint
	Weekly(wc aggregate.WeekComparison) []WeekdayPoint
}

// DefaultFormatter applies the standard sign and label conventions.
type DefaultFormatter struct{}

var _ Formatter = DefaultFormatter{}

func (DefaultFormatter) Daily(s aggregate.Series) []DailyPoint {
	out := make([]DailyPoint, 0, s.Len())
	for _, b := range s.Buckets {
		out = append(out, DailyPoint{
			Date:       b.Date,
			Label:      DayLabel(b.Date),
			IncomeBar:  b.Income.Float64(),
			ExpenseBar: b.Expense.Neg().Float64(),
			Income:     b.Income,
			Expense:    b.Expense,
			Cost:       b.Cost,
			Profit:     b.Profit,
		})
	}
	return out
}

func (DefaultFormatter) Weekly(wc aggregate.WeekComparison) []WeekdayPoint {
	out := make([]WeekdayPoint, 0, len(wc.Days))
	for _, d := range wc.Days {
		out = append(out, WeekdayPoint{
			Day:            WeekdayLabel(d.This.Date),
			ThisDate:       d.This.Date,
			LastDate:       d.Last.Date,
			ThisIncome:     d.This.Income,
			LastIncome:     d.Last.Income,
			ThisExpense:    d.ThisExpense,
			LastExpense:    d.LastExpense,
			ThisExpenseBar: d.ThisExpense.Neg().Float64(),
			LastExpenseBar: d.LastExpense.Neg().Float64(),
			IncomeChange:   d.IncomeChange,
			ExpenseChange:  d.ExpenseChange,
		})
	}
	return out
}

// DayLabel formats a date as M/D without padding, e.g. "1/5".
func DayLabel(d core.Date) string {
	return fmt.Sprintf("%d/%d", d.Month(), d.Day())
}

// WeekdayLabel returns the three-letter weekday name, e.g. "Mon".
func WeekdayLabel(d core.Date) string {
	return d.Weekday().String()[:3]
}
