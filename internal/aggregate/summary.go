package aggregate

import (
	"fintrack/internal/core"
	"fintrack/internal/period"
)

// Summary is the running total over an entire, unwindowed collection.
type Summary struct {
	TotalIncome  core.Money    `json:"totalIncome"`
	TotalExpense core.Money    `json:"totalExpense"`
	TotalCost    core.Money    `json:"totalCost"`
	Profit       core.Money    `json:"profit"`
	Formula      ProfitFormula `json:"formula"`
	Count        int           `json:"count"`
}

// SummarizeAll totals every transaction with the net profit formula.
func SummarizeAll(txs []core.Transaction) Summary {
	return SummarizeAllWith(txs, NetProfit)
}

func SummarizeAllWith(txs []core.Transaction, f ProfitFormula) Summary {
	var t Totals
	for _, tx := range txs {
		t.Add(tx)
	}
	return Summary{
		TotalIncome:  t.Income,
		TotalExpense: t.Expense,
		TotalCost:    t.Cost,
		Profit:       t.Profit(f),
		Formula:      f,
		Count:        len(txs),
	}
}

// PeriodStats is the income / outflow view of a window, where cost counts
// as outflow alongside expense.
type PeriodStats struct {
	From    core.Date  `json:"from"`
	To      core.Date  `json:"to"`
	Days    int        `json:"days"`
	Income  core.Money `json:"income"`
	Outflow core.Money `json:"outflow"`
	Net     core.Money `json:"net"`
}

// Period totals txs over w.
func Period(txs []core.Transaction, w period.Window) PeriodStats {
	t := Aggregate(txs, w).Total()
	ps := PeriodStats{
		Days:    len(w),
		Income:  t.Income,
		Outflow: t.Outflow(),
	}
	ps.Net = ps.Income.Sub(ps.Outflow)
	if len(w) > 0 {
		ps.From, ps.To = w[0], w[len(w)-1]
	}
	return ps
}
