package chart

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

// TableRenderer draws rounded terminal tables with amounts prefixed by
// Currency.
type TableRenderer struct {
	Currency string
}

var _ Renderer = TableRenderer{}

func (r TableRenderer) money(m core.Money) string {
	if m.Cents < 0 {
		return "-" + r.Currency + m.Neg().String()
	}
	return r.Currency + m.String()
}

func (r TableRenderer) optMoney(m core.Money, ok bool) string {
	if !ok {
		return text.FgHiBlack.Sprint("-")
	}
	return r.money(m)
}

func newTable(w io.Writer, header table.Row, rightAligned ...int) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	cfgs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	t.SetColumnConfigs(cfgs)
	return t
}

func (r TableRenderer) Transactions(w io.Writer, txs []core.Transaction) error {
	t := newTable(w, table.Row{"ID", "Date", "Type", "Amount", "Cost", "Category", "Description"}, 4, 5)
	for _, tx := range txs {
		kind := text.FgGreen.Sprint(tx.Kind())
		if tx.Kind() == core.KindExpense {
			kind = text.FgRed.Sprint(tx.Kind())
		}
		cost, ok := tx.Cost()
		t.AppendRow(table.Row{tx.ID, tx.Date.Key(), kind, r.money(tx.Amount()), r.optMoney(cost, ok), tx.Category, tx.Description})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", "", text.Bold.Sprint(strconv.Itoa(len(txs)) + " total"), "", "", "", ""})
	t.Render()
	return nil
}

func (r TableRenderer) Summary(w io.Writer, s aggregate.Summary) error {
	t := newTable(w, table.Row{"Metric", "Value"}, 2)
	t.AppendRow(table.Row{"Income", r.money(s.TotalIncome)})
	t.AppendRow(table.Row{"Expense", r.money(s.TotalExpense)})
	t.AppendRow(table.Row{"Cost", r.money(s.TotalCost)})
	t.AppendRow(table.Row{"Transactions", s.Count})
	t.AppendSeparator()
	t.AppendFooter(table.Row{text.Bold.Sprint("Profit (" + s.Formula.String() + ")"), text.Bold.Sprint(r.money(s.Profit))})
	t.Render()
	return nil
}

func (r TableRenderer) Daily(w io.Writer, points []DailyPoint) error {
	t := newTable(w, table.Row{"Day", "Date", "Income", "Expense", "Cost", "Profit"}, 3, 4, 5, 6)
	var inc, exp, cost, profit core.Money
	for _, p := range points {
		inc, exp, cost, profit = inc.Add(p.Income), exp.Add(p.Expense), cost.Add(p.Cost), profit.Add(p.Profit)
		t.AppendRow(table.Row{p.Label, p.Date.Key(), r.money(p.Income), r.money(p.Expense), r.money(p.Cost), r.profit(p.Profit)})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{text.Bold.Sprint("Total"), "", r.money(inc), r.money(exp), r.money(cost), r.profit(profit)})
	t.Render()
	return nil
}

func (r TableRenderer) profit(m core.Money) string {
	switch {
	case m.Cents > 0:
		return text.FgGreen.Sprint(r.money(m))
	case m.Cents < 0:
		return text.FgRed.Sprint(r.money(m))
	}
	return r.money(m)
}

func (r TableRenderer) Weekly(w io.Writer, points []WeekdayPoint) error {
	t := newTable(w, table.Row{"Day", "Income", "Last week", "Δ", "Expense", "Last week", "Δ"}, 2, 3, 4, 5, 6, 7)
	for _, p := range points {
		t.AppendRow(table.Row{
			p.Day,
			r.money(p.ThisIncome), r.money(p.LastIncome), p.IncomeChange.String(),
			r.money(p.ThisExpense), r.money(p.LastExpense), p.ExpenseChange.String(),
		})
	}
	t.Render()
	return nil
}

func (r TableRenderer) Period(w io.Writer, p NamedPeriod) error {
	t := newTable(w, table.Row{"Period", "From", "To", "Income", "Outflow", "Net"}, 4, 5, 6)
	r.appendPeriod(t, p)
	t.Render()
	return nil
}

func (r TableRenderer) appendPeriod(t table.Writer, p NamedPeriod) {
	from, to := "", ""
	if p.Days > 0 {
		from, to = p.From.Key(), p.To.Key()
	}
	t.AppendRow(table.Row{p.Name, from, to, r.money(p.Income), r.money(p.Outflow), r.profit(p.Net)})
}

func (r TableRenderer) Dashboard(w io.Writer, d Dashboard) error {
	if err := r.Summary(w, d.Summary); err != nil {
		return err
	}
	t := newTable(w, table.Row{"Period", "From", "To", "Income", "Outflow", "Net"}, 4, 5, 6)
	for _, p := range d.Periods {
		r.appendPeriod(t, p)
	}
	t.Render()
	if err := r.Daily(w, d.Daily); err != nil {
		return err
	}
	return r.Weekly(w, d.Weekly)
}
