package chart

import (
	"encoding/json"
	"fmt"
	"io"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

// NamedPeriod is a preset name with its stats.
type NamedPeriod struct {
	Name string `json:"name"`
	aggregate.PeriodStats
}

// Dashboard is everything shown on the overview screen.
type Dashboard struct {
	Summary aggregate.Summary `json:"summary"`
	Daily   []DailyPoint      `json:"daily"`
	Weekly  []WeekdayPoint    `json:"weekly"`
	Periods []NamedPeriod     `json:"periods"`
}

// Renderer writes views to a terminal or a pipe.
type Renderer interface {
	Transactions(w io.Writer, txs []core.Transaction) error
	Summary(w io.Writer, s aggregate.Summary) error
	Daily(w io.Writer, points []DailyPoint) error
	Weekly(w io.Writer, points []WeekdayPoint) error
	Period(w io.Writer, p NamedPeriod) error
	Dashboard(w io.Writer, d Dashboard) error
}

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// NewRenderer returns the renderer for an output format.
func NewRenderer(format, currency string) (Renderer, error) {
	switch format {
	case "", FormatTable:
		return TableRenderer{Currency: currency}, nil
	case FormatJSON:
		return JSONRenderer{Indent: "  "}, nil
	}
	return nil, fmt.Errorf("unknown output format %q: must be %s or %s", format, FormatTable, FormatJSON)
}

// JSONRenderer writes each view as one JSON document.
type JSONRenderer struct {
	Indent string
}

var _ Renderer = JSONRenderer{}

func (r JSONRenderer) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", r.Indent)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (r JSONRenderer) Transactions(w io.Writer, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	return r.encode(w, txs)
}

func (r JSONRenderer) Summary(w io.Writer, s aggregate.Summary) error { return r.encode(w, s) }

func (r JSONRenderer) Daily(w io.Writer, points []DailyPoint) error { return r.encode(w, points) }

func (r JSONRenderer) Weekly(w io.Writer, points []WeekdayPoint) error { return r.encode(w, points) }

func (r JSONRenderer) Period(w io.Writer, p NamedPeriod) error { return r.encode(w, p) }

func (r JSONRenderer) Dashboard(w io.Writer, d Dashboard) error { return r.encode(w, d) }
