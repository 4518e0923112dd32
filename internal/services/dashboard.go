package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/aggregate"
	"fintrack/internal/chart"
	"fintrack/internal/period"
)

// DashboardPeriods are the preset windows shown on the dashboard.
var DashboardPeriods = []period.Preset{period.Last7, period.Last30}

// Dashboard computes every overview section from one snapshot of the store.
// Sections are independent and run concurrently.
func (s *LedgerService) Dashboard(ctx context.Context) (chart.Dashboard, error) {
	txs := s.store.List()
	var d chart.Dashboard
	d.Periods = make([]chart.NamedPeriod, len(DashboardPeriods))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Summary = aggregate.SummarizeAllWith(txs, s.formula)
		return nil
	})
	g.Go(func() error {
		d.Daily = s.daily(txs, DefaultDailyDays)
		return nil
	})
	g.Go(func() error {
		d.Weekly = s.weeks(txs)
		return nil
	})
	for i, name := range DashboardPeriods {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := s.period(txs, string(name))
			if err != nil {
				return err
			}
			d.Periods[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return chart.Dashboard{}, err
	}
	return d, nil
}
