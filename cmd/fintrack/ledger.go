package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/period"
	"fintrack/internal/services"
)

var errNotFound = errors.New("transaction not found")

func (a *app) addCmd() *cobra.Command {
	var date, cost, category, description, id string
	cmd := &cobra.Command{
		Use:       "add <income|expense> <amount>",
		Short:     "Record a transaction",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(core.KindIncome), string(core.KindExpense)},
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := core.Record{
				ID:          id,
				Date:        date,
				Type:        core.Kind(args[0]),
				Category:    category,
				Description: description,
			}
			if rec.Date == "" {
				rec.Date = core.DateOf(time.Now()).Key()
			}
			if err := setMoney(&rec.Amount, args[1]); err != nil {
				return err
			}
			if cost != "" {
				c, err := core.ParseMoney(cost)
				if err != nil {
					return fmt.Errorf("cost: %w", err)
				}
				rec.Cost = &c
			}
			tx, err := rec.Transaction()
			if err != nil {
				return err
			}
			created, err := a.ledger.Service.Create(cmd.Context(), tx)
			if err != nil {
				return err
			}
			return a.renderer.Transactions(cmd.OutOrStdout(), []core.Transaction{created})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&cost, "cost", "", "cost of goods, income only")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	cmd.Flags().StringVarP(&description, "description", "d", "", "free text")
	cmd.Flags().StringVar(&id, "id", "", "explicit id (default random UUID)")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var kind, amount, date, cost, category, description string
	var noCost bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an existing transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, ok := a.ledger.Service.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", errNotFound, args[0])
			}
			rec := existing.Record()
			flags := cmd.Flags()
			if flags.Changed("type") {
				rec.Type = core.Kind(kind)
			}
			if flags.Changed("amount") {
				if err := setMoney(&rec.Amount, amount); err != nil {
					return err
				}
			}
			if flags.Changed("date") {
				rec.Date = date
			}
			if flags.Changed("category") {
				rec.Category = category
			}
			if flags.Changed("description") {
				rec.Description = description
			}
			switch {
			case noCost:
				rec.Cost = nil
			case flags.Changed("cost"):
				c, err := core.ParseMoney(cost)
				if err != nil {
					return fmt.Errorf("cost: %w", err)
				}
				rec.Cost = &c
			}

			tx, err := rec.Transaction()
			if err != nil {
				return err
			}
			updated, err := a.ledger.Service.Update(cmd.Context(), tx)
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("%w: %s", errNotFound, args[0])
			}
			return a.renderer.Transactions(cmd.OutOrStdout(), []core.Transaction{tx})
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "income or expense")
	cmd.Flags().StringVar(&amount, "amount", "", "amount")
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD")
	cmd.Flags().StringVar(&cost, "cost", "", "cost of goods, income only")
	cmd.Flags().BoolVar(&noCost, "no-cost", false, "remove the recorded cost")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	cmd.Flags().StringVarP(&description, "description", "d", "", "free text")
	cmd.MarkFlagsMutuallyExclusive("cost", "no-cost")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.ledger.Service.Delete(cmd.Context(), args[0]) {
				return fmt.Errorf("%w: %s", errNotFound, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List transactions, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			txs := a.ledger.Service.Recent()
			if limit > 0 && len(txs) > limit {
				txs = txs[:limit]
			}
			return a.renderer.Transactions(cmd.OutOrStdout(), txs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n transactions (0 for all)")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Totals over every transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.renderer.Summary(cmd.OutOrStdout(), a.ledger.Service.Summary())
		},
	}
}

func (a *app) dailyCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Per-day income, expense and profit for the trailing days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return fmt.Errorf("days must be positive, got %d", days)
			}
			return a.renderer.Daily(cmd.OutOrStdout(), a.ledger.Service.Daily(days))
		},
	}
	cmd.Flags().IntVar(&days, "days", services.DefaultDailyDays, "number of days ending today")
	return cmd
}

func (a *app) periodCmd() *cobra.Command {
	names := make([]string, 0, len(period.Names()))
	for _, n := range period.Names() {
		names = append(names, string(n))
	}
	return &cobra.Command{
		Use:       "period <preset>",
		Short:     "Income and outflow over a named window",
		Long:      fmt.Sprintf("Income and outflow over a named window. Presets: %v", names),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.ledger.Service.Period(args[0])
			if err != nil {
				return err
			}
			return a.renderer.Period(cmd.OutOrStdout(), p)
		},
	}
}

func (a *app) weekCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "week",
		Aliases: []string{"weeks"},
		Short:   "Compare this week with last week day by day",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.renderer.Weekly(cmd.OutOrStdout(), a.ledger.Service.Weeks())
		},
	}
}

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summary, daily chart, week comparison and periods at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.ledger.Service.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer.Dashboard(cmd.OutOrStdout(), d)
		},
	}
}

func setMoney(dst *core.Money, raw string) error {
	m, err := core.ParseMoney(raw)
	if err != nil {
		return fmt.Errorf("amount %q: %w", raw, err)
	}
	*dst = m
	return nil
}
