package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/chart"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

func main() {
	a, root := newApp()
	if err := a.execute(context.Background(), root); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root pre-run has
// loaded configuration and opened the ledger.
type app struct {
	configPath string
	output     string

	cfg      *config.Config
	logger   *log.Logger
	ledger   *cli.Ledger
	renderer chart.Renderer
}

func newApp() (*app, *cobra.Command) {
	a := &app{}
	root := &cobra.Command{
		Use:           "fintrack",
		Short:         "Track income, expenses and cost of goods",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $FINTRACK_CONFIG)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", chart.FormatTable, "output format: table or json")

	root.AddCommand(
		a.addCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.listCmd(),
		a.summaryCmd(),
		a.dailyCmd(),
		a.periodCmd(),
		a.weekCmd(),
		a.dashboardCmd(),
		a.importCmd(),
		a.exportCmd(),
		a.sheetsCmd(),
		a.serveCmd(),
		a.watchCmd(),
	)
	return a, root
}

// execute runs root and closes the ledger whether or not the command failed.
func (a *app) execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

func (a *app) open(ctx context.Context) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig(a.configPath)
	if err != nil {
		return err
	}
	renderer, err := chart.NewRenderer(a.output, cfg.CurrencySymbol)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.renderer = renderer
	a.logger = cli.SetupLogger(cfg.LogLevel)

	ledger, err := cli.OpenLedger(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	a.ledger = ledger
	return nil
}

func (a *app) close() error {
	if a.ledger == nil {
		return nil
	}
	err := a.ledger.Close()
	a.ledger = nil
	return err
}
