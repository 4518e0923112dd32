package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
)

const shutdownTimeout = 30 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger as a local JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Port
			}
			addr := ":" + port
			srv := apphttp.NewServer(addr, a.ledger.Service, a.logger)
			srv.ReadTimeout = 10 * time.Second
			srv.WriteTimeout = 10 * time.Second
			srv.IdleTimeout = 60 * time.Second

			ctx, done := cli.GracefulShutdown(a.logger, shutdownTimeout, func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.logger.Error("Server shutdown error", "error", err)
				}
			})

			a.logger.Info("HTTP server listening",
				"addr", addr,
				log.FieldBackend, a.cfg.DataBackend,
				log.FieldCount, a.ledger.Load.Loaded)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			cli.WaitForShutdown(ctx, done)
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default from config)")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var interval time.Duration
	var retries int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow change events and mirror the ledger to the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.ledger.Events == nil {
				return errors.New("watch needs AMQP_URL to be configured")
			}

			var sheet sheets.Pusher
			if a.cfg.SheetsEnabled() {
				c, err := a.googleSheet(cmd.Context())
				if err != nil {
					return err
				}
				sheet = c
			}

			proc := services.NewSyncProcessor(a.ledger.Service, sheet, services.SyncProcessorConfig{
				PollInterval: interval,
				MaxRetries:   retries,
			}, a.logger)

			ctx, done := cli.GracefulShutdown(a.logger, shutdownTimeout, func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := proc.Stop(shutdownCtx); err != nil {
					a.logger.Error("Sync processor stop error", "error", err)
				}
			})
			if err := proc.Start(ctx); err != nil {
				return err
			}

			a.logger.Info("Watching transaction events",
				"exchange", a.cfg.AMQPExchange,
				"queue", a.cfg.AMQPQueue,
				"sheet_enabled", sheet != nil)
			err := a.ledger.Events.ConsumeEvents(ctx, proc.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume events: %w", err)
			}
			cli.WaitForShutdown(ctx, done)
			return nil
		},
	}
	defaults := services.DefaultSyncProcessorConfig()
	cmd.Flags().DurationVar(&interval, "interval", defaults.PollInterval, "minimum delay between sheet pushes")
	cmd.Flags().IntVar(&retries, "retries", defaults.MaxRetries, "push attempts before a change is dropped")
	return cmd
}
