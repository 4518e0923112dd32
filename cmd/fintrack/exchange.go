package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/exchange"
	"fintrack/internal/sheets/google"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

// fileFormat picks the explicit format, falling back to the file extension.
func fileFormat(explicit, path string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(explicit))
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch f {
	case "", formatCSV:
		return formatCSV, nil
	case formatXLSX:
		return formatXLSX, nil
	}
	return "", fmt.Errorf("unknown format %q: must be %s or %s", f, formatCSV, formatXLSX)
}

func (a *app) importCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Append transactions from a CSV or XLSX backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fileFormat(format, args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			var res exchange.ImportResult
			if f == formatXLSX {
				res, err = exchange.ImportXLSX(file, nil)
			} else {
				res, err = exchange.ImportCSV(file, nil)
			}
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			added := a.ledger.Service.Import(cmd.Context(), res)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d transactions\n", added)
			if res.LegacyFormat {
				fmt.Fprintln(out, "File has no cost column; costs left empty")
			}
			for _, rowErr := range res.Skipped {
				fmt.Fprintf(out, "Skipped %s\n", rowErr.Error())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or xlsx (default from extension)")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <file|->",
		Short: "Write every transaction to a CSV or XLSX backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			path := target
			if target == "-" {
				path = ""
			}
			f, err := fileFormat(format, path)
			if err != nil {
				return err
			}
			txs := a.ledger.Service.Transactions()

			if target == "-" {
				return export(cmd.OutOrStdout(), f, txs)
			}
			file, err := os.Create(target)
			if err != nil {
				return err
			}
			if err := export(file, f, txs); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(txs), target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or xlsx (default from extension)")
	return cmd
}

func export(w io.Writer, format string, txs []core.Transaction) error {
	if format == formatXLSX {
		return exchange.ExportXLSX(w, txs)
	}
	return exchange.ExportCSV(w, txs)
}

func (a *app) googleSheet(ctx context.Context) (*google.Client, error) {
	return google.New(ctx, google.Config{
		SpreadsheetID:   a.cfg.GoogleSpreadsheetID,
		SheetName:       a.cfg.GoogleSheetName,
		CredentialsFile: a.cfg.GoogleServiceAccountFile,
		CredentialsJSON: a.cfg.GoogleServiceAccountJSON,
	}, a.logger)
}

func (a *app) sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Mirror the ledger to or from Google Sheets",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// cobra runs only the nearest persistent pre-run
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if !a.cfg.SheetsEnabled() {
				return errors.New("GOOGLE_SPREADSHEET_ID is not configured")
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Replace the sheet contents with the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.googleSheet(cmd.Context())
			if err != nil {
				return err
			}
			ref, err := a.ledger.Service.PushSheet(cmd.Context(), client)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d transactions to %s\n", len(a.ledger.Service.Transactions()), ref)
			return nil
		},
	}, &cobra.Command{
		Use:   "pull",
		Short: "Append sheet rows the ledger does not already hold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.googleSheet(cmd.Context())
			if err != nil {
				return err
			}
			added, err := a.ledger.Service.PullSheet(cmd.Context(), client)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions from the sheet\n", added)
			return nil
		},
	})
	return cmd
}
