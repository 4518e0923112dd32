package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/exchange"
	"fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

const columns = "A:F"

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	newID         func() string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.Sheet = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
// Inline JSON credentials take precedence over the credentials file.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(svc, cfg, logger), nil
}

func newClient(svc *gsheet.Service, cfg Config, logger *log.Logger) *Client {
	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = "Transactions"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     name,
		logger:        logger,
	}
}

func credentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) rangeOf(cells string) string {
	return fmt.Sprintf("%s!%s", c.sheetName, cells)
}

// Push clears the sheet and writes the header plus one row per transaction.
func (c *Client) Push(ctx context.Context, txs []core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rows := exchange.Table(txs)

	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.rangeOf(columns), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to clear sheet %s: %w", c.sheetName, err)
	}

	ref := c.rangeOf(fmt.Sprintf("A1:F%d", len(rows)))
	vr := &gsheet.ValueRange{Values: toValues(rows)}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update sheet %s: %w", c.sheetName, err)
	}

	c.logger.InfoContext(ctx, "Pushed transactions to sheet",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(txs),
		"range", ref)
	return ref, nil
}

// Pull reads the sheet and parses it like an imported file.
func (c *Client) Pull(ctx context.Context) (exchange.ImportResult, error) {
	if c.svc == nil {
		return exchange.ImportResult{}, errors.New("sheets service not initialized")
	}
	rng := c.rangeOf(columns)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return exchange.ImportResult{}, fmt.Errorf("read %s: %w", rng, err)
	}
	res := exchange.ParseRows(fromValues(resp.Values), c.newID)
	c.logger.InfoContext(ctx, "Pulled transactions from sheet",
		log.FieldOperation, log.OpImport,
		log.FieldCount, len(res.Transactions),
		log.FieldSkipped, len(res.Skipped))
	return res, nil
}
