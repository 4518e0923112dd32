package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/period"
)

// useDataDir points the command line at a file-backed ledger in dir with
// events and sheets disabled.
func useDataDir(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("FINTRACK_CONFIG", "")
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("STORAGE_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("PROFIT_FORMULA", "net")
	t.Setenv("WEEK_FOLD_COST", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a, cmd := newApp()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := a.execute(context.Background(), cmd)
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "fintrack %s", strings.Join(args, " "))
	return out
}

func summary(t *testing.T) aggregate.Summary {
	t.Helper()
	var s aggregate.Summary
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "summary", "-o", "json")), &s))
	return s
}

func records(t *testing.T) []core.Record {
	t.Helper()
	var recs []core.Record
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "list", "-o", "json")), &recs))
	return recs
}

func seed(t *testing.T) {
	t.Helper()
	mustRun(t, "add", "income", "100", "--id", "in-1", "--date", "2026-01-05", "--cost", "30", "-c", "sales")
	mustRun(t, "add", "expense", "25", "--id", "ex-1", "--date", "2026-01-06", "-c", "rent", "-d", "January")
}

func TestAddPersistsAcrossInvocations(t *testing.T) {
	useDataDir(t, t.TempDir())
	seed(t)

	recs := records(t)
	require.Len(t, recs, 2)
	assert.Equal(t, "ex-1", recs[0].ID, "newest first")
	assert.Equal(t, core.KindExpense, recs[0].Type)
	assert.Equal(t, "January", recs[0].Description)
	require.NotNil(t, recs[1].Cost)
	assert.Equal(t, int64(3000), recs[1].Cost.Cents)

	s := summary(t)
	assert.Equal(t, int64(10000), s.TotalIncome.Cents)
	assert.Equal(t, int64(2500), s.TotalExpense.Cents)
	assert.Equal(t, int64(4500), s.Profit.Cents)
	assert.Equal(t, 2, s.Count)
}

func TestAddDefaultsToToday(t *testing.T) {
	useDataDir(t, t.TempDir())
	mustRun(t, "add", "expense", "4,50")

	recs := records(t)
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].ID)
	assert.Equal(t, int64(450), recs[0].Amount.Cents)
	assert.NotEmpty(t, recs[0].Date)
}

func TestAddRejectsBadInput(t *testing.T) {
	useDataDir(t, t.TempDir())

	_, err := run(t, "add", "gift", "10")
	assert.ErrorIs(t, err, core.ErrInvalidKind)

	_, err = run(t, "add", "income", "--", "-5")
	assert.ErrorIs(t, err, core.ErrNegativeAmount)

	_, err = run(t, "add", "income", "abc")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = run(t, "add", "income", "10", "--date", "05/01/2026")
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = run(t, "add", "income")
	assert.Error(t, err)

	assert.Empty(t, records(t))
}

func TestAddDuplicateID(t *testing.T) {
	useDataDir(t, t.TempDir())
	seed(t)

	_, err := run(t, "add", "expense", "1", "--id", "ex-1")
	assert.Error(t, err)
	assert.Len(t, records(t), 2)
}

func TestUpdate(t *testing.T) {
	useDataDir(t, t.TempDir())
	seed(t)

	mustRun(t, "update", "in-1", "--amount", "120", "--no-cost")
	s := summary(t)
	assert.Equal(t, int64(12000), s.TotalIncome.Cents)
	assert.Equal(t, int64(0), s.TotalCost.Cents)
	assert.Equal(t, int64(9500), s.Profit.Cents)

	mustRun(t, "update", "ex-1", "--type", "income", "--cost", "5")
	recs := records(t)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, core.KindIncome, r.Type)
	}
	assert.Equal(t, "rent", recs[0].Category, "unchanged fields are kept")

	_, err := run(t, "update", "missing", "--amount", "1")
	assert.ErrorIs(t, err, errNotFound)

	_, err = run(t, "update", "in-1", "--cost", "1", "--no-cost")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	useDataDir(t, t.TempDir())
	seed(t)

	out := mustRun(t, "delete", "ex-1")
	assert.Contains(t, out, "Deleted ex-1")
	assert.Len(t, records(t), 1)

	_, err := run(t, "rm", "ex-1")
	assert.ErrorIs(t, err, errNotFound)
}

func TestListLimit(t *testing.T) {
	useDataDir(t, t.TempDir())
	seed(t)

	var recs []core.Record
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "list", "-n", "1", "-o", "json")), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "ex-1", recs[0].ID)

	out := mustRun(t, "list")
	assert.Contains(t, out, "in-1")
	assert.Contains(t, out, "2 total")
}

func TestReportCommands(t *testing.T) {
	useDataDir(t, t.TempDir())
	seed(t)

	var daily []map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "daily", "--days", "3", "-o", "json")), &daily))
	assert.Len(t, daily, 3)

	_, err := run(t, "daily", "--days", "0")
	assert.Error(t, err)

	var weeks []map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "weeks", "-o", "json")), &weeks))
	assert.Len(t, weeks, 7)

	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "period", string(period.Last30), "-o", "json")), &p))
	assert.Equal(t, string(period.Last30), p["name"])

	_, err = run(t, "period", "fortnight")
	assert.ErrorIs(t, err, period.ErrUnknownPreset)

	var d map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "dashboard", "-o", "json")), &d))
	assert.Contains(t, d, "summary")

	assert.Contains(t, mustRun(t, "summary"), "Profit (net)")
}

func TestUnknownOutputFormat(t *testing.T) {
	useDataDir(t, t.TempDir())
	_, err := run(t, "summary", "-o", "yaml")
	assert.Error(t, err)
}

func TestGrossProfitFromEnv(t *testing.T) {
	useDataDir(t, t.TempDir())
	t.Setenv("PROFIT_FORMULA", "gross")
	seed(t)

	assert.Equal(t, int64(7000), summary(t).Profit.Cents)
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, format := range []string{formatCSV, formatXLSX} {
		t.Run(format, func(t *testing.T) {
			src := t.TempDir()
			useDataDir(t, src)
			seed(t)

			backup := filepath.Join(t.TempDir(), "backup."+format)
			out := mustRun(t, "export", backup)
			assert.Contains(t, out, "Exported 2 transactions")

			useDataDir(t, t.TempDir())
			out = mustRun(t, "import", backup)
			assert.Contains(t, out, "Imported 2 transactions")

			s := summary(t)
			assert.Equal(t, int64(10000), s.TotalIncome.Cents)
			assert.Equal(t, int64(3000), s.TotalCost.Cents)
			assert.Equal(t, int64(4500), s.Profit.Cents)
		})
	}
}

func TestExportToStdout(t *testing.T) {
	useDataDir(t, t.TempDir())
	seed(t)

	out := mustRun(t, "export", "-")
	assert.True(t, strings.HasPrefix(out, "\ufeff"))
	assert.Contains(t, out, "2026-01-05")
}

func TestImportReportsSkippedRows(t *testing.T) {
	useDataDir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "legacy.txt")
	content := "date,type,amount,category,description\n" +
		"2026-02-01,income,10,tips,\n" +
		"yesterday,income,10,tips,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := run(t, "import", path)
	assert.Error(t, err, "unknown extension without --format")

	out := mustRun(t, "import", path, "--format", "csv")
	assert.Contains(t, out, "Imported 1 transactions")
	assert.Contains(t, out, "no cost column")
	assert.Contains(t, out, "Skipped line 3")
}

func TestFileFormat(t *testing.T) {
	tests := []struct {
		explicit, path, want string
		wantErr              bool
	}{
		{"", "out.csv", formatCSV, false},
		{"", "OUT.XLSX", formatXLSX, false},
		{"", "", formatCSV, false},
		{"xlsx", "out.csv", formatXLSX, false},
		{"", "notes.txt", "", true},
		{"pdf", "out.csv", "", true},
	}
	for _, tt := range tests {
		got, err := fileFormat(tt.explicit, tt.path)
		if tt.wantErr {
			assert.Error(t, err, "%q %q", tt.explicit, tt.path)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestWatchNeedsAMQP(t *testing.T) {
	useDataDir(t, t.TempDir())
	_, err := run(t, "watch")
	assert.ErrorContains(t, err, "AMQP_URL")
}

func TestSheetsNeedSpreadsheet(t *testing.T) {
	useDataDir(t, t.TempDir())
	_, err := run(t, "sheets", "push")
	assert.ErrorContains(t, err, "GOOGLE_SPREADSHEET_ID")
}

func TestInvalidConfiguration(t *testing.T) {
	useDataDir(t, t.TempDir())
	t.Setenv("DATA_BACKEND", "mongodb")
	_, err := run(t, "summary")
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestFailingCommandClosesLedger(t *testing.T) {
	useDataDir(t, t.TempDir())
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "fintrack.db"))

	a, cmd := newApp()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"delete", "missing"})
	err := a.execute(context.Background(), cmd)
	assert.ErrorIs(t, err, errNotFound)
	assert.Nil(t, a.ledger, "ledger is closed after a failed command")

	mustRun(t, "add", "expense", "3", "--id", "x")
	assert.Len(t, records(t), 1)
}
