package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Maksym-Tokariev/csv-parser/internal/config"
	"github.com/Maksym-Tokariev/csv-parser/internal/csvparser"
	"github.com/Maksym-Tokariev/csv-parser/internal/history"
	"github.com/Maksym-Tokariev/csv-parser/internal/report"
	"github.com/Maksym-Tokariev/csv-parser/internal/validation"
	"github.com/Maksym-Tokariev/csv-parser/pkg/utils"
)

const sales = `id,category,country,price,quantity,sold_at
P1,Books,US,10.50,2,2024-01-01T00:00:00Z
P2,Toys,DE,3.00,0,2024-01-02T00:00:00Z

P3,Books,DE,5.25,3,2024-01-03T00:00:00Z
`

var runTime = time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)

type fixture struct {
	dir     string
	input   string
	results string
	archive string
}

func newFixture(t *testing.T, input string) fixture {
	t.Helper()

	dir := t.TempDir()
	fx := fixture{
		dir:     dir,
		input:   filepath.Join(dir, "sales.csv"),
		results: filepath.Join(dir, "results"),
		archive: filepath.Join(dir, "archive"),
	}
	require.NoError(t, os.WriteFile(fx.input, []byte(input), 0644))
	return fx
}

func newPipeline(t *testing.T, fx fixture, store *history.Store, modify func(*config.File)) *Pipeline {
	t.Helper()

	file := config.Defaults()
	file.Paths.ResultsDir = fx.results
	file.Paths.CreateResultsDir = true
	if modify != nil {
		modify(&file)
	}
	settings, err := config.New(file)
	require.NoError(t, err)

	p := New(zaptest.NewLogger(t), settings, store)
	p.now = func() time.Time { return runTime }
	p.newID = func() string { return "run-1" }
	return p
}

func readJSON(t *testing.T, path string) map[string]interface{} {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func TestRun(t *testing.T) {
	fx := newFixture(t, sales)

	store, err := history.Open(context.Background(), zaptest.NewLogger(t), filepath.Join(fx.dir, "history.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	p := newPipeline(t, fx, store, func(f *config.File) {
		f.Paths.OutputFormats = []string{"json", "xml", "xlsx"}
		f.Paths.ResultFileName = "{original}_{date}"
		f.Paths.ErrorLog = true
		f.Paths.ArchiveDir = fx.archive
	})

	result := p.Run(context.Background(), fx.input, Options{})
	require.True(t, result.Success, "%v", result.Error)
	require.NoError(t, result.Error)
	require.Equal(t, "run-1", result.RunID)

	require.Equal(t, 4, result.Report.TotalLines)
	require.Equal(t, 2, result.Report.ValidLines)
	require.Equal(t, 1, result.Report.InvalidLines)
	require.Equal(t, 1, result.Report.SkippedRows)

	require.Len(t, result.Errors, 1)
	require.Equal(t, 3, result.Errors[0].Line)
	require.Equal(t, validation.ZeroQuantity, result.Errors[0].Kind)

	require.Equal(t, []string{
		filepath.Join(fx.results, "sales_20240115.json"),
		filepath.Join(fx.results, "sales_20240115.xml"),
		filepath.Join(fx.results, "sales_20240115.xlsx"),
	}, result.Outputs)
	for _, output := range result.Outputs {
		require.FileExists(t, output)
	}

	decoded := readJSON(t, result.Outputs[0])
	require.Equal(t, float64(4), decoded["totalLines"])
	stat := decoded["stat"].(map[string]interface{})
	require.Equal(t, float64(5), stat["totalItems"])
	require.Equal(t, 36.75, stat["totalRevenue"])
	require.Equal(t, float64(1), stat["categoriesCount"])
	require.Equal(t, float64(2), stat["countriesCount"])

	xml, err := os.ReadFile(result.Outputs[1])
	require.NoError(t, err)
	require.Contains(t, string(xml), "<totalRevenue>36.75</totalRevenue>")

	require.Equal(t, filepath.Join(fx.results, "error_log_20240115_143022_run-1.txt"), result.ErrorLog)
	errorLog, err := os.ReadFile(result.ErrorLog)
	require.NoError(t, err)
	require.Contains(t, string(errorLog), "Kind:    ZeroQuantity")

	require.Equal(t, filepath.Join(fx.archive, "sales.csv"), result.ArchivePath)
	require.NoFileExists(t, fx.input)

	runs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "run-1", runs[0].ID)
	require.Equal(t, history.StatusSucceeded, runs[0].Status)
	require.Equal(t, "36.75", runs[0].TotalRevenue)
	require.EqualValues(t, 5, runs[0].TotalItems)
	require.Equal(t, result.Outputs, runs[0].Outputs)
}

func TestDryRun(t *testing.T) {
	fx := newFixture(t, sales)

	store, err := history.Open(context.Background(), zaptest.NewLogger(t), filepath.Join(fx.dir, "history.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	p := newPipeline(t, fx, store, func(f *config.File) {
		f.Paths.ErrorLog = true
		f.Paths.ArchiveDir = fx.archive
	})

	result := p.Run(context.Background(), fx.input, Options{DryRun: true})
	require.True(t, result.Success)
	require.Equal(t, 2, result.Report.ValidLines)
	require.Len(t, result.Errors, 1)

	require.Empty(t, result.Outputs)
	require.Empty(t, result.ErrorLog)
	require.Empty(t, result.ArchivePath)
	require.NoDirExists(t, fx.results)
	require.NoDirExists(t, fx.archive)
	require.FileExists(t, fx.input)

	runs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestRunIsRepeatable(t *testing.T) {
	fx := newFixture(t, sales)
	p := newPipeline(t, fx, nil, nil)

	first := p.Run(context.Background(), fx.input, Options{DryRun: true})
	second := p.Run(context.Background(), fx.input, Options{DryRun: true})
	require.True(t, first.Success)
	require.True(t, second.Success)

	firstJSON, err := report.EncodeJSON(*first.Report)
	require.NoError(t, err)
	secondJSON, err := report.EncodeJSON(*second.Report)
	require.NoError(t, err)
	require.Equal(t, string(firstJSON), string(secondJSON))
}

func TestFatalErrors(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		path   func(fx fixture) string
		modify func(fx fixture, f *config.File)
		check  func(t *testing.T, err error)
	}{
		{
			name:  "missing input",
			input: sales,
			path:  func(fx fixture) string { return filepath.Join(fx.dir, "missing.csv") },
			check: func(t *testing.T, err error) { require.True(t, csvparser.ErrSourceNotFound.Has(err)) },
		},
		{
			name:  "no input path",
			input: sales,
			path:  func(fixture) string { return "" },
			check: func(t *testing.T, err error) { require.True(t, Error.Has(err)) },
		},
		{
			name:  "missing header column",
			input: "id,category,country,price,quantity\nP1,Books,US,10.50,2\n",
			check: func(t *testing.T, err error) { require.True(t, csvparser.ErrInvalidHeader.Has(err)) },
		},
		{
			name:  "empty input",
			input: "",
			check: func(t *testing.T, err error) { require.True(t, csvparser.ErrEmptyInput.Has(err)) },
		},
		{
			name:   "results directory missing",
			input:  sales,
			modify: func(fx fixture, f *config.File) { f.Paths.CreateResultsDir = false },
			check:  func(t *testing.T, err error) { require.True(t, utils.Error.Has(err)) },
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t, tc.input)

			store, err := history.Open(context.Background(), zaptest.NewLogger(t), filepath.Join(fx.dir, "history.db"))
			require.NoError(t, err)
			defer func() { require.NoError(t, store.Close()) }()

			p := newPipeline(t, fx, store, func(f *config.File) {
				f.Paths.ArchiveDir = fx.archive
				if tc.modify != nil {
					tc.modify(fx, f)
				}
			})

			path := fx.input
			if tc.path != nil {
				path = tc.path(fx)
			}

			result := p.Run(context.Background(), path, Options{})
			require.False(t, result.Success)
			require.Error(t, result.Error)
			tc.check(t, result.Error)

			require.Nil(t, result.Report)
			require.Empty(t, result.Outputs)
			require.NoDirExists(t, fx.archive)

			runs, err := store.List(context.Background(), 0)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			require.Equal(t, history.StatusFailed, runs[0].Status)
			require.Equal(t, result.Error.Error(), runs[0].Error)
		})
	}
}

func TestCancelledRun(t *testing.T) {
	fx := newFixture(t, sales)
	p := newPipeline(t, fx, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.Run(ctx, fx.input, Options{})
	require.False(t, result.Success)
	require.ErrorIs(t, result.Error, context.Canceled)
}

func TestErrorLogEntries(t *testing.T) {
	entries := errorLogEntries([]*validation.ValidationError{
		{Line: 4, Field: "category", Kind: validation.UnexpectedDigit, Message: "category must not contain numbers", Value: strings.Repeat("7", 150)},
	})

	require.Len(t, entries, 1)
	require.Equal(t, 4, entries[0].Line)
	require.Equal(t, "UnexpectedDigit", entries[0].Kind)
	require.Len(t, entries[0].Value, validation.MaxLoggedValue)
}

func TestErrorLogPerRun(t *testing.T) {
	fx := newFixture(t, sales)
	p := newPipeline(t, fx, nil, func(f *config.File) { f.Paths.ErrorLog = true })

	ids := []string{"run-a", "run-b"}
	p.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first := p.Run(context.Background(), fx.input, Options{})
	second := p.Run(context.Background(), fx.input, Options{})
	require.True(t, first.Success)
	require.True(t, second.Success)

	require.Equal(t, filepath.Join(fx.results, "error_log_20240115_143022_run-a.txt"), first.ErrorLog)
	require.Equal(t, filepath.Join(fx.results, "error_log_20240115_143022_run-b.txt"), second.ErrorLog)
	require.FileExists(t, first.ErrorLog)
	require.FileExists(t, second.ErrorLog)
}
