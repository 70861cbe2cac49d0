package data

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dca-backtest/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	table *Table
	err   error
	calls int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Fetch(ctx context.Context, id string) (*Table, error) {
	s.calls++
	return s.table, s.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCellUnmarshal(t *testing.T) {
	var rows [][]Cell
	require.NoError(t, json.Unmarshal([]byte(`[["2020-01-01", 1.25, null, "x"]]`), &rows))
	assert.Equal(t, []Cell{"2020-01-01", "1.25", "", "x"}, rows[0])
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2020-03-04", "2020/03/04", "20200304", "2020-03-04T10:00:00Z", "2020-03-04 10:00:00"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, day(2020, 3, 4), got, s)
	}
	_, err := ParseDate("March 4")
	assert.Error(t, err)
}

func TestToPointsNormalisesColumns(t *testing.T) {
	tbl := &Table{
		Columns: []string{" Date ", "NetValue", "other"},
		Rows: [][]Cell{
			{"2020-01-02", "1.10", "a"},
			{"2020-01-01", "1.00", "b"},
			{"2020-01-03", "", "c"},
		},
	}
	points, err := tbl.ToPoints()
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, day(2020, 1, 2), points[0].Date)
	assert.InDelta(t, 1.10, points[0].NAV, 1e-12)
}

func TestToPointsMissingColumn(t *testing.T) {
	tbl := &Table{Columns: []string{"date", "close"}, Rows: [][]Cell{{"2020-01-01", "1"}}}
	_, err := tbl.ToPoints()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "netvalue")
}

func TestToPointsBadValue(t *testing.T) {
	tbl := &Table{Columns: []string{"date", "netvalue"}, Rows: [][]Cell{{"2020-01-01", "abc"}}}
	_, err := tbl.ToPoints()
	assert.Error(t, err)
}

func TestLoadSeries(t *testing.T) {
	p := &stubProvider{table: &Table{
		Columns: []string{"date", "netvalue"},
		Rows:    [][]Cell{{"2020-01-01", "1"}, {"2020-01-02", "2"}},
	}}
	s, err := LoadSeries(context.Background(), p, "F1")
	require.NoError(t, err)
	assert.Equal(t, "F1", s.InstrumentID())
	assert.Equal(t, 2, s.Len())
}

func TestLoadSeriesDataUnavailable(t *testing.T) {
	cases := map[string]*stubProvider{
		"fetch error":    {err: errors.New("boom")},
		"empty table":    {table: &Table{Columns: []string{"date", "netvalue"}}},
		"nil table":      {},
		"missing column": {table: &Table{Columns: []string{"date"}, Rows: [][]Cell{{"2020-01-01"}}}},
		"all empty navs": {table: &Table{Columns: []string{"date", "netvalue"}, Rows: [][]Cell{{"2020-01-01", ""}}}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSeries(context.Background(), p, "F404")
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrDataUnavailable))
			assert.Contains(t, err.Error(), "F404")
		})
	}
}

func TestCSVFileProvider(t *testing.T) {
	dir := t.TempDir()
	body := "Date, NetValue\n2020-01-01, 1.0\n2020-01-02, 1.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "F1.csv"), []byte(body), 0644))

	p := &CSVFileProvider{Dir: dir}
	s, err := LoadSeries(context.Background(), p, "F1")
	require.NoError(t, err)
	price, ok := s.Lookup(day(2020, 1, 2))
	require.True(t, ok)
	assert.Equal(t, 1.5, price)

	_, err = LoadSeries(context.Background(), p, "missing")
	assert.True(t, errors.Is(err, model.ErrDataUnavailable))
}

func TestReadTableCSVEmpty(t *testing.T) {
	tbl, err := ReadTableCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
}

func TestJSONFileProvider(t *testing.T) {
	dir := t.TempDir()
	body := `{"columns":["date","netvalue"],"rows":[["2020-01-01",1.0],["2020-01-02","1.2"]]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "F2.json"), []byte(body), 0644))

	s, err := LoadSeries(context.Background(), &JSONFileProvider{Dir: dir}, "F2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 1.2}, s.Prices())
}

func TestFileProvidersStayInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "data")
	require.NoError(t, os.Mkdir(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.csv"), []byte("user,password\nadmin,hunter2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.json"), []byte(`{"columns":["user"],"rows":[["admin"]]}`), 0644))

	providers := []Provider{&CSVFileProvider{Dir: dir}, &JSONFileProvider{Dir: dir}}
	ids := []string{"../secret", "..", ".", "a/b", `a\b`, "/etc/passwd", ""}
	for _, p := range providers {
		for _, id := range ids {
			_, err := p.Fetch(context.Background(), id)
			require.Error(t, err, "%s %q", p.Name(), id)
			assert.NotContains(t, err.Error(), "password")

			_, err = LoadSeries(context.Background(), p, id)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrDataUnavailable))
			assert.NotContains(t, err.Error(), "password")
		}
	}
}

func TestValidateInstrumentID(t *testing.T) {
	for _, id := range []string{"000369", "VFIAX", "^GSPC", "BRK-B", "fund.v2"} {
		assert.NoError(t, ValidateInstrumentID(id), id)
	}
	for _, id := range []string{"", ".", "..", "../x", "x/..", "a/b", `a\b`, "/abs"} {
		assert.Error(t, ValidateInstrumentID(id), id)
	}
}

func TestLoadSeriesRejectsZeroNAV(t *testing.T) {
	p := &stubProvider{table: &Table{
		Columns: []string{"date", "netvalue"},
		Rows:    [][]Cell{{"2020-01-01", "1"}, {"2020-01-02", "0"}, {"2020-01-03", "1"}},
	}}
	_, err := LoadSeries(context.Background(), p, "F0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2020-01-02")
}
