package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/earningsinsights/pkg/models"
)

func TestFilingPath(t *testing.T) {
	s := New("/data")
	tests := []struct {
		name   string
		filing models.Filing
		want   string
	}{
		{
			"annual",
			models.Filing{FormType: models.Form10K, PeriodOfReport: models.NewDate(2023, time.December, 31)},
			"/data/financial-metrics/AAPL/Annual/2023/10-K.json",
		},
		{
			"quarterly",
			models.Filing{FormType: models.Form10Q, PeriodOfReport: models.NewDate(2024, time.March, 30)},
			"/data/financial-metrics/AAPL/Quarterly/2024/Q1.json",
		},
		{
			"fourth quarter 10-Q falls back to form type",
			models.Filing{FormType: models.Form10Q, PeriodOfReport: models.NewDate(2023, time.December, 30)},
			"/data/financial-metrics/AAPL/Quarterly/2023/10-Q.json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FilingPath("AAPL", tt.filing)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestPathsRejectUnsafeSymbols(t *testing.T) {
	s := New(t.TempDir())
	for _, sym := range []string{"../etc", "a/b", "", "aapl"} {
		_, err := s.FilingPath(sym, models.Filing{FormType: models.Form10K})
		assert.ErrorIs(t, err, ErrInvalidSymbol, sym)

		_, err = s.ReportPath(sym)
		assert.ErrorIs(t, err, ErrInvalidSymbol, sym)
	}
}

func TestReportPath(t *testing.T) {
	got, err := New("public").ReportPath("MSFT")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("public", "reports", "MSFT.json"), got)
}

func TestDefaultRoot(t *testing.T) {
	got, err := New("").ReportPath("AAPL")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("public", "reports", "AAPL.json"), got)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	path, err := s.FilingPath("ABC", models.Filing{FormType: models.Form10K, PeriodOfReport: models.NewDate(2023, time.December, 31)})
	require.NoError(t, err)

	assert.False(t, fileExists(path))
	var empty []models.ReportRecord
	ok, err := s.Load(path, &empty)
	require.NoError(t, err)
	assert.False(t, ok, "missing entries are not an error")

	records := []models.ReportRecord{{
		CompanyTicker:  "ABC",
		ReportName:     "Balance Sheet",
		Data:           models.ReportData{Header: "h", Period: "p", Data: map[string]float64{"b": 2, "a": -1}},
		PeriodOfReport: models.NewDate(2023, time.December, 31),
		DateFiled:      models.NewDate(2024, time.February, 10),
		FormType:       models.Form10K,
	}}
	require.NoError(t, s.Save(path, records))
	assert.True(t, fileExists(path))

	var got []models.ReportRecord
	ok, err = s.Load(path, &got)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"companyTicker\": \"ABC\"", "2-space indented JSON")
}

func TestSaveIsByteStable(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	path := filepath.Join(dir, "reports", "X.json")
	v := map[string]float64{"z": 1, "a": 2, "m": 3}

	require.NoError(t, s.Save(path, v))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]float64
	_, err = s.Load(path, &decoded)
	require.NoError(t, err)
	require.NoError(t, s.Save(path, decoded))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestConcurrentSavesLeaveWholeFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	path := filepath.Join(dir, "reports", "RACE.json")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, s.Save(path, map[string]int{"writer": n}))
		}(i)
	}
	wg.Wait()

	var got map[string]int
	ok, err := s.Load(path, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, got, "writer")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var v any
	_, err := s.Load(path, &v)
	assert.Error(t, err)
}
