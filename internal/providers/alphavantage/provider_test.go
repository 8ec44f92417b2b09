package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/seenimoa/earningsinsights/internal/config"
	"github.com/seenimoa/earningsinsights/pkg/models"
)

const aaplCSV = "symbol,name,reportDate,fiscalDateEnding,estimate,currency\r\n" +
	"AAPL,Apple Inc,2025-05-01,2025-03-31,1.62,USD\r\n" +
	"\r\n" +
	"AAPL,Apple Inc,2025-07-31,2025-06-30,,USD\r\n"

func newAVServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "EARNINGS_CALENDAR" || q.Get("apikey") != "demo" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		switch q.Get("symbol") {
		case "AAPL":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(aaplCSV))
		case "EMPTY":
			_, _ = w.Write([]byte("symbol,name,reportDate,fiscalDateEnding,estimate,currency\r\n"))
		case "LIMIT":
			_, _ = w.Write([]byte(`{"Information": "rate limit reached"}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, baseURL, key string) *Provider {
	t.Helper()
	return New(config.AlphaVantageConfig{BaseURL: baseURL, APIKey: key}, WithLogger(zaptest.NewLogger(t)))
}

func TestParseCalendarCSV(t *testing.T) {
	entries, err := ParseCalendarCSV(strings.NewReader(aaplCSV))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EarningsCalendarEntry{
		"symbol": "AAPL", "name": "Apple Inc", "reportDate": "2025-05-01",
		"fiscalDateEnding": "2025-03-31", "estimate": "1.62", "currency": "USD",
	}, entries[0])
	assert.Equal(t, "", entries[1]["estimate"])
}

func TestParseCalendarCSVEdges(t *testing.T) {
	entries, err := ParseCalendarCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = ParseCalendarCSV(strings.NewReader("\ufeffa,b,c\n1,2\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EarningsCalendarEntry{"a": "1", "b": "2"}, entries[0])
}

func TestEarningsCalendar(t *testing.T) {
	srv := newAVServer(t)
	p := newTestProvider(t, srv.URL, "demo")

	entries, err := p.EarningsCalendar(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = p.EarningsCalendar(context.Background(), "LIMIT")
	assert.ErrorContains(t, err, "rate limit reached")

	_, err = p.EarningsCalendar(context.Background(), "FAIL")
	assert.Error(t, err)
}

func TestEarningsCalendarRequiresKey(t *testing.T) {
	p := newTestProvider(t, "http://unused.test", "")
	assert.False(t, p.Configured())
	_, err := p.EarningsCalendar(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestEarningsCalendarsSkipsFailures(t *testing.T) {
	srv := newAVServer(t)
	p := newTestProvider(t, srv.URL, "demo")

	all := p.EarningsCalendars(context.Background(), []string{"FAIL", "AAPL", "EMPTY", "LIMIT", "AAPL"})
	require.Len(t, all, 4)
	for _, e := range all {
		assert.Equal(t, "AAPL", e["symbol"])
	}
}

func TestSymbolColumnFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("reportDate,estimate\n2025-05-01,1.0\n"))
	}))
	defer srv.Close()

	entries, err := newTestProvider(t, srv.URL, "demo").EarningsCalendar(context.Background(), "MSFT")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "MSFT", entries[0]["symbol"])
}

func TestAPIMessage(t *testing.T) {
	assert.Equal(t, "", apiMessage([]byte("a,b\n1,2")))
	assert.Equal(t, "bad key", apiMessage([]byte(` {"Error Message":"bad key"}`)))
	assert.Equal(t, "unexpected JSON response", apiMessage([]byte(`{"foo":1}`)))
}
