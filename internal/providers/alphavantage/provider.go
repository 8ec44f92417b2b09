// Package alphavantage fetches upcoming earnings dates from the Alpha
// Vantage EARNINGS_CALENDAR endpoint, which answers in CSV.
//
// Free tier: 25 requests/day.
// Docs: https://www.alphavantage.co/documentation/#earnings-calendar
package alphavantage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seenimoa/earningsinsights/internal/config"
	"github.com/seenimoa/earningsinsights/internal/infra"
	"github.com/seenimoa/earningsinsights/pkg/models"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = eris.New("alpha vantage API key is not configured")

// Provider is an Alpha Vantage client.
type Provider struct {
	client      *infra.Client
	baseURL     string
	apiKey      string
	concurrency int
	logger      *zap.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithClient replaces the HTTP client.
func WithClient(c *infra.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConcurrency bounds parallel symbol requests.
func WithConcurrency(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// New creates a Provider from the alphavantage config section.
func New(cfg config.AlphaVantageConfig, opts ...Option) *Provider {
	p := &Provider{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		concurrency: 2,
		logger:      zap.L(),
	}
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("alphavantage")
	if p.client == nil {
		p.client = infra.NewClient(
			infra.WithTimeout(30*time.Second),
			infra.WithHeader("Accept", "text/csv, application/json"),
			infra.WithLogger(p.logger),
		)
	}
	return p
}

// Configured reports whether an API key is set.
func (p *Provider) Configured() bool {
	return p.apiKey != ""
}

func (p *Provider) calendarURL(symbol string) string {
	q := url.Values{}
	q.Set("function", "EARNINGS_CALENDAR")
	q.Set("symbol", symbol)
	q.Set("apikey", p.apiKey)
	return p.baseURL + "?" + q.Encode()
}

// EarningsCalendar returns the upcoming earnings rows of one symbol. Each
// row holds the CSV columns keyed by header, plus "symbol".
func (p *Provider) EarningsCalendar(ctx context.Context, symbol string) ([]models.EarningsCalendarEntry, error) {
	if !p.Configured() {
		return nil, ErrMissingAPIKey
	}

	body, err := p.client.Get(ctx, p.calendarURL(symbol), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "alpha vantage earnings calendar for %s", symbol)
	}
	if msg := apiMessage(body); msg != "" {
		return nil, eris.Errorf("alpha vantage earnings calendar for %s: %s", symbol, msg)
	}

	entries, err := ParseCalendarCSV(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "parse earnings calendar for %s", symbol)
	}
	for _, e := range entries {
		if _, ok := e["symbol"]; !ok {
			e["symbol"] = symbol
		}
	}
	return entries, nil
}

// EarningsCalendars fetches several symbols concurrently and concatenates
// their rows in symbol order. Failed symbols are logged and skipped.
func (p *Provider) EarningsCalendars(ctx context.Context, symbols []string) []models.EarningsCalendarEntry {
	results, errs := infra.Map(ctx, p.concurrency, symbols, p.EarningsCalendar)

	for i, sym := range symbols {
		switch {
		case errs[i] != nil:
			p.logger.Warn("skipping symbol", zap.String("symbol", sym), zap.Error(errs[i]))
		case len(results[i]) == 0:
			p.logger.Info("no earnings data", zap.String("symbol", sym))
		}
	}

	var all []models.EarningsCalendarEntry
	for _, rows := range infra.Collect(results, errs) {
		all = append(all, rows...)
	}
	return all
}

// ParseCalendarCSV reads a CSV document whose first row is the header.
// Blank lines are skipped; short rows leave their trailing columns out.
func ParseCalendarCSV(r io.Reader) ([]models.EarningsCalendarEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return []models.EarningsCalendarEntry{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	entries := []models.EarningsCalendarEntry{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read record")
		}
		if blank(rec) {
			continue
		}
		e := make(models.EarningsCalendarEntry, len(header))
		for i, col := range header {
			if i < len(rec) {
				e[col] = rec[i]
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// apiMessage extracts the message of a JSON error or rate-limit notice,
// which Alpha Vantage sends with status 200 in place of CSV.
func apiMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return ""
	}
	for _, key := range []string{"Error Message", "Information", "Note"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return "unexpected JSON response"
}
