// Package sec implements the SEC EDGAR filing extraction pipeline:
// ticker to CIK, CIK to recent 10-K/10-Q filings, filing to its
// FilingSummary.xml report list, and report to parsed statement table.
//
// No API key required. Must include a User-Agent header with a contact
// address per SEC policy.
// Docs: https://www.sec.gov/edgar/sec-api-documentation
// Rate limit: 10 requests/second per user-agent.
package sec

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seenimoa/earningsinsights/internal/config"
	"github.com/seenimoa/earningsinsights/internal/infra"
)

const (
	// Default EDGAR hosts.
	edgarWWWURL  = "https://www.sec.gov"
	edgarDataURL = "https://data.sec.gov"

	secAccept = "application/json, text/plain, */*"

	// List format selectors for the browse-edgar endpoint.
	ListFormatXML  = "xml"
	ListFormatAtom = "atom"

	defaultConcurrency = 4
)

// Provider fetches and parses SEC EDGAR filings.
type Provider struct {
	client         *infra.Client
	wwwURL         string
	dataURL        string
	listFormat     string
	concurrency    int
	parentFallback bool
	logger         *zap.Logger
	maxRetries     int
}

// Option customizes a Provider.
type Option func(*Provider)

// WithClient replaces the HTTP client built from configuration.
func WithClient(c *infra.Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// WithLogger sets the provider logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxRetries enables retries of 429/5xx responses on the default client.
func WithMaxRetries(n int) Option {
	return func(p *Provider) {
		p.maxRetries = n
	}
}

// New creates a SEC provider from configuration.
func New(cfg config.SECConfig, opts ...Option) *Provider {
	p := &Provider{
		wwwURL:         strings.TrimRight(orDefault(cfg.WWWBaseURL, edgarWWWURL), "/"),
		dataURL:        strings.TrimRight(orDefault(cfg.DataBaseURL, edgarDataURL), "/"),
		listFormat:     strings.ToLower(orDefault(cfg.ListFormat, ListFormatXML)),
		concurrency:    cfg.MaxConcurrency,
		parentFallback: cfg.ParentFallback,
		logger:         zap.L(),
	}
	if p.concurrency <= 0 {
		p.concurrency = defaultConcurrency
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("sec")
	if p.client == nil {
		p.client = newClient(cfg, p.maxRetries, p.logger)
	}
	return p
}

func newClient(cfg config.SECConfig, maxRetries int, logger *zap.Logger) *infra.Client {
	rps := cfg.RateLimit
	if rps == 0 {
		rps = 10
	}
	return infra.NewClient(
		infra.WithUserAgent(cfg.UserAgent()),
		infra.WithHeader("Accept", secAccept),
		infra.WithTimeout(cfg.Timeout),
		infra.WithRateLimit(rps),
		infra.WithMaxRetries(maxRetries),
		infra.WithLogger(logger),
	)
}

// ParentFallbackEnabled reports whether annual lookups may retry against
// a parent company CIK.
func (p *Provider) ParentFallbackEnabled() bool {
	return p.parentFallback
}

// Ping checks connectivity to SEC EDGAR.
func (p *Provider) Ping(ctx context.Context) error {
	u := p.dataURL + "/submissions/CIK0000320193.json" // Apple
	body, _, err := p.client.DoGet(ctx, u, nil)
	if err != nil {
		return eris.Wrap(err, "sec ping")
	}
	body.Close()
	return nil
}

// --- Shared helpers ---

// fetchSECJSON performs a GET request to the SEC API and decodes JSON.
func (p *Provider) fetchSECJSON(ctx context.Context, url string, dest any) error {
	data, err := p.client.Get(ctx, url, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return eris.Wrapf(err, "parse SEC JSON from %s", url)
	}
	return nil
}

// fetchSECRaw performs a GET request and returns raw bytes.
func (p *Provider) fetchSECRaw(ctx context.Context, url string) ([]byte, error) {
	return p.client.Get(ctx, url, nil)
}

// padCIK pads a CIK number to 10 digits with leading zeros.
func padCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
