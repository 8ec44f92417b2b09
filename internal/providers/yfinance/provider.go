// Package yfinance scrapes Yahoo Finance pages that are only available
// rendered: the financial statement tables and the daily earnings calendar.
package yfinance

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seenimoa/earningsinsights/internal/config"
	"github.com/seenimoa/earningsinsights/pkg/models"
)

const (
	defaultBaseURL = "https://finance.yahoo.com"

	expandAllSelector = "button.link2-btn"
	statementRows     = ".row.lv-0, .row.lv-1, .row.lv-2"
	calendarSettle    = 2 * time.Second
)

// Provider scrapes Yahoo Finance through a Renderer.
type Provider struct {
	renderer Renderer
	baseURL  string
	logger   *zap.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithRenderer replaces the headless Chrome renderer.
func WithRenderer(r Renderer) Option {
	return func(p *Provider) { p.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Provider. Without WithRenderer it renders with Chrome.
func New(cfg config.YahooConfig, opts ...Option) *Provider {
	p := &Provider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  zap.L(),
	}
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("yfinance")
	if p.renderer == nil {
		p.renderer = NewChromeRenderer(cfg, p.logger)
	}
	return p
}

// StatementURLs returns the income statement, balance sheet and cash flow
// page URLs of ticker.
func (p *Provider) StatementURLs(ticker string) [3]string {
	t := url.PathEscape(ticker)
	q := "?p=" + url.QueryEscape(ticker)
	return [3]string{
		p.baseURL + "/quote/" + t + "/financials" + q,
		p.baseURL + "/quote/" + t + "/balance-sheet" + q,
		p.baseURL + "/quote/" + t + "/cash-flow" + q,
	}
}

// Financials scrapes the three statements of ticker.
func (p *Provider) Financials(ctx context.Context, ticker string) (*models.YahooFinancials, error) {
	urls := p.StatementURLs(ticker)
	pages := make([]Page, len(urls))
	for i, u := range urls {
		pages[i] = Page{URL: u, ExpandSelector: expandAllSelector, WaitSelector: statementRows}
	}

	html, err := p.renderer.Render(ctx, pages...)
	if err != nil {
		return nil, eris.Wrapf(err, "render statements of %s", ticker)
	}
	if len(html) != len(pages) {
		return nil, eris.Errorf("renderer returned %d pages, want %d", len(html), len(pages))
	}

	var tables [3]models.YahooTable
	rows := 0
	for i := range html {
		if tables[i], err = ParseFinancialTable(html[i]); err != nil {
			return nil, eris.Wrapf(err, "parse %s", urls[i])
		}
		rows += len(tables[i].Rows)
	}
	if rows == 0 {
		return nil, eris.Errorf("no statement rows found for %s", ticker)
	}

	p.logger.Info("statements scraped", zap.String("ticker", ticker), zap.Int("rows", rows))
	return &models.YahooFinancials{
		IncomeStatement: tables[0],
		BalanceSheet:    tables[1],
		CashFlow:        tables[2],
	}, nil
}

// EarningsCalendar scrapes the earnings calendar of a "YYYY-MM-DD" date.
func (p *Provider) EarningsCalendar(ctx context.Context, date string) ([]models.EarningsEvent, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, eris.Wrapf(err, "invalid date %q", date)
	}

	u := p.baseURL + "/calendar/earnings?day=" + url.QueryEscape(date)
	html, err := p.renderer.Render(ctx, Page{URL: u, WaitSelector: "body", Settle: calendarSettle})
	if err != nil {
		return nil, eris.Wrapf(err, "render earnings calendar for %s", date)
	}
	if len(html) != 1 {
		return nil, eris.Errorf("renderer returned %d pages, want 1", len(html))
	}

	events, err := ParseEarningsCalendar(html[0])
	if err != nil {
		return nil, err
	}
	p.logger.Info("earnings calendar scraped", zap.String("date", date), zap.Int("rows", len(events)))
	return events, nil
}
