// Package financials orchestrates the SEC and Yahoo Finance pipelines:
// it resolves filings, consults the file cache and extracts what is
// missing.
package financials

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seenimoa/earningsinsights/internal/cache"
	"github.com/seenimoa/earningsinsights/internal/infra"
	"github.com/seenimoa/earningsinsights/pkg/models"
	"github.com/seenimoa/earningsinsights/pkg/utils"
)

var (
	ErrCIKNotFound   = eris.New("unable to fetch CIK")
	ErrNoFilings     = eris.New("no relevant filings found")
	ErrNoData        = eris.New("no financial data extracted")
	ErrInvalidTicker = eris.New("invalid or missing ticker")
)

// FilingSource is the SEC side of the pipeline.
type FilingSource interface {
	ResolveCIK(ctx context.Context, ticker string) (string, error)
	ListFilings(ctx context.Context, cik string, form models.FormType) ([]models.Filing, error)
	ParentCIK(ctx context.Context, cik string) (string, error)
	ParentFallbackEnabled() bool
	ExtractFinancialData(ctx context.Context, filing models.Filing, symbol string) ([]models.ReportRecord, error)
}

// StatementSource scrapes the Yahoo Finance statements of a ticker.
type StatementSource interface {
	Financials(ctx context.Context, ticker string) (*models.YahooFinancials, error)
}

// Service runs scrapes against the cache.
type Service struct {
	sec         FilingSource
	yahoo       StatementSource
	store       *cache.Store
	sink        EventSink
	logger      *zap.Logger
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithEventSink sets the receiver of progress events.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConcurrency bounds the number of filings processed at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService wires a Service. yahoo may be nil when only SEC scraping is used.
func NewService(sec FilingSource, yahoo StatementSource, store *cache.Store, opts ...Option) *Service {
	s := &Service{
		sec:         sec,
		yahoo:       yahoo,
		store:       store,
		sink:        nopSink{},
		logger:      zap.L(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FormForReportType maps the reportType parameter to a form: "annual"
// selects 10-K, anything else 10-Q.
func FormForReportType(reportType string) models.FormType {
	if strings.EqualFold(strings.TrimSpace(reportType), "annual") {
		return models.Form10K
	}
	return models.Form10Q
}

// ScrapeFilings returns the financial statements of the symbol's most
// recent annual or quarterly filings. Cached filings are returned as is
// unless force is set.
func (s *Service) ScrapeFilings(ctx context.Context, symbol, reportType string, force bool) ([]models.FinancialData, error) {
	symbol = utils.NormalizeTicker(symbol)
	form := FormForReportType(reportType)
	log := s.logger.With(zap.String("symbol", symbol), zap.String("form", string(form)))

	cik, err := s.sec.ResolveCIK(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "resolve CIK")
		}
		log.Warn("CIK lookup failed", zap.Error(err))
		return nil, eris.Wrapf(ErrCIKNotFound, "symbol %s", symbol)
	}

	filings, err := s.sec.ListFilings(ctx, cik, form)
	if err != nil {
		return nil, eris.Wrapf(err, "list %s filings for CIK %s", form, cik)
	}
	if len(filings) == 0 && form == models.Form10K && s.sec.ParentFallbackEnabled() {
		if parent := s.parentCIK(ctx, cik, log); parent != "" {
			cik = parent
			filings, err = s.sec.ListFilings(ctx, cik, form)
			if err != nil {
				return nil, eris.Wrapf(err, "list %s filings for parent CIK %s", form, cik)
			}
		}
	}
	if len(filings) == 0 {
		return nil, eris.Wrapf(ErrNoFilings, "symbol %s", symbol)
	}
	log.Info("filings located", zap.String("cik", cik), zap.Int("count", len(filings)))

	results, errs := infra.Map(ctx, s.concurrency, filings, func(ctx context.Context, f models.Filing) (models.FinancialData, error) {
		return s.scrapeFiling(ctx, symbol, f, force)
	})

	out := make([]models.FinancialData, 0, len(filings))
	for i, f := range filings {
		if errs[i] != nil {
			log.Warn("dropping filing", zap.String("url", f.URL), zap.Error(errs[i]))
			s.publish(Event{Type: EventFilingFailed, Symbol: symbol, FormType: f.FormType, Year: f.Year(), URL: f.URL, Error: errs[i].Error()})
			continue
		}
		out = append(out, results[i])
	}
	if len(out) == 0 {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "scrape filings")
		}
		return nil, eris.Wrapf(ErrNoData, "symbol %s", symbol)
	}
	return out, nil
}

// parentCIK returns the parent registrant of cik, or "" when there is none
// or the lookup fails.
func (s *Service) parentCIK(ctx context.Context, cik string, log *zap.Logger) string {
	parent, err := s.sec.ParentCIK(ctx, cik)
	if err != nil {
		log.Warn("parent CIK lookup failed", zap.String("cik", cik), zap.Error(err))
		return ""
	}
	if parent == cik {
		return ""
	}
	if parent != "" {
		log.Info("no own filings, using parent CIK", zap.String("cik", cik), zap.String("parent_cik", parent))
	}
	return parent
}

func (s *Service) scrapeFiling(ctx context.Context, symbol string, f models.Filing, force bool) (models.FinancialData, error) {
	item := models.FinancialData{Symbol: symbol, FormType: f.FormType, Year: f.Year()}

	path, err := s.store.FilingPath(symbol, f)
	if err != nil {
		return item, err
	}

	if !force {
		var records []models.ReportRecord
		found, err := s.store.Load(path, &records)
		if err != nil {
			s.logger.Warn("ignoring unreadable cache entry", zap.String("path", path), zap.Error(err))
		} else if found {
			item.Data = records
			item.Cached = true
			s.publish(Event{Type: EventFilingCached, Symbol: symbol, FormType: f.FormType, Year: item.Year, URL: f.URL, Reports: len(records), Cached: true})
			return item, nil
		}
	}

	records, err := s.sec.ExtractFinancialData(ctx, f, symbol)
	if err != nil {
		return item, eris.Wrapf(err, "extract %s", f.URL)
	}
	if len(records) == 0 {
		return item, eris.Errorf("no statements in %s", f.URL)
	}

	if err := s.store.Save(path, records); err != nil {
		return item, err
	}
	s.logger.Debug("filing cached", zap.String("path", path), zap.Int("reports", len(records)))

	item.Data = records
	s.publish(Event{Type: EventFilingScraped, Symbol: symbol, FormType: f.FormType, Year: item.Year, URL: f.URL, Reports: len(records)})
	return item, nil
}

// ScrapeYahoo returns the Yahoo Finance statements of ticker and whether
// they came from the cache.
func (s *Service) ScrapeYahoo(ctx context.Context, ticker string, force bool) (*models.YahooFinancials, bool, error) {
	ticker = utils.NormalizeTicker(ticker)
	if !utils.ValidTicker(ticker) {
		return nil, false, eris.Wrapf(ErrInvalidTicker, "ticker %q", ticker)
	}
	if s.yahoo == nil {
		return nil, false, eris.New("yahoo finance scraping is not configured")
	}

	path, err := s.store.ReportPath(ticker)
	if err != nil {
		return nil, false, err
	}

	if !force {
		var cached models.YahooFinancials
		found, err := s.store.Load(path, &cached)
		if err != nil {
			s.logger.Warn("ignoring unreadable cache entry", zap.String("path", path), zap.Error(err))
		} else if found {
			return &cached, true, nil
		}
	}

	data, err := s.yahoo.Financials(ctx, ticker)
	if err != nil {
		return nil, false, eris.Wrapf(err, "scrape yahoo finance for %s", ticker)
	}
	if err := s.store.Save(path, data); err != nil {
		return nil, false, err
	}

	s.publish(Event{Type: EventYahooScraped, Symbol: ticker})
	return data, false, nil
}

func (s *Service) publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	s.sink.Publish(e)
}
