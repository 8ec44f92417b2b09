package sec

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seenimoa/earningsinsights/internal/infra"
	"github.com/seenimoa/earningsinsights/pkg/models"
	"github.com/seenimoa/earningsinsights/pkg/utils"
)

// ExtractFinancialData fetches a filing's summary, keeps its financial
// statement reports and parses each of them. Reports that fail to
// download or parse are logged and left out.
func (p *Provider) ExtractFinancialData(ctx context.Context, filing models.Filing, symbol string) ([]models.ReportRecord, error) {
	summary, err := p.fetchSECRaw(ctx, filing.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch filing summary %s", filing.URL)
	}
	reports, err := ParseFilingSummary(summary)
	if err != nil {
		return nil, err
	}

	matched := make([]MatchedReport, 0, len(reports))
	for _, r := range ClassifyReports(reports) {
		if r.HtmlFileName != "" {
			matched = append(matched, r)
		}
	}

	base := strings.TrimSuffix(filing.URL, "/FilingSummary.xml")
	quarter := utils.QuarterOf(filing.PeriodOfReport.Time)

	results, errs := infra.Map(ctx, p.concurrency, matched, func(ctx context.Context, r MatchedReport) (models.ReportData, error) {
		return p.FetchReport(ctx, base+"/"+r.HtmlFileName)
	})

	records := make([]models.ReportRecord, 0, len(matched))
	for i, r := range matched {
		if errs[i] != nil {
			p.logger.Warn("dropping report",
				zap.String("symbol", symbol),
				zap.String("report", r.ShortName),
				zap.Error(errs[i]))
			continue
		}
		records = append(records, models.ReportRecord{
			CompanyTicker:  symbol,
			ReportName:     CleanReportName(r.ShortName),
			StatementType:  string(r.StatementType),
			Data:           results[i],
			PeriodOfReport: filing.PeriodOfReport,
			DateFiled:      filing.DateFiled,
			FormType:       filing.FormType,
			Quarter:        quarter,
		})
	}

	p.logger.Debug("extracted filing",
		zap.String("symbol", symbol),
		zap.String("url", filing.URL),
		zap.Int("reports", len(records)))
	return records, nil
}
