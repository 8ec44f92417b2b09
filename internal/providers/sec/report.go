package sec

import (
	"bytes"
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/seenimoa/earningsinsights/pkg/models"
)

var (
	whitespace       = regexp.MustCompile(`\s+`)
	negativeValue    = regexp.MustCompile(`\(\d[\d,]*\)`)
	consolidatedWord = regexp.MustCompile(`(?i)Consolidated\s`)
	parenthesized    = regexp.MustCompile(`\(.*?\)`)
	pluralStatements = regexp.MustCompile(`(?i)Statements`)
	pluralSheets     = regexp.MustCompile(`(?i)Sheets`)
	pluralFlows      = regexp.MustCompile(`(?i)Flows`)
)

// FetchReport downloads and parses one R-file report page.
func (p *Provider) FetchReport(ctx context.Context, reportURL string) (models.ReportData, error) {
	data, err := p.fetchSECRaw(ctx, reportURL)
	if err != nil {
		return models.ReportData{}, eris.Wrapf(err, "fetch report %s", reportURL)
	}
	return ParseReport(data)
}

// ParseReport extracts the header, the first period column and the
// label/value rows of an EDGAR report table. Rows whose first value is
// not numeric are omitted.
func ParseReport(html []byte) (models.ReportData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return models.ReportData{}, eris.Wrap(err, "parse report HTML")
	}

	rd := models.ReportData{Data: map[string]float64{}}

	if h := doc.Find("table.report th.tl strong").First(); h.Length() > 0 {
		rd.Header = collapse(h.Text())
	}
	rd.Header = CleanReportName(rd.Header)

	if th := doc.Find("table.report tr").First().Find("th.th"); th.Length() > 0 {
		rd.Period = collapse(th.First().Text())
	}

	doc.Find("table.report tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("th").Length() > 0 {
			return
		}
		label := collapse(row.Find("td.pl").First().Text())
		if label == "" {
			return
		}
		if v, ok := CleanValue(row.Find("td.nump").First().Text()); ok {
			rd.Data[label] = v
		}
	})

	return rd, nil
}

// CleanValue converts a report cell to a number: "(1,234)" is -1234,
// "$5,000" is 5000. Cells that are not finite numbers report false.
func CleanValue(cell string) (float64, bool) {
	v := strings.TrimSpace(cell)
	if negativeValue.MatchString(v) {
		v = "-" + strings.TrimSpace(stripChars(v, "$(),"))
	} else {
		v = strings.TrimSpace(stripChars(v, "$,"))
	}
	if v == "" || v == "-" {
		return 0, false
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// CleanReportName normalizes a report title: drops "Consolidated" and any
// parenthesized text, collapses whitespace and singularizes
// Statements, Sheets and Flows.
func CleanReportName(name string) string {
	name = consolidatedWord.ReplaceAllLiteralString(name, "")
	name = parenthesized.ReplaceAllLiteralString(name, "")
	name = whitespace.ReplaceAllLiteralString(name, " ")
	name = pluralStatements.ReplaceAllLiteralString(name, "Statement")
	name = pluralSheets.ReplaceAllLiteralString(name, "Sheet")
	name = pluralFlows.ReplaceAllLiteralString(name, "Flow")
	return strings.TrimSpace(name)
}

func collapse(s string) string {
	return whitespace.ReplaceAllLiteralString(strings.TrimSpace(s), " ")
}

func stripChars(s, chars string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return -1
		}
		return r
	}, s)
}
