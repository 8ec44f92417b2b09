package yfinance

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/seenimoa/earningsinsights/pkg/models"
)

var levelPattern = regexp.MustCompile(`lv-(\d+)`)

// ParseFinancialTable extracts a statement table from a rendered Yahoo
// Finance financials page. Nested rows are indented two spaces per level.
// Rows without a title or values are skipped.
func ParseFinancialTable(html string) (models.YahooTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.YahooTable{}, eris.Wrap(err, "parse statement page")
	}

	table := models.YahooTable{Headers: []string{}, Rows: []models.YahooRow{}}
	doc.Find(".tableHeader .row .column").Each(func(_ int, s *goquery.Selection) {
		table.Headers = append(table.Headers, strings.TrimSpace(s.Text()))
	})

	doc.Find(".tableBody .row").Each(func(_ int, row *goquery.Selection) {
		title := strings.TrimSpace(row.Find(".rowTitle").Text())
		if title == "" {
			return
		}

		var values []string
		row.Find(".column").Each(func(i int, cell *goquery.Selection) {
			if i > 0 {
				values = append(values, strings.ReplaceAll(strings.TrimSpace(cell.Text()), ",", ""))
			}
		})
		if len(values) == 0 {
			return
		}

		table.Rows = append(table.Rows, models.YahooRow{
			Metric: strings.Repeat("  ", rowLevel(row.AttrOr("class", ""))) + title,
			Values: values,
		})
	})
	return table, nil
}

func rowLevel(class string) int {
	m := levelPattern.FindStringSubmatch(class)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// ParseEarningsCalendar extracts the rows of a rendered earnings calendar
// page. Missing or blank cells read "N/A".
func ParseEarningsCalendar(html string) ([]models.EarningsEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "parse earnings calendar")
	}

	events := []models.EarningsEvent{}
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		cell := func(i int) string {
			if i >= cells.Length() {
				return "N/A"
			}
			if text := strings.TrimSpace(cells.Eq(i).Text()); text != "" {
				return text
			}
			return "N/A"
		}
		events = append(events, models.EarningsEvent{
			Ticker:           cell(0),
			Company:          cell(1),
			Event:            cell(2),
			EarningsCallTime: cell(3),
			EPSEstimate:      cell(4),
			EPSReported:      cell(5),
			Surprise:         cell(6),
		})
	})
	return events, nil
}
