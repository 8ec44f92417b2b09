package sec

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/rotisserie/eris"
)

// StatementType names a financial statement category.
type StatementType string

const (
	IncomeStatement     StatementType = "incomeStatement"
	BalanceSheet        StatementType = "balanceSheet"
	CashFlow            StatementType = "cashFlow"
	ComprehensiveIncome StatementType = "comprehensiveIncome"
	Equity              StatementType = "equity"
)

// statementKeywords lists, in match priority, the uppercase report name
// fragments that identify each statement category.
var statementKeywords = []struct {
	Type     StatementType
	Keywords []string
}{
	{IncomeStatement, []string{
		"STATEMENTS OF OPERATIONS",
		"STATEMENT OF OPERATIONS",
		"STATEMENTS OF INCOME",
		"STATEMENT OF INCOME",
		"INCOME STATEMENTS",
		"INCOME STATEMENT",
		"PROFIT AND LOSS",
		"CONSOLIDATED STATEMENTS OF OPERATIONS",
		"CONSOLIDATED STATEMENT OF OPERATIONS",
		"CONSOLIDATED INCOME STATEMENTS",
		"CONSOLIDATED INCOME STATEMENT",
		"CONSOLIDATED STATEMENT OF EARNINGS",
		"CONSOLIDATED STATEMENTS OF EARNINGS",
		"STATEMENTS OF EARNINGS",
		"STATEMENT OF EARNINGS",
		"COMPREHENSIVE INCOME STATEMENTS",
		"COMPREHENSIVE INCOME STATEMENT",
		"CONSOLIDATED COMPREHENSIVE INCOME STATEMENT",
		"CONSOLIDATED COMPREHENSIVE INCOME STATEMENTS",
	}},
	{BalanceSheet, []string{
		"BALANCE SHEETS",
		"BALANCE SHEET",
		"STATEMENTS OF FINANCIAL POSITION",
		"STATEMENT OF FINANCIAL POSITION",
		"CONSOLIDATED BALANCE SHEETS",
		"CONSOLIDATED BALANCE SHEET",
		"STATEMENTS OF ASSETS AND LIABILITIES",
		"STATEMENT OF ASSETS AND LIABILITIES",
		"STATEMENTS OF FINANCIAL CONDITION",
		"STATEMENT OF FINANCIAL CONDITION",
	}},
	{CashFlow, []string{
		"STATEMENTS OF CASH FLOWS",
		"STATEMENT OF CASH FLOWS",
		"CASH FLOW STATEMENTS",
		"CASH FLOW STATEMENT",
		"CONSOLIDATED STATEMENTS OF CASH FLOWS",
		"CONSOLIDATED STATEMENT OF CASH FLOWS",
		"CASH FLOWS STATEMENT",
		"STATEMENT OF CASH FLOW",
	}},
	{ComprehensiveIncome, []string{
		"STATEMENTS OF COMPREHENSIVE INCOME",
		"STATEMENT OF COMPREHENSIVE INCOME",
		"CONSOLIDATED STATEMENTS OF COMPREHENSIVE INCOME",
		"CONSOLIDATED STATEMENT OF COMPREHENSIVE INCOME",
		"COMPREHENSIVE INCOME STATEMENTS",
		"COMPREHENSIVE INCOME STATEMENT",
		"STATEMENTS OF OTHER COMPREHENSIVE INCOME",
		"STATEMENT OF OTHER COMPREHENSIVE INCOME",
	}},
	{Equity, []string{
		"STATEMENTS OF STOCKHOLDERS’ EQUITY",
		"STATEMENT OF STOCKHOLDERS’ EQUITY",
		"STATEMENTS OF CHANGES IN STOCKHOLDERS’ EQUITY",
		"STATEMENT OF CHANGES IN STOCKHOLDERS’ EQUITY",
		"STATEMENTS OF CHANGES IN EQUITY",
		"STATEMENT OF CHANGES IN EQUITY",
		"CONSOLIDATED STATEMENTS OF EQUITY",
		"CONSOLIDATED STATEMENT OF EQUITY",
		"STATEMENTS OF SHAREHOLDERS' EQUITY",
		"STATEMENT OF SHAREHOLDERS' EQUITY",
	}},
}

// excludedKeywords reject parenthetical and supplemental reports.
var excludedKeywords = []string{
	"PARENTHETICAL",
	"PARENT COMPANY",
	"TABLES",
	"SCHEDULE",
	"DETAILS",
}

// Classify returns the statement category of a report short name, or
// false when the report is excluded or matches no category.
func Classify(shortName string) (StatementType, bool) {
	name := strings.ToUpper(strings.TrimSpace(shortName))
	for _, kw := range excludedKeywords {
		if strings.Contains(name, kw) {
			return "", false
		}
	}
	for _, group := range statementKeywords {
		for _, kw := range group.Keywords {
			if strings.Contains(name, kw) {
				return group.Type, true
			}
		}
	}
	return "", false
}

// ClassifyReports keeps the financial statement reports of a filing
// summary, in summary order. Each report appears at most once.
func ClassifyReports(reports []SummaryReport) []MatchedReport {
	var out []MatchedReport
	for _, r := range reports {
		if t, ok := Classify(r.ShortName); ok {
			out = append(out, MatchedReport{SummaryReport: r, StatementType: t})
		}
	}
	return out
}

// ParseFilingSummary reads FilingSummary/MyReports/Report entries.
func ParseFilingSummary(data []byte) ([]SummaryReport, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "parse FilingSummary.xml")
	}

	nodes := xmlquery.Find(doc, "//FilingSummary/MyReports/Report")
	reports := make([]SummaryReport, 0, len(nodes))
	for _, n := range nodes {
		reports = append(reports, SummaryReport{
			ShortName:    childText(n, "ShortName"),
			LongName:     childText(n, "LongName"),
			HtmlFileName: childText(n, "HtmlFileName"),
		})
	}
	return reports, nil
}
