package models

// --- Yahoo Finance statement tables ---

// YahooRow is one statement line. Metric is indented two spaces per
// nesting level; values are the raw cell texts with thousands separators removed.
type YahooRow struct {
	Metric string   `json:"metric"`
	Values []string `json:"values"`
}

// YahooTable is a scraped statement table.
type YahooTable struct {
	Headers []string   `json:"headers"`
	Rows    []YahooRow `json:"rows"`
}

// YahooFinancials groups the three statements scraped for a ticker.
type YahooFinancials struct {
	IncomeStatement YahooTable `json:"incomeStatement"`
	BalanceSheet    YahooTable `json:"balanceSheet"`
	CashFlow        YahooTable `json:"cashFlow"`
}
