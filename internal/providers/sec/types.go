package sec

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// --- Company tickers (www.sec.gov/files/company_tickers.json) ---
// The endpoint returns a map: {"0": {cik_str, ticker, title}, ...}

// edgarTickerEntry is a row from the CIK<->ticker mapping file.
type edgarTickerEntry struct {
	CIKStr flexString `json:"cik_str"`
	Ticker string     `json:"ticker"`
	Title  string     `json:"title"`
}

// --- EDGAR Submissions (data.sec.gov/submissions) ---

// edgarSubmissionsResponse is the subset of the company submissions
// document used by the parent company lookup.
type edgarSubmissionsResponse struct {
	CIK     flexString   `json:"cik"`
	Name    string       `json:"name"`
	Tickers []string     `json:"tickers"`
	Filings edgarFilings `json:"filings"`
}

type edgarFilings struct {
	Recent edgarFilingSet `json:"recent"`
}

type edgarFilingSet struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// --- FilingSummary.xml ---

// SummaryReport is a <Report> entry of a filing's FilingSummary.xml.
type SummaryReport struct {
	ShortName    string
	LongName     string
	HtmlFileName string
}

// MatchedReport is a summary report accepted by the classifier.
type MatchedReport struct {
	SummaryReport
	StatementType StatementType
}

// filingCandidate is an entry of the EDGAR filing list before its
// document has been resolved.
type filingCandidate struct {
	IndexURL  string
	DateFiled time.Time
	FormType  string
}

// flexString decodes a JSON string or number into a string.
// EDGAR serializes CIKs as numbers in some documents and strings in others.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// --- Helper for date parsing ---

func parseSECDate(s string) time.Time {
	s = strings.TrimSpace(s)
	// Try common SEC date formats.
	for _, layout := range []string{
		"2006-01-02",
		"2006-01-02T15:04:05.000Z",
		"01/02/2006",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
