package models

import (
	"encoding/json"
	"strings"
	"time"
)

// --- SEC Filings ---

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date serialized as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// Equal reports whether both dates denote the same instant.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts "YYYY-MM-DD", an RFC 3339 timestamp, or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

// FormType is an SEC periodic report form.
type FormType string

const (
	Form10K FormType = "10-K" // annual report
	Form10Q FormType = "10-Q" // quarterly report
)

// Filing is a resolved 10-K/10-Q filing. URL points at the filing's
// FilingSummary.xml and identifies the filing.
type Filing struct {
	DateFiled      Date     `json:"dateFiled"`
	FormType       FormType `json:"formType"`
	URL            string   `json:"url"`
	PeriodOfReport Date     `json:"periodOfReport"`
}

// Year returns the calendar year of the reporting period.
func (f Filing) Year() int {
	return f.PeriodOfReport.Year()
}

// ReportData is a single parsed financial statement table.
// Data holds only finite numeric values keyed by row label.
type ReportData struct {
	Header string             `json:"header"`
	Period string             `json:"period"`
	Data   map[string]float64 `json:"data"`
}

// ReportRecord is one financial statement extracted from a filing.
type ReportRecord struct {
	CompanyTicker  string     `json:"companyTicker"`
	ReportName     string     `json:"reportName"`
	StatementType  string     `json:"statementType,omitempty"`
	Data           ReportData `json:"data"`
	PeriodOfReport Date       `json:"periodOfReport"`
	DateFiled      Date       `json:"dateFiled"`
	FormType       FormType   `json:"formType"`
	Quarter        *string    `json:"quarter"` // nil for Q4
}

// FinancialData is the per-filing item returned by the scrape API.
type FinancialData struct {
	Symbol   string         `json:"symbol"`
	FormType FormType       `json:"formType"`
	Year     int            `json:"year"`
	Data     []ReportRecord `json:"data"`
	Cached   bool           `json:"cached"`
}

// CIKMapping represents a mapping from ticker/name to CIK number.
type CIKMapping struct {
	CIK    string `json:"cik"`
	Symbol string `json:"symbol,omitempty"`
	Name   string `json:"name"`
}
