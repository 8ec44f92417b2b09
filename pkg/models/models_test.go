package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

// ── Date Tests ──

func TestDateJSON(t *testing.T) {
	d := NewDate(2023, time.December, 31)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("json.Marshal(Date) error: %v", err)
	}
	if string(data) != `"2023-12-31"` {
		t.Errorf("Date JSON = %s, want \"2023-12-31\"", data)
	}

	var decoded Date
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal(Date) error: %v", err)
	}
	if !decoded.Equal(d) {
		t.Errorf("decoded = %v, want %v", decoded, d)
	}
}

func TestDateZeroIsNull(t *testing.T) {
	data, err := json.Marshal(Date{})
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("zero Date JSON = %s, want null", data)
	}

	var d Date
	if err := json.Unmarshal([]byte("null"), &d); err != nil {
		t.Fatalf("json.Unmarshal(null) error: %v", err)
	}
	if !d.IsZero() {
		t.Errorf("expected zero date, got %v", d)
	}
}

func TestDateAcceptsRFC3339(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2023-09-30T00:00:00.000Z"`), &d); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if d.String() != "2023-09-30" {
		t.Errorf("String() = %q, want 2023-09-30", d.String())
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.February || d.Day() != 29 {
		t.Errorf("ParseDate = %v", d)
	}
	if _, err := ParseDate("2023-02-29"); err == nil {
		t.Error("expected error for invalid date")
	}
}

// ── Filing Tests ──

func TestReportRecordJSON(t *testing.T) {
	q := "Q2"
	r := ReportRecord{
		CompanyTicker: "AAPL",
		ReportName:    "Balance Sheet",
		StatementType: "balanceSheet",
		Data: ReportData{
			Header: "Balance Sheet - USD ($) $ in Millions",
			Period: "Jul. 01, 2023",
			Data:   map[string]float64{"Total assets": 335038},
		},
		PeriodOfReport: NewDate(2023, time.July, 1),
		DateFiled:      NewDate(2023, time.August, 4),
		FormType:       Form10Q,
		Quarter:        &q,
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal(ReportRecord) error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	for _, key := range []string{"companyTicker", "reportName", "data", "periodOfReport", "dateFiled", "formType", "quarter"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing JSON key %q", key)
		}
	}
	if raw["periodOfReport"] != "2023-07-01" {
		t.Errorf("periodOfReport = %v", raw["periodOfReport"])
	}
	if raw["quarter"] != "Q2" {
		t.Errorf("quarter = %v", raw["quarter"])
	}
}

func TestReportRecordNilQuarter(t *testing.T) {
	data, err := json.Marshal(ReportRecord{FormType: Form10Q})
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	v, ok := raw["quarter"]
	if !ok || v != nil {
		t.Errorf("quarter = %v (present %v), want explicit null", v, ok)
	}
}

func TestFilingYear(t *testing.T) {
	f := Filing{PeriodOfReport: NewDate(2023, time.September, 30)}
	if f.Year() != 2023 {
		t.Errorf("Year() = %d, want 2023", f.Year())
	}
}

// ── Pagination Tests ──

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got, next := Page(items, 1, 2)
	if len(got) != 2 || got[0] != 1 || next == nil || *next != 2 {
		t.Errorf("page 1: got %v next %v", got, next)
	}

	got, next = Page(items, 3, 2)
	if len(got) != 1 || got[0] != 5 || next != nil {
		t.Errorf("page 3: got %v next %v", got, next)
	}

	got, next = Page(items, 4, 2)
	if len(got) != 0 || next != nil {
		t.Errorf("page 4: got %v next %v", got, next)
	}

	got, _ = Page(items, 0, 0)
	if len(got) != 5 {
		t.Errorf("defaults: got %v", got)
	}
}

func TestPageHugeValues(t *testing.T) {
	items := []int{1, 2, 3}

	cases := []struct {
		name       string
		page, size int
		want       int
	}{
		{"huge page", 1<<62 + 1, 2, 0},
		{"max page", math.MaxInt, 25, 0},
		{"huge size", 1, math.MaxInt, 3},
		{"huge page and size", math.MaxInt, math.MaxInt, 0},
		{"empty input", 1, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := items
			if tc.name == "empty input" {
				in = nil
			}
			got, next := Page(in, tc.page, tc.size)
			if len(got) != tc.want || next != nil {
				t.Errorf("Page(%d, %d) = %v, next %v", tc.page, tc.size, got, next)
			}
		})
	}
}
