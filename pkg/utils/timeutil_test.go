package utils

import (
	"testing"
	"time"
)

func TestNowET(t *testing.T) {
	now := NowET()
	if now.Location().String() != "America/New_York" && now.Location().String() != "EST" {
		t.Errorf("NowET() location = %s, want America/New_York or EST", now.Location().String())
	}
}

func TestTodayET(t *testing.T) {
	if _, err := time.Parse("2006-01-02", TodayET()); err != nil {
		t.Errorf("TodayET() = %q, not a date: %v", TodayET(), err)
	}
}

func TestQuarterOf(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string // "" means nil
	}{
		{time.January, "Q1"},
		{time.March, "Q1"},
		{time.April, "Q2"},
		{time.June, "Q2"},
		{time.July, "Q3"},
		{time.September, "Q3"},
		{time.October, ""},
		{time.December, ""},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			got := QuarterOf(time.Date(2024, tt.month, 15, 0, 0, 0, 0, time.UTC))
			switch {
			case tt.want == "" && got != nil:
				t.Errorf("QuarterOf(%s) = %q, want nil", tt.month, *got)
			case tt.want != "" && (got == nil || *got != tt.want):
				t.Errorf("QuarterOf(%s) = %v, want %q", tt.month, got, tt.want)
			}
		})
	}
}

func TestValidCalendarDate(t *testing.T) {
	tests := []struct {
		y, m, d int
		want    bool
	}{
		{2023, 12, 31, true},
		{2024, 2, 29, true},
		{2023, 2, 29, false},
		{2023, 13, 1, false},
		{2023, 4, 31, false},
		{2023, 1, 0, false},
	}
	for _, tt := range tests {
		if got := ValidCalendarDate(tt.y, tt.m, tt.d); got != tt.want {
			t.Errorf("ValidCalendarDate(%d, %d, %d) = %v, want %v", tt.y, tt.m, tt.d, got, tt.want)
		}
	}
}
