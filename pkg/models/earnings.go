package models

// EarningsEvent is a row of the Yahoo Finance earnings calendar.
// Missing cells are reported as "N/A".
type EarningsEvent struct {
	Ticker           string `json:"ticker"`
	Company          string `json:"company"`
	Event            string `json:"event"`
	EarningsCallTime string `json:"earningsCallTime"`
	EPSEstimate      string `json:"epsEstimate"`
	EPSReported      string `json:"epsReported"`
	Surprise         string `json:"surprise"`
}

// EarningsCalendarEntry is one Alpha Vantage earnings calendar row: the CSV
// columns keyed by header, plus "symbol".
type EarningsCalendarEntry map[string]string

// Page slices items for a 1-based page of the given size and returns the
// page plus the offset of the next page, or nil when there is none.
func Page[T any](items []T, page, size int) ([]T, *int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 25
	}
	if size > len(items) {
		size = max(len(items), 1)
	}
	// Compare before multiplying so large page numbers cannot overflow.
	if page-1 >= (len(items)+size-1)/size {
		return []T{}, nil
	}
	start := (page - 1) * size
	end := start + size
	if end >= len(items) {
		return items[start:], nil
	}
	return items[start:end], &end
}
