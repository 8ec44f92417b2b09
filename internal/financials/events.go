package financials

import (
	"time"

	"github.com/seenimoa/earningsinsights/pkg/models"
)

// EventType names a pipeline progress event.
type EventType string

const (
	EventFilingCached  EventType = "filing_cached"
	EventFilingScraped EventType = "filing_scraped"
	EventFilingFailed  EventType = "filing_failed"
	EventYahooScraped  EventType = "yahoo_scraped"
)

// Event reports progress of a scrape.
type Event struct {
	Type     EventType       `json:"type"`
	Symbol   string          `json:"symbol"`
	FormType models.FormType `json:"formType,omitempty"`
	Year     int             `json:"year,omitempty"`
	URL      string          `json:"url,omitempty"`
	Reports  int             `json:"reports,omitempty"`
	Cached   bool            `json:"cached,omitempty"`
	Error    string          `json:"error,omitempty"`
	Time     time.Time       `json:"time"`
}

// EventSink receives pipeline events. Publish must not block.
type EventSink interface {
	Publish(Event)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// SinkFunc adapts a function to an EventSink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }
