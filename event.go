package docsite

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies the kind of tracked interaction.
type EventType string

// Tracked event types.
const (
	EventPageView     EventType = "page_view"
	EventLinkClick    EventType = "link_click"
	EventScrollDepth  EventType = "scroll_depth"
	EventPageExit     EventType = "page_exit"
	EventSearchOpened EventType = "search_opened"
	EventCodeCopied   EventType = "code_copied"
)

// PageInfo is the page context attached to every event.
type PageInfo struct {
	Path   string  `json:"path"`
	Hash   *string `json:"hash"`
	Search *string `json:"search"`
	Title  string  `json:"title"`
}

// BrowserContext holds coarse, non-identifying browser categories.
type BrowserContext struct {
	ViewportCategory string  `json:"viewportCategory"`
	BrowserFamily    string  `json:"browserFamily"`
	DeviceType       string  `json:"deviceType"`
	Language         string  `json:"language"`
	TimezoneOffset   float64 `json:"timezoneOffset"`
}

// Event is a single analytics record. Events are immutable once queued.
type Event struct {
	Time             time.Time
	Type             EventType
	SessionID        string
	SessionPageCount int
	Page             PageInfo
	Browser          BrowserContext
	Properties       map[string]any
}

// MarshalJSON writes the flat ingest form. Properties are written last and
// override context fields of the same name.
func (e *Event) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"_time":            e.Time.UTC().Format(time.RFC3339Nano),
		"eventType":        e.Type,
		"sessionId":        e.SessionID,
		"sessionPageCount": e.SessionPageCount,
		"path":             e.Page.Path,
		"hash":             e.Page.Hash,
		"search":           e.Page.Search,
		"title":            e.Page.Title,
		"viewportCategory": e.Browser.ViewportCategory,
		"browserFamily":    e.Browser.BrowserFamily,
		"deviceType":       e.Browser.DeviceType,
		"language":         e.Browser.Language,
		"timezoneOffset":   e.Browser.TimezoneOffset,
	}
	for k, v := range e.Properties {
		switch k {
		case "_time", "eventType", "sessionId":
			continue
		}
		m[k] = v
	}
	return json.Marshal(m)
}

// Location describes the page the reader is currently on.
type Location struct {
	Path     string
	Hash     string
	Search   string
	Title    string
	Referrer string
	Hostname string
}

// Browser describes the host browser. Only coarse categories derived from it
// ever leave the collector.
type Browser struct {
	UserAgent             string
	Language              string
	ViewportWidth         int
	TimezoneOffsetMinutes int
	DoNotTrack            bool
}

// Link describes a clicked anchor.
type Link struct {
	Href    string
	Text    string
	Context string // "navigation", "footer", "content", "other"
	Section string // nearest preceding heading, if any
	Index   int    // 1-based position among anchors sharing Href
}

// Ingester transmits event batches to the ingestion endpoint.
type Ingester interface {
	// Ingest sends the batch. Transient failures (network, 429, 5xx) are
	// reported with code EUNAVAILABLE.
	Ingest(ctx context.Context, events []*Event) error
}
