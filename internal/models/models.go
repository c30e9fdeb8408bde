package models

import (
	"time"
)

// JSONFeedVersion is the version URL carried by every produced document.
const JSONFeedVersion = "https://jsonfeed.org/version/1.1"

// FareQuote is the outcome of one probe: the evaluated departure window
// and its formatted price, or a not-found marker when the probe yielded
// no usable answer.
type FareQuote struct {
	ProbeDate time.Time `json:"probe_date"`
	Departure time.Time `json:"departure"`
	Price     string    `json:"price"`
	Found     bool      `json:"found"`
}

// FeedItem is a single entry of a JSON feed document.
type FeedItem struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	ContentHTML   string `json:"content_html"`
	DatePublished string `json:"date_published"`
}

// FeedDocument is the top-level JSON feed envelope served to feed readers.
type FeedDocument struct {
	Version     string     `json:"version"`
	Title       string     `json:"title"`
	HomePageURL string     `json:"home_page_url"`
	Favicon     string     `json:"favicon"`
	Items       []FeedItem `json:"items"`
}

// FareRecord is a persisted fare quote for one journey evaluation.
type FareRecord struct {
	Journey   string    `json:"journey"`
	ProbeDate time.Time `json:"probe_date"`
	Departure time.Time `json:"departure"`
	Price     string    `json:"price"`
	Found     bool      `json:"found"`
	CreatedAt time.Time `json:"created_at"`
}

// JourneyInfo represents stored history metadata for a journey
type JourneyInfo struct {
	Journey     string    `json:"journey"`
	RecordCount int       `json:"record_count"`
	LastUpdated time.Time `json:"last_updated"`
}
