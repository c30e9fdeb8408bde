package feed

import (
	"strings"
	"time"

	"farefeed/internal/config"
	"farefeed/internal/models"
	"farefeed/internal/query"
)

// Assembler converts the quotes of one query evaluation into a JSON
// feed document. Pure formatting: whatever the quotes carry (prices or
// not-found markers) goes into the item content as-is.
type Assembler struct {
	domain  string
	baseURL string
}

func NewAssembler(cfg *config.Config) *Assembler {
	return &Assembler{
		domain:  cfg.ProviderDomain,
		baseURL: cfg.ProviderURL,
	}
}

// Document wraps the evaluated quotes into a single feed item plus the
// document envelope. Quotes are rendered in probe order, one line per
// probe date.
func (a *Assembler) Document(q *query.TravelQuery, quotes []models.FareQuote, now time.Time) *models.FeedDocument {
	title := a.domain + " - " + q.Journey
	generated := now.Format(time.RFC3339)

	var content strings.Builder
	for _, quote := range quotes {
		content.WriteString("<p>")
		content.WriteString(isoMinutes(quote.Departure))
		content.WriteString(": ")
		content.WriteString(quote.Price)
		content.WriteString("</p>")
	}
	content.WriteString("<p>Last updated: ")
	content.WriteString(isoMinutes(now))
	content.WriteString("</p>")

	item := models.FeedItem{
		ID:            generated,
		URL:           a.baseURL,
		Title:         title,
		ContentHTML:   content.String(),
		DatePublished: generated,
	}

	return &models.FeedDocument{
		Version:     models.JSONFeedVersion,
		Title:       title,
		HomePageURL: a.baseURL,
		Favicon:     a.baseURL + "/favicon.ico",
		Items:       []models.FeedItem{item},
	}
}

// isoMinutes formats a timestamp with minute precision, using Z for
// UTC instead of a +00:00 offset.
func isoMinutes(t time.Time) string {
	formatted := t.Format("2006-01-02T15:04-07:00")
	return strings.Replace(formatted, "+00:00", "Z", 1)
}
