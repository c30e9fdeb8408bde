package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"farefeed/internal/client"
	"farefeed/internal/config"
	"farefeed/internal/models"
	"farefeed/internal/query"
)

// Fare-type categories eligible for selection. Fares outside these are
// walk-up prices irrelevant to the cheapest-fare question.
var eligibleFareTypes = []string{"advance", "off-peak day single"}

var currencySymbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
}

type journeySearchRequest struct {
	TransitDefinitions    []transitDefinition `json:"transitDefinitions"`
	Type                  string              `json:"type"`
	MaximumJourneys       int                 `json:"maximumJourneys"`
	RequestedCurrencyCode string              `json:"requestedCurrencyCode"`
}

type transitDefinition struct {
	Direction   string      `json:"direction"`
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	JourneyDate journeyDate `json:"journeyDate"`
}

type journeyDate struct {
	Type string `json:"type"`
	Time string `json:"time"`
}

type journeyEntry struct {
	DepartAt string `json:"departAt"`
}

type fareEntry struct {
	FareType  string `json:"fareType"`
	FullPrice struct {
		Amount       json.Number `json:"amount"`
		CurrencyCode string      `json:"currencyCode"`
	} `json:"fullPrice"`
	Availability struct {
		Remaining *int `json:"remaining"`
	} `json:"availability"`
}

type fareType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type journeySearchResponse struct {
	Data struct {
		JourneySearch struct {
			Journeys map[string]journeyEntry `json:"journeys"`
			Fares    map[string]fareEntry    `json:"fares"`
		} `json:"journeySearch"`
		FareTypes map[string]fareType `json:"fareTypes"`
	} `json:"data"`
}

// Engine turns a resolved travel query into an ordered list of fare
// quotes, one probe per departure date, issued strictly sequentially
// with a fixed inter-probe delay.
type Engine struct {
	client *client.Client
	cfg    *config.Config
}

func New(c *client.Client, cfg *config.Config) *Engine {
	return &Engine{client: c, cfg: cfg}
}

// Evaluate probes every date of the query's time plan. Each failed
// probe degrades to a not-found quote for its date; a bot-detection
// response aborts the whole evaluation with client.ErrBotDetected.
func (e *Engine) Evaluate(ctx context.Context, q *query.TravelQuery, now time.Time) ([]models.FareQuote, error) {
	dates := q.Plan.ProbeDates(now)
	searchURL := e.cfg.ProviderURL + e.cfg.JourneyURI

	// First probe goes out immediately, the rest wait out the delay.
	limiter := rate.NewLimiter(rate.Every(e.cfg.ProbeDelay), 1)

	quotes := make([]models.FareQuote, 0, len(dates))
	for _, date := range dates {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := json.Marshal(e.buildRequest(q, date))
		if err != nil {
			return nil, fmt.Errorf("failed to encode journey search request: %v", err)
		}

		log.Printf("%s - querying endpoint: %s", q.Journey, searchURL)

		respBody, err := e.client.Post(ctx, searchURL, body)
		if err != nil {
			if errors.Is(err, client.ErrBotDetected) {
				return nil, err
			}
			log.Printf("%s - probe for %s failed: %v", q.Journey, date.Format(time.RFC3339), err)
			quotes = append(quotes, notFound(date))
			continue
		}

		quote, ok := e.parseProbe(q, date, respBody)
		if !ok {
			quotes = append(quotes, notFound(date))
			continue
		}
		quotes = append(quotes, quote)
	}

	return quotes, nil
}

func (e *Engine) buildRequest(q *query.TravelQuery, date time.Time) journeySearchRequest {
	return journeySearchRequest{
		TransitDefinitions: []transitDefinition{
			{
				Direction:   "outward",
				Origin:      q.FromID,
				Destination: q.ToID,
				JourneyDate: journeyDate{
					Type: "departAfter",
					Time: date.Format("2006-01-02T15:04:05"),
				},
			},
		},
		Type:                  "single",
		MaximumJourneys:       1,
		RequestedCurrencyCode: e.cfg.Currency,
	}
}

// parseProbe extracts the authoritative departure and the selected fare
// from one journey-search response. A probe can succeed yet record no
// fare (empty fare mapping); that still counts as not found.
func (e *Engine) parseProbe(q *query.TravelQuery, probeDate time.Time, body []byte) (models.FareQuote, bool) {
	var response journeySearchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		log.Printf("%s - failed to decode journey search response: %v", q.Journey, err)
		return models.FareQuote{}, false
	}

	search := response.Data.JourneySearch

	// The provider returns the soonest matching journey first; with
	// maximumJourneys=1 the earliest departAt is that journey.
	departure := probeDate
	if departAt, ok := earliestDeparture(search.Journeys); ok {
		departure = departAt
	}

	if len(search.Fares) == 0 {
		return models.FareQuote{}, false
	}

	fareKey, found := selectFare(search.Fares, response.Data.FareTypes)
	if !found {
		return models.FareQuote{}, false
	}
	fare := search.Fares[fareKey]
	typeName := response.Data.FareTypes[fare.FareType].Name

	return models.FareQuote{
		ProbeDate: probeDate,
		Departure: departure,
		Price:     e.formatPrice(q, fare, typeName),
		Found:     true,
	}, true
}

// The provider reports departAt both with and without a zone offset.
var departureLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

func earliestDeparture(journeys map[string]journeyEntry) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, journey := range journeys {
		departAt, err := parseDeparture(journey.DepartAt)
		if err != nil {
			continue
		}
		if !found || departAt.Before(earliest) {
			earliest = departAt
			found = true
		}
	}
	return earliest, found
}

func parseDeparture(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range departureLayouts {
		departAt, err := time.Parse(layout, value)
		if err == nil {
			return departAt, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// selectFare restricts fares to the eligible categories, then picks the
// minimum parseable full price; ties break on the lexicographically
// smallest fare key so selection is deterministic.
func selectFare(fares map[string]fareEntry, fareTypes map[string]fareType) (string, bool) {
	var candidates []string
	for key, fare := range fares {
		typeName := strings.ToLower(fareTypes[fare.FareType].Name)
		for _, eligible := range eligibleFareTypes {
			if strings.Contains(typeName, eligible) {
				candidates = append(candidates, key)
				break
			}
		}
	}

	if len(candidates) == 0 {
		return "", false
	}

	sort.Strings(candidates)

	selected := ""
	var lowest decimal.Decimal
	for _, key := range candidates {
		amount, err := decimal.NewFromString(fares[key].FullPrice.Amount.String())
		if err != nil {
			log.Printf("Skipping fare %s with unparseable amount %q", key, fares[key].FullPrice.Amount)
			continue
		}
		if selected == "" || amount.LessThan(lowest) {
			selected = key
			lowest = amount
		}
	}
	if selected == "" {
		return "", false
	}
	return selected, true
}

func (e *Engine) formatPrice(q *query.TravelQuery, fare fareEntry, typeName string) string {
	amount, err := decimal.NewFromString(fare.FullPrice.Amount.String())
	if err != nil {
		return "Not found"
	}

	currencyCode := fare.FullPrice.CurrencyCode
	if currencyCode == "" {
		currencyCode = e.cfg.Currency
	}
	symbol, ok := currencySymbols[currencyCode]
	if !ok {
		symbol = currencyCode + " "
	}

	price := symbol + amount.StringFixed(2)
	if typeName != "" {
		price += " (" + typeName + ")"
	}
	if q.ShowSeats && fare.Availability.Remaining != nil {
		price += fmt.Sprintf(" (%d left)", *fare.Availability.Remaining)
	}
	return price
}

func notFound(probeDate time.Time) models.FareQuote {
	return models.FareQuote{
		ProbeDate: probeDate,
		Departure: probeDate,
		Price:     "Not found",
		Found:     false,
	}
}
