package query

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// QueryLimit caps the repetition count of a recurring schedule when no
// configured limit is supplied.
const QueryLimit = 5

// Validation and enrichment error messages, kept aligned with the
// responses the service has always returned.
const (
	errInvalidStationCodes = "Invalid station code(s)"
	errInvalidTime         = "Invalid departure time"
	errInvalidDate         = "Invalid departure date"
	errDatePassed          = "Departure date has passed"
	errInvalidWeeks        = "Invalid week count"
	errInvalidSchedule     = "Invalid schedule expression"
	errInvalidCount        = "Invalid repeat count"
	errInvalidSkip         = "Invalid week offset"
	errInvalidSeats        = "Invalid seats flag"
	errMissingStationIDs   = "Missing station id(s)"
)

var truthyValues = map[string]bool{"true": true, "y": true, "yes": true}

// StationResolver maps a station code to a provider location id, or ""
// when resolution fails.
type StationResolver interface {
	Resolve(ctx context.Context, code string) string
}

// RawParams carries the untrusted string parameters of one fare
// inquiry, exactly as supplied by the caller.
type RawParams struct {
	From     string
	To       string
	Time     string // HHMM
	Date     string // YYYYMMDD
	Schedule string // 5-field cron expression, selects the recurring variant
	Count    string
	Skip     string
	Weeks    string
	Seats    string
}

// TravelQuery is one validated fare inquiry. FromID/ToID stay empty
// until resolution succeeds; the query is usable downstream only when
// Status.OK() holds.
type TravelQuery struct {
	FromCode  string
	ToCode    string
	FromID    string
	ToID      string
	Journey   string
	Plan      TimePlan
	ShowSeats bool
	Status    Status

	limit int
}

// New validates raw parameters into a TravelQuery, accumulating every
// violated rule, then - only if the fields are clean - enriches the
// query with station ids, the journey label and the concrete time plan.
// Enrichment failures append to the status instead of raising; callers
// must check Status.OK() before using the query. limit caps the
// repetition count of a recurring schedule; non-positive values fall
// back to QueryLimit.
func New(ctx context.Context, raw RawParams, now time.Time, resolver StationResolver, limit int) *TravelQuery {
	q := &TravelQuery{
		FromCode:  strings.ToUpper(raw.From),
		ToCode:    strings.ToUpper(raw.To),
		ShowSeats: truthyValues[strings.ToLower(raw.Seats)],
		limit:     limit,
	}
	if q.limit <= 0 {
		q.limit = QueryLimit
	}

	q.validate(raw, now)
	if !q.Status.OK() {
		return q
	}

	q.enrich(ctx, raw, now, resolver)
	return q
}

func (q *TravelQuery) validate(raw RawParams, now time.Time) {
	q.validateStationCodes(raw)

	if raw.Schedule != "" {
		q.validateSchedule(raw)
	} else {
		q.validateDepartureTime(raw)
		q.validateDepartureDate(raw, now)
		q.validateWeeksAhead(raw)
	}

	q.validateSeatsFlag(raw)
}

func (q *TravelQuery) validateStationCodes(raw RawParams) {
	if !isStationCode(raw.From) || !isStationCode(raw.To) {
		q.Status.Add(errInvalidStationCodes)
	}
}

func (q *TravelQuery) validateDepartureTime(raw RawParams) {
	if raw.Time == "" {
		return
	}
	if len(raw.Time) != 4 || !isNumeric(raw.Time) {
		q.Status.Add(errInvalidTime)
	}
}

func (q *TravelQuery) validateDepartureDate(raw RawParams, now time.Time) {
	if raw.Date == "" {
		return
	}
	if len(raw.Date) != 8 || !isNumeric(raw.Date) {
		q.Status.Add(errInvalidDate)
		return
	}

	date, err := time.ParseInLocation("20060102", raw.Date, now.Location())
	if err != nil {
		q.Status.Add(errInvalidDate)
		return
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		q.Status.Add(errDatePassed)
	}
}

func (q *TravelQuery) validateWeeksAhead(raw RawParams) {
	if raw.Weeks == "" {
		return
	}
	if !isNumeric(raw.Weeks) {
		q.Status.Add(errInvalidWeeks)
	}
}

func (q *TravelQuery) validateSchedule(raw RawParams) {
	if _, err := parseSchedule(raw.Schedule); err != nil {
		q.Status.Add(errInvalidSchedule)
	}

	if !isNumeric(raw.Count) {
		q.Status.Add(errInvalidCount)
	} else if count, _ := strconv.Atoi(raw.Count); count < 1 || count > q.limit {
		q.Status.Add(errInvalidCount)
	}

	if raw.Skip != "" && !isNumeric(raw.Skip) {
		q.Status.Add(errInvalidSkip)
	}
}

func (q *TravelQuery) validateSeatsFlag(raw RawParams) {
	if raw.Seats == "" {
		return
	}
	if !isAlpha(raw.Seats) {
		q.Status.Add(errInvalidSeats)
	}
}

func (q *TravelQuery) enrich(ctx context.Context, raw RawParams, now time.Time, resolver StationResolver) {
	q.FromID = resolver.Resolve(ctx, q.FromCode)
	q.ToID = resolver.Resolve(ctx, q.ToCode)
	if q.FromID == "" || q.ToID == "" {
		q.Status.Add(errMissingStationIDs)
	}

	q.Journey = q.FromCode + ">" + q.ToCode

	if raw.Schedule != "" {
		schedule, err := parseSchedule(raw.Schedule)
		if err != nil {
			// validated above; only reachable if validation was skipped
			q.Status.Add(errInvalidSchedule)
			return
		}
		count, _ := strconv.Atoi(raw.Count)
		skip := 0
		if raw.Skip != "" {
			skip, _ = strconv.Atoi(raw.Skip)
		}
		q.Plan = RecurringSchedule{schedule: schedule, Count: count, SkipWeeks: skip}
		return
	}

	// Empty components default to the current date and time, matching
	// the documented parameter defaults.
	dateStr, timeStr := raw.Date, raw.Time
	if dateStr == "" {
		dateStr = now.Format("20060102")
	}
	if timeStr == "" {
		timeStr = now.Format("1504")
	}
	timestamp, err := time.ParseInLocation("200601021504", dateStr+timeStr, now.Location())
	if err != nil {
		// Blame the component that actually failed: a digit-valid time
		// like 2500 passes field validation but not parsing.
		if _, dateErr := time.ParseInLocation("20060102", dateStr, now.Location()); dateErr == nil {
			q.Status.Add(errInvalidTime)
		} else {
			q.Status.Add(errInvalidDate)
		}
		return
	}
	weeks := 0
	if raw.Weeks != "" {
		weeks, _ = strconv.Atoi(raw.Weeks)
	}
	q.Plan = ExplicitDeparture{Timestamp: timestamp, WeeksAhead: weeks}
}

func isStationCode(s string) bool {
	return len(s) == 3 && isAlpha(s)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, char := range s {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z')) {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, char := range s {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}
