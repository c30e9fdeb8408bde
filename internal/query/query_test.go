package query

import (
	"context"
	"testing"
	"time"
)

// fakeResolver maps codes to ids for tests without hitting the network
type fakeResolver struct {
	ids map[string]string
}

func (r *fakeResolver) Resolve(_ context.Context, code string) string {
	return r.ids[code]
}

func knownStations() *fakeResolver {
	return &fakeResolver{ids: map[string]string{
		"BHM": "urn:trainline:generic:loc:182gb",
		"EUS": "urn:trainline:generic:loc:1444gb",
	}}
}

func testNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func validParams() RawParams {
	return RawParams{
		From:  "BHM",
		To:    "EUS",
		Time:  "0900",
		Date:  "20240615",
		Weeks: "0",
	}
}

func TestNew_ValidQuery(t *testing.T) {
	q := New(context.Background(), validParams(), testNow(), knownStations(), QueryLimit)

	if !q.Status.OK() {
		t.Fatalf("Expected valid query, got errors: %v", q.Status.Errors)
	}
	if q.Journey != "BHM>EUS" {
		t.Errorf("Expected journey BHM>EUS, got %s", q.Journey)
	}
	if q.FromID == "" || q.ToID == "" {
		t.Error("Expected station ids to be resolved")
	}
}

func TestNew_StationCodesCaseInsensitive(t *testing.T) {
	for _, params := range []RawParams{
		{From: "bhm", To: "eus", Time: "0900", Date: "20240615"},
		{From: "Bhm", To: "EuS", Time: "0900", Date: "20240615"},
	} {
		q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)
		if !q.Status.OK() {
			t.Errorf("Expected %s/%s to validate, got errors: %v", params.From, params.To, q.Status.Errors)
		}
		if q.Journey != "BHM>EUS" {
			t.Errorf("Expected normalized journey BHM>EUS, got %s", q.Journey)
		}
	}
}

func TestNew_InvalidStationCodes(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
	}{
		{"too short", "BH", "EUS"},
		{"too long", "BHMX", "EUS"},
		{"numeric", "123", "EUS"},
		{"empty", "", "EUS"},
		{"both invalid", "B1", "E2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			params.From = tc.from
			params.To = tc.to

			q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

			if q.Status.OK() {
				t.Fatal("Expected validation failure")
			}
			count := 0
			for _, err := range q.Status.Errors {
				if err == "Invalid station code(s)" {
					count++
				}
			}
			if count != 1 {
				t.Errorf("Expected exactly one station code error, got %d in %v", count, q.Status.Errors)
			}
		})
	}
}

func TestNew_InvalidDepartureTime(t *testing.T) {
	for _, at := range []string{"900", "09000", "09a0", "nine"} {
		params := validParams()
		params.Time = at

		q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

		if !hasError(q, "Invalid departure time") {
			t.Errorf("Expected time error for %q, got %v", at, q.Status.Errors)
		}
	}
}

func TestNew_InvalidDepartureDate(t *testing.T) {
	for _, on := range []string{"2024061", "202406155", "2024o615", "20241315"} {
		params := validParams()
		params.Date = on

		q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

		if !hasError(q, "Invalid departure date") {
			t.Errorf("Expected date error for %q, got %v", on, q.Status.Errors)
		}
	}
}

func TestNew_DepartureDateHasPassed(t *testing.T) {
	params := validParams()
	params.Date = "20240101"

	q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

	if !hasError(q, "Departure date has passed") {
		t.Errorf("Expected passed-date error, got %v", q.Status.Errors)
	}
}

func TestNew_TodayIsNotPassed(t *testing.T) {
	params := validParams()
	params.Date = "20240601"

	q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

	if hasError(q, "Departure date has passed") {
		t.Errorf("Today should not count as passed, got %v", q.Status.Errors)
	}
}

func TestNew_AccumulatesAllErrors(t *testing.T) {
	params := RawParams{
		From:  "B1",
		To:    "EUS",
		Time:  "9am",
		Date:  "yesterday",
		Weeks: "two",
	}

	q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

	expected := []string{
		"Invalid station code(s)",
		"Invalid departure time",
		"Invalid departure date",
		"Invalid week count",
	}
	for _, msg := range expected {
		if !hasError(q, msg) {
			t.Errorf("Expected error %q, got %v", msg, q.Status.Errors)
		}
	}
	if len(q.Status.Errors) != len(expected) {
		t.Errorf("Expected %d errors, got %v", len(expected), q.Status.Errors)
	}
}

func TestNew_InvalidWeeks(t *testing.T) {
	params := validParams()
	params.Weeks = "-1"

	q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

	if !hasError(q, "Invalid week count") {
		t.Errorf("Expected week count error, got %v", q.Status.Errors)
	}
}

func TestNew_SeatsFlag(t *testing.T) {
	cases := []struct {
		seats     string
		wantShow  bool
		wantError bool
	}{
		{"", false, false},
		{"true", true, false},
		{"yes", true, false},
		{"y", true, false},
		{"TRUE", true, false},
		{"false", false, false},
		{"no", false, false},
		{"1", false, true},
		{"tr ue", false, true},
	}

	for _, tc := range cases {
		params := validParams()
		params.Seats = tc.seats

		q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

		if q.ShowSeats != tc.wantShow {
			t.Errorf("seats=%q: expected ShowSeats=%v", tc.seats, tc.wantShow)
		}
		if hasError(q, "Invalid seats flag") != tc.wantError {
			t.Errorf("seats=%q: expected error=%v, got %v", tc.seats, tc.wantError, q.Status.Errors)
		}
	}
}

func TestNew_MissingStationIDs(t *testing.T) {
	resolver := &fakeResolver{ids: map[string]string{"BHM": "urn:bhm"}}

	q := New(context.Background(), validParams(), testNow(), resolver, QueryLimit)

	if q.Status.OK() {
		t.Fatal("Expected enrichment failure")
	}
	if !hasError(q, "Missing station id(s)") {
		t.Errorf("Expected missing id error, got %v", q.Status.Errors)
	}
}

func TestNew_NoResolutionWhenFieldsInvalid(t *testing.T) {
	params := validParams()
	params.From = "B1"

	q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

	if hasError(q, "Missing station id(s)") {
		t.Errorf("Enrichment should be skipped on field errors, got %v", q.Status.Errors)
	}
	if q.FromID != "" || q.ToID != "" {
		t.Error("Expected ids to stay empty for invalid query")
	}
}

func TestNew_RecurringSchedule(t *testing.T) {
	params := RawParams{
		From:     "BHM",
		To:       "EUS",
		Schedule: "0 9 * * 1",
		Count:    "3",
		Skip:     "1",
	}

	q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

	if !q.Status.OK() {
		t.Fatalf("Expected valid recurring query, got errors: %v", q.Status.Errors)
	}
	if _, ok := q.Plan.(RecurringSchedule); !ok {
		t.Fatalf("Expected RecurringSchedule plan, got %T", q.Plan)
	}
}

func TestNew_RecurringScheduleErrors(t *testing.T) {
	cases := []struct {
		name     string
		schedule string
		count    string
		skip     string
		want     string
	}{
		{"bad expression", "not a cron", "3", "", "Invalid schedule expression"},
		{"count missing", "0 9 * * 1", "", "", "Invalid repeat count"},
		{"count zero", "0 9 * * 1", "0", "", "Invalid repeat count"},
		{"count over limit", "0 9 * * 1", "6", "", "Invalid repeat count"},
		{"count not numeric", "0 9 * * 1", "three", "", "Invalid repeat count"},
		{"skip not numeric", "0 9 * * 1", "3", "one", "Invalid week offset"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := RawParams{
				From:     "BHM",
				To:       "EUS",
				Schedule: tc.schedule,
				Count:    tc.count,
				Skip:     tc.skip,
			}

			q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

			if !hasError(q, tc.want) {
				t.Errorf("Expected %q, got %v", tc.want, q.Status.Errors)
			}
		})
	}
}

func TestNew_ConfiguredCountLimit(t *testing.T) {
	params := RawParams{
		From:     "BHM",
		To:       "EUS",
		Schedule: "0 9 * * 1",
		Count:    "3",
	}

	q := New(context.Background(), params, testNow(), knownStations(), 2)
	if !hasError(q, "Invalid repeat count") {
		t.Errorf("Expected configured limit to reject count=3, got %v", q.Status.Errors)
	}

	params.Count = "2"
	q = New(context.Background(), params, testNow(), knownStations(), 2)
	if !q.Status.OK() {
		t.Errorf("Expected count at the configured limit to pass, got %v", q.Status.Errors)
	}
}

func TestNew_NonPositiveLimitFallsBack(t *testing.T) {
	params := RawParams{
		From:     "BHM",
		To:       "EUS",
		Schedule: "0 9 * * 1",
		Count:    "5",
	}

	q := New(context.Background(), params, testNow(), knownStations(), 0)
	if !q.Status.OK() {
		t.Errorf("Expected default limit with limit=0, got %v", q.Status.Errors)
	}
}

func TestNew_EmptyTimeDefaultsToNow(t *testing.T) {
	params := validParams()
	params.Time = ""

	q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

	if !q.Status.OK() {
		t.Fatalf("Expected empty time to default, got errors: %v", q.Status.Errors)
	}
	plan, ok := q.Plan.(ExplicitDeparture)
	if !ok {
		t.Fatalf("Expected ExplicitDeparture plan, got %T", q.Plan)
	}
	expected := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	if !plan.Timestamp.Equal(expected) {
		t.Errorf("Expected date with current time of day, got %v", plan.Timestamp)
	}
}

func TestNew_EmptyDateDefaultsToToday(t *testing.T) {
	params := validParams()
	params.Date = ""

	q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

	if !q.Status.OK() {
		t.Fatalf("Expected empty date to default, got errors: %v", q.Status.Errors)
	}
	plan := q.Plan.(ExplicitDeparture)
	expected := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	if !plan.Timestamp.Equal(expected) {
		t.Errorf("Expected today with requested time, got %v", plan.Timestamp)
	}
}

func TestNew_OutOfRangeTimeBlamesTime(t *testing.T) {
	params := validParams()
	params.Time = "2500"

	q := New(context.Background(), params, testNow(), knownStations(), QueryLimit)

	if !hasError(q, "Invalid departure time") {
		t.Errorf("Expected time error for out-of-range time, got %v", q.Status.Errors)
	}
	if hasError(q, "Invalid departure date") {
		t.Errorf("Date must not be blamed for a bad time, got %v", q.Status.Errors)
	}
}

func TestStatus_NoDuplicates(t *testing.T) {
	var status Status
	status.Add("Invalid station code(s)")
	status.Add("Invalid station code(s)")

	if len(status.Errors) != 1 {
		t.Errorf("Expected one error after duplicate add, got %v", status.Errors)
	}
	if status.OK() {
		t.Error("Expected status not OK with errors present")
	}
}

func hasError(q *TravelQuery, msg string) bool {
	for _, err := range q.Status.Errors {
		if err == msg {
			return true
		}
	}
	return false
}
