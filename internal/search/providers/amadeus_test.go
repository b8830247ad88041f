package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tripsearch_backend/internal/places"
	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"
)

type amadeusTestConfig struct {
	baseURL string
}

func (c amadeusTestConfig) GetAmadeusBaseURL() string      { return c.baseURL }
func (c amadeusTestConfig) GetAmadeusClientID() string     { return "client" }
func (c amadeusTestConfig) GetAmadeusClientSecret() string { return "secret" }

const offersBody = `{
	"data": [
		{
			"id": "offer-1",
			"itineraries": [{
				"duration": "PT2H15M",
				"segments": [{
					"departure": {"iataCode": "DEL", "at": "2026-09-15T06:10:00"},
					"arrival": {"iataCode": "BOM", "at": "2026-09-15T08:25:00"},
					"carrierCode": "6E",
					"number": "204"
				}]
			}],
			"price": {"total": "4350.00", "currency": "INR"}
		},
		{
			"id": "offer-2",
			"itineraries": [],
			"price": {"total": "3000.00", "currency": "INR"}
		},
		{
			"id": "offer-3",
			"itineraries": [{
				"segments": [{
					"departure": {"iataCode": "DEL", "at": "2026-09-15T09:00:00"},
					"arrival": {"iataCode": "BOM", "at": "2026-09-15T11:10:00"},
					"carrierCode": "AI",
					"number": "887"
				}]
			}],
			"price": {"total": "not-a-number", "currency": "INR"}
		}
	],
	"dictionaries": {"carriers": {"6E": "IndiGo"}}
}`

func newAmadeusServer(t *testing.T, tokenCalls *atomic.Int32, offersStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			if tokenCalls != nil {
				tokenCalls.Add(1)
			}
			w.Write([]byte(`{"access_token":"tok-123","expires_in":1800}`))
		case "/v2/shopping/flight-offers":
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if offersStatus != http.StatusOK {
				w.WriteHeader(offersStatus)
				return
			}
			w.Write([]byte(offersBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newAmadeus(baseURL string) *Amadeus {
	log := logger.New("test")
	pacer := pacing.New(time.Microsecond, time.Minute, log)
	a := NewAmadeus(amadeusTestConfig{baseURL: baseURL}, 5*time.Second, pacer, log)
	a.caller.backoff = time.Millisecond
	return a
}

func flightRoute() domain.Route {
	return domain.Route{OriginCode: "DEL", DestinationCode: "BOM", OriginLabel: "Delhi", DestinationLabel: "Mumbai"}
}

func TestAmadeusSearchFlights_ParsesOffersAndDropsBadRecords(t *testing.T) {
	srv := newAmadeusServer(t, nil, http.StatusOK)
	defer srv.Close()

	a := newAmadeus(srv.URL)
	outcome := a.SearchFlights(context.Background(), domain.FlightQuery{Date: "2026-09-15", Travelers: 1}, flightRoute())

	if outcome.Status != domain.StatusOK {
		t.Fatalf("expected OK, got %s: %v", outcome.Status, outcome.Err)
	}
	if len(outcome.Options) != 1 {
		t.Fatalf("expected the two malformed offers dropped, got %d options", len(outcome.Options))
	}

	option := outcome.Options[0]
	if option.Provider != "IndiGo" {
		t.Fatalf("expected carrier name from the dictionary, got %q", option.Provider)
	}
	if option.ScheduleCode != "6E 204" {
		t.Fatalf("unexpected schedule code %q", option.ScheduleCode)
	}
	if option.DepartureTime != "06:10" || option.ArrivalTime != "08:25" {
		t.Fatalf("unexpected times %q/%q", option.DepartureTime, option.ArrivalTime)
	}
	if option.Duration != "2h 15m" {
		t.Fatalf("expected ISO duration rendered, got %q", option.Duration)
	}
	if option.Price != 4350 || option.Currency != "INR" {
		t.Fatalf("unexpected price %v %s", option.Price, option.Currency)
	}
	if option.Source != domain.SourceAmadeus {
		t.Fatalf("unexpected source %q", option.Source)
	}
}

func TestAmadeusSearchFlights_TokenIsReusedAcrossCalls(t *testing.T) {
	var tokenCalls atomic.Int32
	srv := newAmadeusServer(t, &tokenCalls, http.StatusOK)
	defer srv.Close()

	a := newAmadeus(srv.URL)
	ctx := context.Background()
	q := domain.FlightQuery{Date: "2026-09-15", Travelers: 1}

	a.SearchFlights(ctx, q, flightRoute())
	a.SearchFlights(ctx, q, flightRoute())

	if got := tokenCalls.Load(); got != 1 {
		t.Fatalf("expected one token exchange for consecutive searches, got %d", got)
	}
}

func TestAmadeusSearchFlights_BadCredentialsReportAuthFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := newAmadeus(srv.URL)
	outcome := a.SearchFlights(context.Background(), domain.FlightQuery{Date: "2026-09-15"}, flightRoute())

	if outcome.Status != domain.StatusAuthFailed {
		t.Fatalf("expected auth failure, got %s", outcome.Status)
	}
}

func TestAmadeusSearchFlights_ForbiddenReportsRestricted(t *testing.T) {
	srv := newAmadeusServer(t, nil, http.StatusForbidden)
	defer srv.Close()

	a := newAmadeus(srv.URL)
	outcome := a.SearchFlights(context.Background(), domain.FlightQuery{Date: "2026-09-15"}, flightRoute())

	if outcome.Status != domain.StatusRestricted {
		t.Fatalf("expected restricted, got %s", outcome.Status)
	}
}

func TestAmadeusNotConfigured(t *testing.T) {
	log := logger.New("test")
	pacer := pacing.New(time.Microsecond, time.Minute, log)
	a := NewAmadeus(amadeusTestConfig{}, 5*time.Second, pacer, log)
	a.clientID = ""

	if a.Configured() {
		t.Fatal("expected adapter without credentials to report unconfigured")
	}
}

func TestAmadeusSearchHotels_RequiresCityCode(t *testing.T) {
	a := newAmadeus("http://127.0.0.1:1")

	outcome := a.SearchHotels(context.Background(), domain.HotelQuery{City: "Jaipur"}, "")
	if outcome.Status != domain.StatusNoMatch {
		t.Fatalf("expected no match without a city code, got %s", outcome.Status)
	}
}

func TestIsoDurationText(t *testing.T) {
	tests := []struct {
		iso       string
		departure string
		arrival   string
		want      string
	}{
		{"PT2H35M", "06:00", "08:35", "2h 35m"},
		{"PT45M", "—", "—", "45m"},
		{"", "06:10", "08:25", "2h 15m"},
		{"bogus", "06:10", "08:25", "2h 15m"},
		{"bogus", "—", "—", domain.PlaceholderTime},
	}

	for _, tc := range tests {
		if got := isoDurationText(tc.iso, tc.departure, tc.arrival); got != tc.want {
			t.Fatalf("isoDurationText(%q, %q, %q) = %q, want %q", tc.iso, tc.departure, tc.arrival, got, tc.want)
		}
	}
}

func TestAmadeusLocations_CityIATARequestsCitySubtype(t *testing.T) {
	var gotSubType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			w.Write([]byte(`{"access_token":"tok-123","expires_in":1800}`))
		case "/v1/reference-data/locations":
			gotSubType = r.URL.Query().Get("subType")
			w.Write([]byte(`{"data":[{"iataCode":"JAI","name":"JAIPUR","subType":"CITY"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := newAmadeus(srv.URL)
	candidates, status := a.Locations(context.Background(), "jaipur", places.KindCityIATA)

	if status != domain.StatusOK {
		t.Fatalf("expected OK, got %s", status)
	}
	if gotSubType != "CITY" {
		t.Fatalf("expected subType CITY for the lodging city vocabulary, got %q", gotSubType)
	}
	if len(candidates) != 1 || candidates[0].Code != "JAI" {
		t.Fatalf("unexpected candidates %+v", candidates)
	}
}

func TestAmadeusTokenRateLimitArmsCooldown(t *testing.T) {
	var tokenCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/security/oauth2/token" {
			tokenCalls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	log := logger.New("test")
	pacer := pacing.New(time.Microsecond, time.Minute, log)
	a := NewAmadeus(amadeusTestConfig{baseURL: srv.URL}, 5*time.Second, pacer, log)
	a.caller.backoff = time.Millisecond

	outcome := a.SearchFlights(context.Background(), domain.FlightQuery{Date: "2026-09-15"}, flightRoute())
	if outcome.Status != domain.StatusRateLimited {
		t.Fatalf("expected rate limited, got %s", outcome.Status)
	}
	if !pacer.InCooldown(domain.OpFlightSearch) {
		t.Fatal("expected the token 429 to arm the operation cooldown")
	}

	a.SearchFlights(context.Background(), domain.FlightQuery{Date: "2026-09-15"}, flightRoute())
	if got := tokenCalls.Load(); got != 1 {
		t.Fatalf("expected no further token exchanges during cooldown, got %d", got)
	}
}
