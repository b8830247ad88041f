package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tripsearch_backend/internal/places"
	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/internal/search/fallback"
	"tripsearch_backend/platform/apperr"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"
)

type fakeFlightProvider struct {
	configured bool
	outcome    domain.Outcome
	calls      int
}

func (f *fakeFlightProvider) Configured() bool { return f.configured }
func (f *fakeFlightProvider) SearchFlights(_ context.Context, _ domain.FlightQuery, _ domain.Route) domain.Outcome {
	f.calls++
	return f.outcome
}

type fakeTrainProvider struct {
	configured bool
	outcome    domain.Outcome
	calls      int
}

func (f *fakeTrainProvider) Configured() bool { return f.configured }
func (f *fakeTrainProvider) SearchTrains(_ context.Context, _ domain.TransitQuery, _ domain.Route) domain.Outcome {
	f.calls++
	return f.outcome
}

type fakeBusProvider struct {
	configured bool
	outcome    domain.Outcome
	calls      int
}

func (f *fakeBusProvider) Configured() bool { return f.configured }
func (f *fakeBusProvider) SearchBuses(_ context.Context, _ domain.TransitQuery, _ domain.Route) domain.Outcome {
	f.calls++
	return f.outcome
}

type fakeHotelProvider struct {
	configured bool
	outcome    domain.Outcome
	calls      int
}

func (f *fakeHotelProvider) Configured() bool { return f.configured }
func (f *fakeHotelProvider) SearchHotels(_ context.Context, _ domain.HotelQuery, _ string) domain.Outcome {
	f.calls++
	return f.outcome
}

// fakeResolver resolves any text to an uppercase pseudo-code unless the text
// appears in the unknown set, recording which vocabulary each call asked for.
type fakeResolver struct {
	unknown map[string]bool
	kinds   []places.Kind
}

func (f *fakeResolver) Resolve(_ context.Context, kind places.Kind, text string) (places.Place, bool) {
	f.kinds = append(f.kinds, kind)
	if f.unknown[text] {
		return places.Place{}, false
	}
	return places.Place{Code: text, Label: text}, true
}

type engineParts struct {
	flights  *fakeFlightProvider
	trains   *fakeTrainProvider
	buses    *fakeBusProvider
	hotelA   *fakeHotelProvider
	hotelB   *fakeHotelProvider
	pacer    *pacing.Controller
	resolver *fakeResolver
}

func newTestEngine(parts *engineParts) *Engine {
	log := logger.New("test")
	if parts.pacer == nil {
		parts.pacer = pacing.New(time.Microsecond, time.Minute, log)
	}
	if parts.resolver == nil {
		parts.resolver = &fakeResolver{unknown: map[string]bool{"Atlantis": true}}
	}
	return NewEngine(
		parts.flights, parts.trains, parts.buses,
		[]HotelProvider{parts.hotelA, parts.hotelB},
		parts.resolver,
		nil, parts.pacer,
		fallback.NewGenerator(nil, log),
		TTLs{Flight: time.Minute, Train: time.Minute, Bus: time.Minute, Hotel: time.Minute, Redis: time.Hour},
		log,
	)
}

func defaultParts(outcome domain.Outcome) *engineParts {
	return &engineParts{
		flights: &fakeFlightProvider{configured: true, outcome: outcome},
		trains:  &fakeTrainProvider{configured: true, outcome: outcome},
		buses:   &fakeBusProvider{configured: true, outcome: outcome},
		hotelA:  &fakeHotelProvider{configured: true, outcome: outcome},
		hotelB:  &fakeHotelProvider{configured: true, outcome: outcome},
	}
}

func flightQuery() domain.FlightQuery {
	return domain.FlightQuery{Origin: "Delhi", Destination: "Mumbai", Date: "2026-09-15", Travelers: 1}
}

func TestSearchFlights_LiveResultIsCached(t *testing.T) {
	parts := defaultParts(domain.Ok([]domain.Option{
		{ID: "f1", Provider: "IndiGo", Price: 4200, Currency: "INR"},
	}))
	engine := newTestEngine(parts)
	ctx := context.Background()

	first, err := engine.SearchFlights(ctx, flightQuery())
	if err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	if len(first) != 1 || first[0].Provider != "IndiGo" {
		t.Fatalf("unexpected result: %+v", first)
	}

	second, err := engine.SearchFlights(ctx, flightQuery())
	if err != nil {
		t.Fatalf("second search failed: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("unexpected cached result: %+v", second)
	}
	if parts.flights.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", parts.flights.calls)
	}
}

func TestSearchFlights_UnconfiguredProviderIsAHardError(t *testing.T) {
	parts := defaultParts(domain.Ok(nil))
	parts.flights.configured = false
	engine := newTestEngine(parts)

	_, err := engine.SearchFlights(context.Background(), flightQuery())
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSearchFlights_AuthFailureIsAHardError(t *testing.T) {
	parts := defaultParts(domain.Fail(domain.StatusAuthFailed, errors.New("401")))
	engine := newTestEngine(parts)

	_, err := engine.SearchFlights(context.Background(), flightQuery())
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSearchFlights_RateLimitedReturnsEmptyWithoutFallback(t *testing.T) {
	parts := defaultParts(domain.Fail(domain.StatusRateLimited, errors.New("429")))
	engine := newTestEngine(parts)

	options, err := engine.SearchFlights(context.Background(), flightQuery())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(options) != 0 {
		t.Fatalf("expected empty result, got %d generated options", len(options))
	}
}

func TestSearchFlights_CooldownSkipsProvider(t *testing.T) {
	parts := defaultParts(domain.Ok([]domain.Option{{ID: "f1", Price: 100}}))
	engine := newTestEngine(parts)
	parts.pacer.TriggerCooldown(domain.OpFlightSearch)

	options, err := engine.SearchFlights(context.Background(), flightQuery())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(options) != 0 {
		t.Fatalf("expected empty result during cooldown, got %d", len(options))
	}
	if parts.flights.calls != 0 {
		t.Fatalf("expected no provider calls during cooldown, got %d", parts.flights.calls)
	}
}

func TestSearchFlights_UnresolvableOriginRejectsRequest(t *testing.T) {
	parts := defaultParts(domain.Ok(nil))
	engine := newTestEngine(parts)

	q := flightQuery()
	q.Origin = "Atlantis"
	_, err := engine.SearchFlights(context.Background(), q)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if parts.flights.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", parts.flights.calls)
	}
}

func TestSearchFlights_NoMatchDegradesToGeneratedOptions(t *testing.T) {
	parts := defaultParts(domain.Fail(domain.StatusNoMatch, errors.New("no flights")))
	engine := newTestEngine(parts)

	options, err := engine.SearchFlights(context.Background(), flightQuery())
	if err != nil {
		t.Fatalf("expected fallback, got error %v", err)
	}
	if len(options) < 5 || len(options) > 8 {
		t.Fatalf("expected 5-8 generated options, got %d", len(options))
	}
	for _, option := range options {
		if option.Source != domain.SourceGenerated {
			t.Fatalf("expected generated source tag, got %q", option.Source)
		}
	}
}

func TestSearchBuses_RestrictedPlanDegradesToGeneratedOptions(t *testing.T) {
	parts := defaultParts(domain.Fail(domain.StatusRestricted, errors.New("403")))
	engine := newTestEngine(parts)

	options, err := engine.SearchBuses(context.Background(), domain.TransitQuery{
		Origin: "Mumbai", Destination: "Goa", Date: "2026-09-15",
	})
	if err != nil {
		t.Fatalf("expected fallback, got error %v", err)
	}
	if len(options) == 0 {
		t.Fatal("expected generated substitutes for a plan-restricted provider")
	}
	for _, option := range options {
		if option.Source != domain.SourceGenerated {
			t.Fatalf("expected generated source tag, got %q", option.Source)
		}
		if option.Price <= 0 {
			t.Fatalf("expected positive price on generated option, got %v", option.Price)
		}
	}
}

func TestSearchTrains_MissingFaresAreEstimated(t *testing.T) {
	parts := defaultParts(domain.Ok([]domain.Option{
		{ID: "t1", Provider: "Rajdhani Express", ScheduleCode: "12952", Duration: "16h 0m"},
	}))
	engine := newTestEngine(parts)

	options, err := engine.SearchTrains(context.Background(), domain.TransitQuery{
		Origin: "Delhi", Destination: "Mumbai", Date: "2026-09-15",
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(options) != 1 {
		t.Fatalf("expected 1 option, got %d", len(options))
	}
	if !options[0].PriceEstimated || options[0].Price != 650+35*16 {
		t.Fatalf("expected flagged estimate 1210, got %+v", options[0])
	}
}

func hotelQuery() domain.HotelQuery {
	return domain.HotelQuery{City: "Jaipur", Checkin: "2026-09-15", Checkout: "2026-09-17"}
}

func TestSearchHotels_MergesProvidersAndKeepsCheaperDuplicate(t *testing.T) {
	parts := defaultParts(domain.Ok(nil))
	parts.hotelA.outcome = domain.Ok([]domain.Option{
		{ID: "a1", Provider: "Taj Palace", Price: 9000, Currency: "INR"},
		{ID: "a2", Provider: "Hilltop Inn", Price: 2500, Currency: "INR"},
	})
	parts.hotelB.outcome = domain.Ok([]domain.Option{
		{ID: "b1", Provider: "taj  palace", Price: 8400, Currency: "INR"},
	})
	engine := newTestEngine(parts)

	options, err := engine.SearchHotels(context.Background(), hotelQuery())
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected duplicate folded, got %d options", len(options))
	}

	var tajPrice float64
	for _, option := range options {
		if option.Price > 8000 {
			tajPrice = option.Price
		}
	}
	if tajPrice != 8400 {
		t.Fatalf("expected the cheaper duplicate to win, got %v", tajPrice)
	}
}

func TestSearchHotels_BudgetAndLimitShapeTheCachedList(t *testing.T) {
	var inventory []domain.Option
	for i := 0; i < 30; i++ {
		inventory = append(inventory, domain.Option{
			ID:       fmt.Sprintf("h%d", i),
			Provider: fmt.Sprintf("Hotel %d", i),
			Price:    1500 + float64(i)*450,
			Currency: "INR",
		})
	}
	parts := defaultParts(domain.Ok(nil))
	parts.hotelA.outcome = domain.Ok(inventory)
	parts.hotelB.outcome = domain.Fail(domain.StatusNoMatch, errors.New("empty"))
	engine := newTestEngine(parts)

	q := hotelQuery()
	q.BudgetMin = 2000
	q.BudgetMax = 8000
	q.Limit = 9

	options, err := engine.SearchHotels(context.Background(), q)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(options) != 9 {
		t.Fatalf("expected 9 options, got %d", len(options))
	}
	for _, option := range options {
		if option.Price < 2000 || option.Price > 8000 {
			t.Fatalf("price %v outside requested budget", option.Price)
		}
	}

	// A different budget against the same city and dates reuses the merged
	// list instead of calling the providers again.
	q.BudgetMin, q.BudgetMax = 9000, 0
	if _, err := engine.SearchHotels(context.Background(), q); err != nil {
		t.Fatalf("second search failed: %v", err)
	}
	if parts.hotelA.calls != 1 {
		t.Fatalf("expected 1 provider call across budgets, got %d", parts.hotelA.calls)
	}
}

func TestSearchHotels_AllProvidersAuthFailedIsAHardError(t *testing.T) {
	parts := defaultParts(domain.Fail(domain.StatusAuthFailed, errors.New("401")))
	engine := newTestEngine(parts)

	_, err := engine.SearchHotels(context.Background(), hotelQuery())
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSearchHotels_AllProvidersRateLimitedReturnsEmpty(t *testing.T) {
	parts := defaultParts(domain.Fail(domain.StatusRateLimited, errors.New("429")))
	engine := newTestEngine(parts)

	options, err := engine.SearchHotels(context.Background(), hotelQuery())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(options) != 0 {
		t.Fatalf("expected empty result, got %d", len(options))
	}
}

func TestSearchHotels_NoLiveResultsDegradeToGenerated(t *testing.T) {
	parts := defaultParts(domain.Fail(domain.StatusNoMatch, errors.New("empty")))
	engine := newTestEngine(parts)

	options, err := engine.SearchHotels(context.Background(), hotelQuery())
	if err != nil {
		t.Fatalf("expected fallback, got error %v", err)
	}
	if len(options) == 0 {
		t.Fatal("expected generated hotel options")
	}
	for _, option := range options {
		if option.Source != domain.SourceGenerated {
			t.Fatalf("expected generated source tag, got %q", option.Source)
		}
	}
}

func TestSearchHotels_OneProviderDownStillServesTheOther(t *testing.T) {
	parts := defaultParts(domain.Ok(nil))
	parts.hotelA.outcome = domain.Fail(domain.StatusUnavailable, errors.New("timeout"))
	parts.hotelB.outcome = domain.Ok([]domain.Option{
		{ID: "b1", Provider: "Hilltop Inn", Price: 2500, Currency: "INR"},
	})
	engine := newTestEngine(parts)

	options, err := engine.SearchHotels(context.Background(), hotelQuery())
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(options) != 1 || options[0].Provider != "Hilltop Inn" {
		t.Fatalf("expected the healthy provider's result, got %+v", options)
	}
}

func TestRateLimited_ReportsActiveCooldown(t *testing.T) {
	parts := defaultParts(domain.Ok(nil))
	engine := newTestEngine(parts)

	limited, _ := engine.RateLimited(domain.OpTrainSearch)
	if limited {
		t.Fatal("expected no cooldown before any trigger")
	}

	parts.pacer.TriggerCooldown(domain.OpTrainSearch)
	limited, remaining := engine.RateLimited(domain.OpTrainSearch)
	if !limited {
		t.Fatal("expected cooldown after trigger")
	}
	if remaining <= 0 || remaining > time.Minute {
		t.Fatalf("unexpected remaining window %v", remaining)
	}
}

func TestSearchHotels_ResolvesCityThroughIATAVocabulary(t *testing.T) {
	parts := defaultParts(domain.Ok([]domain.Option{
		{ID: "h1", Provider: "Taj Palace", Price: 8400, Currency: "INR"},
	}))
	engine := newTestEngine(parts)

	if _, err := engine.SearchHotels(context.Background(), domain.HotelQuery{
		City: "Jaipur", Checkin: "2026-09-15", Checkout: "2026-09-17",
	}); err != nil {
		t.Fatalf("hotel search failed: %v", err)
	}
	if _, err := engine.SearchBuses(context.Background(), domain.TransitQuery{
		Origin: "Jaipur", Destination: "Delhi", Date: "2026-09-15",
	}); err != nil {
		t.Fatalf("bus search failed: %v", err)
	}

	kinds := parts.resolver.kinds
	if len(kinds) != 3 {
		t.Fatalf("expected 3 resolutions, got %d", len(kinds))
	}
	if kinds[0] != places.KindCityIATA {
		t.Fatalf("expected the lodging primary to resolve an IATA city code, got %q", kinds[0])
	}
	if kinds[1] != places.KindCity || kinds[2] != places.KindCity {
		t.Fatalf("expected the bus route to keep the city-ID vocabulary, got %q/%q", kinds[1], kinds[2])
	}
}
