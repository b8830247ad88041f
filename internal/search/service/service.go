// Package service implements the search engine: cache tiers, place
// resolution, provider dispatch and fallback orchestration for every
// category.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tripsearch_backend/internal/places"
	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/internal/search/fallback"
	"tripsearch_backend/platform/apperr"
	"tripsearch_backend/platform/cache"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"
)

// fallbackTTL keeps generated substitutes around briefly so a page reload
// does not regenerate, but never long enough to shadow a recovered provider.
const fallbackTTL = 5 * time.Minute

// errResolveRateLimited distinguishes "cannot resolve because the location
// endpoint is cooling down" from "this place does not exist".
var errResolveRateLimited = errors.New("place resolution rate limited")

// FlightProvider is the live flight search adapter.
type FlightProvider interface {
	Configured() bool
	SearchFlights(ctx context.Context, q domain.FlightQuery, route domain.Route) domain.Outcome
}

// TrainProvider is the live rail search adapter.
type TrainProvider interface {
	Configured() bool
	SearchTrains(ctx context.Context, q domain.TransitQuery, route domain.Route) domain.Outcome
}

// BusProvider is the live intercity bus search adapter.
type BusProvider interface {
	Configured() bool
	SearchBuses(ctx context.Context, q domain.TransitQuery, route domain.Route) domain.Outcome
}

// HotelProvider is a lodging adapter. Both lodging providers are queried and
// their results merged.
type HotelProvider interface {
	Configured() bool
	SearchHotels(ctx context.Context, q domain.HotelQuery, cityCode string) domain.Outcome
}

// Resolver turns free text into provider codes.
type Resolver interface {
	Resolve(ctx context.Context, kind places.Kind, text string) (places.Place, bool)
}

// TTLs holds the per-category memory cache lifetimes plus the redis tier's.
type TTLs struct {
	Flight time.Duration
	Train  time.Duration
	Bus    time.Duration
	Hotel  time.Duration
	Redis  time.Duration
}

// Engine coordinates caches, pacing, resolution, live providers and the
// generative fallback for all four search categories.
type Engine struct {
	flights  FlightProvider
	trains   TrainProvider
	buses    BusProvider
	hotels   []HotelProvider
	resolver Resolver

	memory   *cache.Store[[]domain.Option]
	redis    *cache.RedisTier
	pacer    *pacing.Controller
	fallback *fallback.Generator
	group    singleflight.Group
	ttls     TTLs
	log      *logger.Logger
}

// NewEngine wires the engine. The redis tier may be disabled (nil-safe).
func NewEngine(
	flights FlightProvider,
	trains TrainProvider,
	buses BusProvider,
	hotels []HotelProvider,
	resolver Resolver,
	redis *cache.RedisTier,
	pacer *pacing.Controller,
	gen *fallback.Generator,
	ttls TTLs,
	log *logger.Logger,
) *Engine {
	return &Engine{
		flights:  flights,
		trains:   trains,
		buses:    buses,
		hotels:   hotels,
		resolver: resolver,
		memory:   cache.New[[]domain.Option]("search-results"),
		redis:    redis,
		pacer:    pacer,
		fallback: gen,
		ttls:     ttls,
		log:      log,
	}
}

// RateLimited reports whether the given provider operation is inside its
// cooldown window, and for how much longer.
func (e *Engine) RateLimited(opKey string) (bool, time.Duration) {
	if !e.pacer.InCooldown(opKey) {
		return false, 0
	}
	return true, e.pacer.CooldownRemaining(opKey)
}

func cacheKey(category domain.Category, parts ...string) string {
	return string(category) + ":" + strings.ToLower(strings.Join(parts, ":"))
}

// cached checks the memory tier first, then redis. A redis hit is promoted
// into memory at the category TTL.
func (e *Engine) cached(ctx context.Context, key string, memTTL time.Duration) ([]domain.Option, bool) {
	if options, ok := e.memory.Get(key); ok {
		e.log.CacheEvent("memory", key, true)
		return options, true
	}

	var options []domain.Option
	if e.redis.Get(ctx, key, &options) {
		e.log.CacheEvent("redis", key, true)
		e.memory.Set(key, options, memTTL)
		return options, true
	}

	e.log.CacheEvent("memory", key, false)
	return nil, false
}

func (e *Engine) store(ctx context.Context, key string, options []domain.Option, memTTL time.Duration) {
	e.memory.Set(key, options, memTTL)
	e.redis.Set(ctx, key, options, e.ttls.Redis)
}

// resolveRoute resolves both ends of a journey with the given vocabulary.
// An active lookup cooldown surfaces as errResolveRateLimited so callers
// return an empty set instead of rejecting the input as unknown.
func (e *Engine) resolveRoute(ctx context.Context, kind places.Kind, origin, destination string) (domain.Route, error) {
	from, ok := e.resolver.Resolve(ctx, kind, origin)
	if !ok {
		if e.pacer.InCooldown(places.CooldownKey(kind)) {
			return domain.Route{}, errResolveRateLimited
		}
		return domain.Route{}, apperr.Validation(fmt.Sprintf("could not resolve origin %q", origin))
	}

	to, ok := e.resolver.Resolve(ctx, kind, destination)
	if !ok {
		if e.pacer.InCooldown(places.CooldownKey(kind)) {
			return domain.Route{}, errResolveRateLimited
		}
		return domain.Route{}, apperr.Validation(fmt.Sprintf("could not resolve destination %q", destination))
	}

	return domain.Route{
		OriginCode:       from.Code,
		DestinationCode:  to.Code,
		OriginLabel:      from.Label,
		DestinationLabel: to.Label,
	}, nil
}

// conclude turns a provider outcome into the final result set, consulting
// the fallback where the outcome calls for it. Successful live results are
// written to both cache tiers; generated substitutes only to memory.
func (e *Engine) conclude(
	ctx context.Context,
	outcome domain.Outcome,
	key string,
	memTTL time.Duration,
	provider string,
	req fallback.Request,
	post func([]domain.Option) []domain.Option,
) ([]domain.Option, error) {
	switch {
	case outcome.Status == domain.StatusOK:
		options := finalize(outcome.Options)
		if post != nil {
			options = post(options)
		}
		e.store(ctx, key, options, memTTL)
		return options, nil

	case outcome.Status == domain.StatusAuthFailed:
		return nil, apperr.Configuration(provider + " rejected the configured credentials")

	case outcome.Status == domain.StatusRateLimited:
		// Empty, not fallback: generated records would mask a transient
		// condition that clears on its own.
		return []domain.Option{}, nil

	case outcome.NeedsFallback():
		options := finalize(e.fallback.Options(ctx, req))
		e.memory.Set(key, options, fallbackTTL)
		return options, nil
	}

	return []domain.Option{}, nil
}

// SearchFlights finds flight options for a route and date.
func (e *Engine) SearchFlights(ctx context.Context, q domain.FlightQuery) ([]domain.Option, error) {
	if q.Travelers <= 0 {
		q.Travelers = 1
	}

	key := cacheKey(domain.CategoryFlight, q.Origin, q.Destination, q.Date, fmt.Sprint(q.Travelers))
	if options, ok := e.cached(ctx, key, e.ttls.Flight); ok {
		return options, nil
	}

	result, err, _ := e.group.Do(key, func() (interface{}, error) {
		if !e.flights.Configured() {
			return nil, apperr.Configuration("flight provider credentials are not configured")
		}
		if e.pacer.InCooldown(domain.OpFlightSearch) {
			return []domain.Option{}, nil
		}

		route, err := e.resolveRoute(ctx, places.KindAirport, q.Origin, q.Destination)
		if err != nil {
			if errors.Is(err, errResolveRateLimited) {
				return []domain.Option{}, nil
			}
			return nil, err
		}

		outcome := e.flights.SearchFlights(ctx, q, route)
		return e.conclude(ctx, outcome, key, e.ttls.Flight, "flight provider", fallback.Request{
			Category:    domain.CategoryFlight,
			Origin:      route.OriginLabel,
			Destination: route.DestinationLabel,
			Date:        q.Date,
			Travelers:   q.Travelers,
		}, nil)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Option), nil
}

// SearchTrains finds rail options for a route and date. The provider carries
// no fares, so prices are estimated from journey duration and flagged.
func (e *Engine) SearchTrains(ctx context.Context, q domain.TransitQuery) ([]domain.Option, error) {
	key := cacheKey(domain.CategoryTrain, q.Origin, q.Destination, q.Date)
	if options, ok := e.cached(ctx, key, e.ttls.Train); ok {
		return options, nil
	}

	result, err, _ := e.group.Do(key, func() (interface{}, error) {
		if !e.trains.Configured() {
			return nil, apperr.Configuration("rail provider credentials are not configured")
		}
		if e.pacer.InCooldown(domain.OpTrainSearch) {
			return []domain.Option{}, nil
		}

		route, err := e.resolveRoute(ctx, places.KindStation, q.Origin, q.Destination)
		if err != nil {
			if errors.Is(err, errResolveRateLimited) {
				return []domain.Option{}, nil
			}
			return nil, err
		}

		outcome := e.trains.SearchTrains(ctx, q, route)
		return e.conclude(ctx, outcome, key, e.ttls.Train, "rail provider", fallback.Request{
			Category:    domain.CategoryTrain,
			Origin:      route.OriginLabel,
			Destination: route.DestinationLabel,
			Date:        q.Date,
		}, func(options []domain.Option) []domain.Option {
			return estimatePrices(options, 650, 35)
		})
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Option), nil
}

// SearchBuses finds intercity bus options for a route and date. Trips the
// provider lists without a fare get a duration-based estimate.
func (e *Engine) SearchBuses(ctx context.Context, q domain.TransitQuery) ([]domain.Option, error) {
	key := cacheKey(domain.CategoryBus, q.Origin, q.Destination, q.Date)
	if options, ok := e.cached(ctx, key, e.ttls.Bus); ok {
		return options, nil
	}

	result, err, _ := e.group.Do(key, func() (interface{}, error) {
		if !e.buses.Configured() {
			return nil, apperr.Configuration("bus provider credentials are not configured")
		}
		if e.pacer.InCooldown(domain.OpBusSearch) {
			return []domain.Option{}, nil
		}

		route, err := e.resolveRoute(ctx, places.KindCity, q.Origin, q.Destination)
		if err != nil {
			if errors.Is(err, errResolveRateLimited) {
				return []domain.Option{}, nil
			}
			return nil, err
		}

		outcome := e.buses.SearchBuses(ctx, q, route)
		return e.conclude(ctx, outcome, key, e.ttls.Bus, "bus provider", fallback.Request{
			Category:    domain.CategoryBus,
			Origin:      route.OriginLabel,
			Destination: route.DestinationLabel,
			Date:        q.Date,
		}, func(options []domain.Option) []domain.Option {
			return estimatePrices(options, 500, 28)
		})
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Option), nil
}

// SearchHotels queries every configured lodging provider concurrently,
// merges and deduplicates, then applies budget filtering and price-band
// diversity selection. The merged pre-filter list is what gets cached, so
// one city+date lookup serves any budget.
func (e *Engine) SearchHotels(ctx context.Context, q domain.HotelQuery) ([]domain.Option, error) {
	key := cacheKey(domain.CategoryHotel, q.City, q.Checkin, q.Checkout)

	if merged, ok := e.cached(ctx, key, e.ttls.Hotel); ok {
		return e.shapeHotels(merged, q), nil
	}

	result, err, _ := e.group.Do(key, func() (interface{}, error) {
		return e.searchHotelsLive(ctx, q, key)
	})
	if err != nil {
		return nil, err
	}
	return e.shapeHotels(result.([]domain.Option), q), nil
}

func (e *Engine) searchHotelsLive(ctx context.Context, q domain.HotelQuery, key string) ([]domain.Option, error) {
	configured := make([]HotelProvider, 0, len(e.hotels))
	for _, p := range e.hotels {
		if p.Configured() {
			configured = append(configured, p)
		}
	}
	if len(configured) == 0 {
		return nil, apperr.Configuration("no lodging provider credentials are configured")
	}

	// The primary provider keys on an IATA city code, a different vocabulary
	// from the bus route city IDs. Resolution failure only disables that
	// provider; the secondary takes free text.
	cityCode := ""
	if place, ok := e.resolver.Resolve(ctx, places.KindCityIATA, q.City); ok {
		cityCode = place.Code
	}

	outcomes := make([]domain.Outcome, len(configured))
	var wg sync.WaitGroup
	for i, p := range configured {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = p.SearchHotels(ctx, q, cityCode)
		}()
	}
	wg.Wait()

	var merged []domain.Option
	authFailures, rateLimited := 0, 0
	for _, outcome := range outcomes {
		switch outcome.Status {
		case domain.StatusOK:
			merged = append(merged, outcome.Options...)
		case domain.StatusAuthFailed:
			authFailures++
		case domain.StatusRateLimited:
			rateLimited++
		}
	}

	if len(merged) == 0 {
		switch {
		case authFailures == len(configured):
			return nil, apperr.Configuration("every lodging provider rejected the configured credentials")
		case authFailures+rateLimited == len(configured) && rateLimited > 0:
			return []domain.Option{}, nil
		default:
			options := finalize(e.fallback.Options(ctx, fallback.Request{
				Category:  domain.CategoryHotel,
				City:      q.City,
				Date:      q.Checkin,
				Checkout:  q.Checkout,
				BudgetMin: q.BudgetMin,
				BudgetMax: q.BudgetMax,
			}))
			e.memory.Set(key, options, fallbackTTL)
			return options, nil
		}
	}

	merged = finalize(dedupeHotels(merged))
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Price < merged[j].Price
	})

	e.store(ctx, key, merged, e.ttls.Hotel)
	return merged, nil
}

// shapeHotels applies the caller's budget and limit to the merged list.
func (e *Engine) shapeHotels(merged []domain.Option, q domain.HotelQuery) []domain.Option {
	options := merged
	if q.BudgetMin > 0 || q.BudgetMax > 0 {
		options = FilterBudget(options, q.BudgetMin, q.BudgetMax)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 9
	}
	if len(options) <= limit {
		out := make([]domain.Option, len(options))
		copy(out, options)
		return out
	}
	return DiversifySelect(options, limit)
}

// dedupeHotels folds records that are the same property listed by both
// providers, keeping the cheaper quote.
func dedupeHotels(options []domain.Option) []domain.Option {
	byName := make(map[string]int, len(options))
	out := make([]domain.Option, 0, len(options))
	for _, option := range options {
		folded := strings.ToLower(strings.Join(strings.Fields(option.Provider), " "))
		if i, seen := byName[folded]; seen {
			if option.HasPrice() && (!out[i].HasPrice() || option.Price < out[i].Price) {
				out[i] = option
			}
			continue
		}
		byName[folded] = len(out)
		out = append(out, option)
	}
	return out
}
