// Package places translates free-text place descriptions into
// provider-specific canonical codes (airport, city and station codes).
// Resolutions, including failed ones, are cached at long TTL.
package places

import (
	"context"
	"strings"
	"time"

	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/platform/cache"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"
)

// Kind selects which provider vocabulary a place resolves into.
type Kind string

// KindCity is the bus provider's city-ID vocabulary; KindCityIATA is the
// IATA city-code vocabulary the lodging primary keys on. They resolve
// through different providers and cache under different namespaces, so the
// same free text can map to a different code per consumer.
const (
	KindAirport  Kind = "airport"
	KindStation  Kind = "station"
	KindCity     Kind = "city"
	KindCityIATA Kind = "city-iata"
)

// keywordLimit returns how many tokens the provider's location endpoint
// tolerates for this kind.
func (k Kind) keywordLimit() int {
	if k == KindStation {
		return 2
	}
	return 3
}

// Candidate is one entry from a provider location endpoint.
type Candidate struct {
	Code string
	Name string
	Type string
}

// Lookup calls a provider's place/location search endpoint.
type Lookup interface {
	Locations(ctx context.Context, keyword string, kind Kind) ([]Candidate, domain.Status)
}

// Place is a resolved canonical code with its display label.
type Place struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Resolver resolves free-text places against per-kind lookup clients.
// A nil cached *Place records "not found" so bad input does not hit the
// provider repeatedly.
type Resolver struct {
	lookups map[Kind]Lookup
	cache   *cache.Store[*Place]
	pacer   *pacing.Controller
	ttl     time.Duration
	log     *logger.Logger
}

// NewResolver creates a Resolver with the given per-kind lookup clients.
func NewResolver(lookups map[Kind]Lookup, store *cache.Store[*Place], pacer *pacing.Controller, ttl time.Duration, log *logger.Logger) *Resolver {
	return &Resolver{
		lookups: lookups,
		cache:   store,
		pacer:   pacer,
		ttl:     ttl,
		log:     log,
	}
}

// CooldownKey is the pacing key for location lookups of the given kind.
func CooldownKey(kind Kind) string {
	return "location-lookup-" + string(kind)
}

// Resolve turns a free-text description into a canonical code. An absent
// result is a normal outcome, never an error: unresolved inputs and active
// rate-limit cooldowns both report false.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, text string) (Place, bool) {
	keyword := Normalize(text, kind.keywordLimit())
	if keyword == "" {
		return Place{}, false
	}

	cacheKey := string(kind) + ":" + strings.ToLower(keyword)
	if cached, ok := r.cache.Get(cacheKey); ok {
		r.log.CacheEvent("memory", cacheKey, true)
		if cached == nil {
			return Place{}, false
		}
		return *cached, true
	}

	if r.pacer.InCooldown(CooldownKey(kind)) {
		return Place{}, false
	}

	lookup, ok := r.lookups[kind]
	if !ok {
		return Place{}, false
	}

	candidates, status := lookup.Locations(ctx, keyword, kind)
	switch status {
	case domain.StatusOK:
		// fallthrough to selection
	case domain.StatusRateLimited:
		// The call path already armed the cooldown. Negative-cache for what
		// remains of it, so the next attempt after the window goes back to
		// the provider.
		ttl := r.pacer.CooldownRemaining(CooldownKey(kind))
		if ttl <= 0 {
			ttl = r.pacer.Window()
		}
		r.cache.Set(cacheKey, nil, ttl)
		return Place{}, false
	default:
		return Place{}, false
	}

	place := pickCandidate(candidates, keyword)
	if place == nil {
		r.cache.Set(cacheKey, nil, r.ttl)
		return Place{}, false
	}

	r.cache.Set(cacheKey, place, r.ttl)
	return *place, true
}

// pickCandidate prefers an exact-type entry whose name contains the keyword,
// then the first entry with any code, then the first entry.
func pickCandidate(candidates []Candidate, keyword string) *Place {
	if len(candidates) == 0 {
		return nil
	}

	folded := strings.ToLower(keyword)
	for _, c := range candidates {
		typ := strings.ToLower(c.Type)
		if (typ == "airport" || typ == "station") && strings.Contains(strings.ToLower(c.Name), folded) && c.Code != "" {
			return &Place{Code: c.Code, Label: c.Name}
		}
	}

	for _, c := range candidates {
		if c.Code != "" {
			return &Place{Code: c.Code, Label: c.Name}
		}
	}

	first := candidates[0]
	return &Place{Code: first.Code, Label: first.Name}
}
