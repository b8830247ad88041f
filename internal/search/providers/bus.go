package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tripsearch_backend/internal/places"
	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"

	"github.com/google/uuid"
)

// BusConfig is the subset of application config the adapter needs.
type BusConfig interface {
	GetBusAPIKey() string
	GetBusAPIHost() string
}

// Bus is the intercity bus adapter. Routes are addressed by provider city
// IDs, resolved through the same place-resolution path as the other
// categories. Fares may be absent on some operators.
type Bus struct {
	caller *httpCaller
	apiKey string
	host   string
	log    *logger.Logger
}

func NewBus(cfg BusConfig, timeout time.Duration, pacer *pacing.Controller, log *logger.Logger) *Bus {
	return &Bus{
		caller: newHTTPCaller(timeout, pacer, log),
		apiKey: cfg.GetBusAPIKey(),
		host:   cfg.GetBusAPIHost(),
		log:    log,
	}
}

// Configured reports whether the API key is present.
func (b *Bus) Configured() bool {
	return b.apiKey != ""
}

func (b *Bus) newRequest(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	base := b.host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		base+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-rapidapi-key", b.apiKey)
	req.Header.Set("x-rapidapi-host", b.host)
	return req, nil
}

// =============================================================================
// City search (places.Lookup)
// =============================================================================

type busCitiesResponse struct {
	Cities []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"cities"`
}

// Locations resolves a keyword to provider city IDs.
func (b *Bus) Locations(ctx context.Context, keyword string, kind places.Kind) ([]places.Candidate, domain.Status) {
	var payload busCitiesResponse
	status := b.caller.doJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		params := url.Values{}
		params.Set("query", keyword)
		return b.newRequest(ctx, "/api/v1/cities", params)
	}, "busdata", "city-search", places.CooldownKey(kind), &payload)

	if status != domain.StatusOK {
		return nil, status
	}

	candidates := make([]places.Candidate, 0, len(payload.Cities))
	for _, city := range payload.Cities {
		candidates = append(candidates, places.Candidate{
			Code: city.ID,
			Name: city.Name,
			Type: "city",
		})
	}
	return candidates, domain.StatusOK
}

// =============================================================================
// Trips between cities
// =============================================================================

type busTripsResponse struct {
	Trips []struct {
		ID        string  `json:"id"`
		Operator  string  `json:"operator"`
		BusType   string  `json:"bus_type"`
		Departure string  `json:"departure_time"`
		Arrival   string  `json:"arrival_time"`
		Fare      float64 `json:"fare"`
	} `json:"trips"`
}

// SearchBuses queries trips between two resolved city IDs.
func (b *Bus) SearchBuses(ctx context.Context, q domain.TransitQuery, route domain.Route) domain.Outcome {
	var payload busTripsResponse
	status := b.caller.doJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		params := url.Values{}
		params.Set("fromCity", route.OriginCode)
		params.Set("toCity", route.DestinationCode)
		params.Set("date", q.Date)
		return b.newRequest(ctx, "/api/v2/trips", params)
	}, "busdata", "trip-search", domain.OpBusSearch, &payload)

	if status != domain.StatusOK {
		return domain.Fail(status, fmt.Errorf("bus search: %s", status))
	}

	options := make([]domain.Option, 0, len(payload.Trips))
	for _, trip := range payload.Trips {
		if trip.Operator == "" {
			b.log.SchemaDrop("busdata", "trip without operator")
			continue
		}

		departure := trip.Departure
		if _, ok := domain.ParseClock(departure); !ok {
			departure = domain.PlaceholderTime
		}
		arrival := trip.Arrival
		if _, ok := domain.ParseClock(arrival); !ok {
			arrival = domain.PlaceholderTime
		}

		id := trip.ID
		if id == "" {
			id = uuid.NewString()
		}

		var price float64
		var currency string
		if trip.Fare > 0 {
			price = trip.Fare
			currency = "INR"
		}

		raw, _ := json.Marshal(trip)
		options = append(options, domain.Option{
			ID:            id,
			Provider:      trip.Operator,
			ScheduleCode:  trip.BusType,
			DepartureTime: departure,
			ArrivalTime:   arrival,
			Duration:      domain.DurationText(departure, arrival),
			Price:         price,
			Currency:      currency,
			Origin:        route.OriginLabel,
			Destination:   route.DestinationLabel,
			Source:        domain.SourceBusAPI,
			Raw:           raw,
		})
	}

	return domain.Ok(options)
}
