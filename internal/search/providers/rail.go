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

// RailConfig is the subset of application config the adapter needs.
type RailConfig interface {
	GetRailAPIKey() string
	GetRailAPIHost() string
}

// Rail is the train data adapter: a RapidAPI-style host with the key in
// request headers and station-code route addressing. The provider does not
// expose fares on its search endpoint; price estimation happens downstream.
type Rail struct {
	caller *httpCaller
	apiKey string
	host   string
	log    *logger.Logger
}

func NewRail(cfg RailConfig, timeout time.Duration, pacer *pacing.Controller, log *logger.Logger) *Rail {
	return &Rail{
		caller: newHTTPCaller(timeout, pacer, log),
		apiKey: cfg.GetRailAPIKey(),
		host:   cfg.GetRailAPIHost(),
		log:    log,
	}
}

// Configured reports whether the API key is present.
func (r *Rail) Configured() bool {
	return r.apiKey != ""
}

func (r *Rail) newRequest(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	base := r.host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		base+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-rapidapi-key", r.apiKey)
	req.Header.Set("x-rapidapi-host", r.host)
	return req, nil
}

// =============================================================================
// Station search (places.Lookup)
// =============================================================================

type railStationsResponse struct {
	Data []struct {
		Name string `json:"eng_name"`
		Code string `json:"code"`
		Type string `json:"type"`
	} `json:"data"`
}

// Locations resolves a keyword to railway station codes.
func (r *Rail) Locations(ctx context.Context, keyword string, kind places.Kind) ([]places.Candidate, domain.Status) {
	var payload railStationsResponse
	status := r.caller.doJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		params := url.Values{}
		params.Set("query", keyword)
		return r.newRequest(ctx, "/api/v1/searchStation", params)
	}, "indianrail", "station-search", places.CooldownKey(kind), &payload)

	if status != domain.StatusOK {
		return nil, status
	}

	candidates := make([]places.Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		typ := entry.Type
		if typ == "" {
			typ = "station"
		}
		candidates = append(candidates, places.Candidate{
			Code: entry.Code,
			Name: entry.Name,
			Type: typ,
		})
	}
	return candidates, domain.StatusOK
}

// =============================================================================
// Trains between stations
// =============================================================================

type railTrainsResponse struct {
	Status bool `json:"status"`
	Data   []struct {
		TrainNumber string `json:"train_number"`
		TrainName   string `json:"train_name"`
		Departure   string `json:"from_std"`
		Arrival     string `json:"to_sta"`
		Duration    string `json:"duration"`
	} `json:"data"`
}

// SearchTrains queries trains between two resolved station codes.
func (r *Rail) SearchTrains(ctx context.Context, q domain.TransitQuery, route domain.Route) domain.Outcome {
	var payload railTrainsResponse
	status := r.caller.doJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		params := url.Values{}
		params.Set("fromStationCode", route.OriginCode)
		params.Set("toStationCode", route.DestinationCode)
		params.Set("dateOfJourney", q.Date)
		return r.newRequest(ctx, "/api/v3/trainBetweenStations", params)
	}, "indianrail", "train-search", domain.OpTrainSearch, &payload)

	if status != domain.StatusOK {
		return domain.Fail(status, fmt.Errorf("rail search: %s", status))
	}
	if !payload.Status {
		return domain.Fail(domain.StatusUnavailable, fmt.Errorf("rail search: provider reported failure"))
	}

	options := make([]domain.Option, 0, len(payload.Data))
	for _, train := range payload.Data {
		if train.TrainName == "" {
			r.log.SchemaDrop("indianrail", "train without name")
			continue
		}

		departure := train.Departure
		if _, ok := domain.ParseClock(departure); !ok {
			departure = domain.PlaceholderTime
		}
		arrival := train.Arrival
		if _, ok := domain.ParseClock(arrival); !ok {
			arrival = domain.PlaceholderTime
		}

		duration := train.Duration
		if duration == "" {
			duration = domain.DurationText(departure, arrival)
		}

		id := train.TrainNumber
		if id == "" {
			id = uuid.NewString()
		}

		raw, _ := json.Marshal(train)
		options = append(options, domain.Option{
			ID:            id,
			Provider:      train.TrainName,
			ScheduleCode:  train.TrainNumber,
			DepartureTime: departure,
			ArrivalTime:   arrival,
			Duration:      duration,
			Origin:        route.OriginLabel,
			Destination:   route.DestinationLabel,
			Source:        domain.SourceRailAPI,
			Raw:           raw,
		})
	}

	return domain.Ok(options)
}
