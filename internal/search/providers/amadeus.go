package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"tripsearch_backend/internal/places"
	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"

	"github.com/google/uuid"
)

// tokenEarlyRefresh renews the OAuth token this long before it actually
// expires, so a token never dies mid-request.
const tokenEarlyRefresh = 60 * time.Second

// AmadeusConfig is the subset of application config the adapter needs.
type AmadeusConfig interface {
	GetAmadeusBaseURL() string
	GetAmadeusClientID() string
	GetAmadeusClientSecret() string
}

// Amadeus is the flight provider family: OAuth client-credentials auth,
// airport/city location search, flight offers and city hotel offers.
type Amadeus struct {
	caller       *httpCaller
	baseURL      string
	clientID     string
	clientSecret string
	log          *logger.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewAmadeus creates the adapter. Missing credentials are tolerated here and
// rejected at call time, so other categories keep working.
func NewAmadeus(cfg AmadeusConfig, timeout time.Duration, pacer *pacing.Controller, log *logger.Logger) *Amadeus {
	return &Amadeus{
		caller:       newHTTPCaller(timeout, pacer, log),
		baseURL:      strings.TrimRight(cfg.GetAmadeusBaseURL(), "/"),
		clientID:     cfg.GetAmadeusClientID(),
		clientSecret: cfg.GetAmadeusClientSecret(),
		log:          log,
	}
}

// Configured reports whether credentials are present.
func (a *Amadeus) Configured() bool {
	return a.clientID != "" && a.clientSecret != ""
}

type amadeusTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// bearer returns a valid access token, refreshing it shortly before expiry.
// The refresh is serialized so concurrent searches share one exchange. The
// exchange runs under the caller's operation key: a 429 from the token
// endpoint arms that cooldown, and an active window skips the exchange the
// same way doJSON skips a search call.
func (a *Amadeus) bearer(ctx context.Context, opKey string) (string, domain.Status) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.tokenExpiry.Add(-tokenEarlyRefresh)) {
		return a.token, domain.StatusOK
	}

	if a.caller.pacer.InCooldown(opKey) {
		return "", domain.StatusRateLimited
	}

	if err := a.caller.pacer.Wait(ctx); err != nil {
		return "", domain.StatusUnavailable
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", domain.StatusUnavailable
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.caller.client.Do(req)
	if err != nil {
		a.log.ProviderError("amadeus", "token", err)
		return "", domain.StatusUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// decoded below
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		// Amadeus signals bad client credentials on the token endpoint with 401/400.
		return "", domain.StatusAuthFailed
	case resp.StatusCode == http.StatusTooManyRequests:
		a.caller.pacer.TriggerCooldown(opKey)
		return "", domain.StatusRateLimited
	default:
		return "", domain.StatusUnavailable
	}

	var tok amadeusTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil || tok.AccessToken == "" {
		return "", domain.StatusUnavailable
	}

	a.token = tok.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return a.token, domain.StatusOK
}

// =============================================================================
// Location search (places.Lookup)
// =============================================================================

type amadeusLocationsResponse struct {
	Data []struct {
		IataCode string `json:"iataCode"`
		Name     string `json:"name"`
		SubType  string `json:"subType"`
	} `json:"data"`
}

// Locations resolves a keyword against the reference-data locations endpoint.
func (a *Amadeus) Locations(ctx context.Context, keyword string, kind places.Kind) ([]places.Candidate, domain.Status) {
	token, status := a.bearer(ctx, places.CooldownKey(kind))
	if status != domain.StatusOK {
		return nil, status
	}

	subType := "CITY,AIRPORT"
	if kind == places.KindCity || kind == places.KindCityIATA {
		subType = "CITY"
	}

	var payload amadeusLocationsResponse
	status = a.caller.doJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		params := url.Values{}
		params.Set("keyword", keyword)
		params.Set("subType", subType)
		params.Set("page[limit]", "5")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			a.baseURL+"/v1/reference-data/locations?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}, "amadeus", "locations", places.CooldownKey(kind), &payload)

	if status != domain.StatusOK {
		return nil, status
	}

	candidates := make([]places.Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		candidates = append(candidates, places.Candidate{
			Code: entry.IataCode,
			Name: entry.Name,
			Type: entry.SubType,
		})
	}
	return candidates, domain.StatusOK
}

// =============================================================================
// Flight offers
// =============================================================================

type amadeusOffersResponse struct {
	Data []struct {
		ID          string `json:"id"`
		Itineraries []struct {
			Duration string `json:"duration"`
			Segments []struct {
				Departure struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
			} `json:"segments"`
		} `json:"itineraries"`
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

// SearchFlights queries flight offers for a resolved route.
func (a *Amadeus) SearchFlights(ctx context.Context, q domain.FlightQuery, route domain.Route) domain.Outcome {
	token, status := a.bearer(ctx, domain.OpFlightSearch)
	if status != domain.StatusOK {
		return domain.Fail(status, fmt.Errorf("amadeus auth: %s", status))
	}

	var payload amadeusOffersResponse
	status = a.caller.doJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		params := url.Values{}
		params.Set("originLocationCode", route.OriginCode)
		params.Set("destinationLocationCode", route.DestinationCode)
		params.Set("departureDate", q.Date)
		params.Set("adults", strconv.Itoa(q.Travelers))
		params.Set("currencyCode", "INR")
		params.Set("max", "10")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			a.baseURL+"/v2/shopping/flight-offers?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}, "amadeus", "flight-offers", domain.OpFlightSearch, &payload)

	if status != domain.StatusOK {
		return domain.Fail(status, fmt.Errorf("amadeus flight-offers: %s", status))
	}

	options := make([]domain.Option, 0, len(payload.Data))
	for _, offer := range payload.Data {
		if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
			a.log.SchemaDrop("amadeus", "offer without segments")
			continue
		}

		price, err := strconv.ParseFloat(offer.Price.Total, 64)
		if err != nil || price <= 0 {
			a.log.SchemaDrop("amadeus", "unparseable price "+offer.Price.Total)
			continue
		}

		itinerary := offer.Itineraries[0]
		first := itinerary.Segments[0]
		last := itinerary.Segments[len(itinerary.Segments)-1]

		label := a.carrierName(payload.Dictionaries.Carriers, first.CarrierCode)
		id := offer.ID
		if id == "" {
			id = uuid.NewString()
		}

		departure := domain.ClockFromISO(first.Departure.At)
		arrival := domain.ClockFromISO(last.Arrival.At)

		raw, _ := json.Marshal(offer)
		options = append(options, domain.Option{
			ID:            id,
			Provider:      label,
			ScheduleCode:  first.CarrierCode + " " + first.Number,
			DepartureTime: departure,
			ArrivalTime:   arrival,
			Duration:      isoDurationText(itinerary.Duration, departure, arrival),
			Price:         price,
			Currency:      offer.Price.Currency,
			Origin:        route.OriginLabel,
			Destination:   route.DestinationLabel,
			Source:        domain.SourceAmadeus,
			Raw:           raw,
		})
	}

	return domain.Ok(options)
}

func (a *Amadeus) carrierName(carriers map[string]string, code string) string {
	if name, ok := carriers[code]; ok && name != "" {
		return name
	}
	return code
}

// isoDurationText converts an ISO-8601 duration ("PT2H35M") to display form,
// falling back to the wall-clock difference.
func isoDurationText(iso, departure, arrival string) string {
	trimmed := strings.TrimPrefix(iso, "PT")
	if trimmed != iso && trimmed != "" {
		if d, err := time.ParseDuration(strings.ToLower(trimmed)); err == nil {
			return domain.FormatDuration(d)
		}
	}
	return domain.DurationText(departure, arrival)
}

// =============================================================================
// Hotel offers (primary lodging provider)
// =============================================================================

type amadeusHotelsResponse struct {
	Data []struct {
		Hotel struct {
			HotelID string `json:"hotelId"`
			Name    string `json:"name"`
		} `json:"hotel"`
		Offers []struct {
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
		} `json:"offers"`
	} `json:"data"`
}

// SearchHotels queries hotel offers for a resolved city code.
func (a *Amadeus) SearchHotels(ctx context.Context, q domain.HotelQuery, cityCode string) domain.Outcome {
	if cityCode == "" {
		return domain.Fail(domain.StatusNoMatch, fmt.Errorf("amadeus hotel-offers: no city code"))
	}

	token, status := a.bearer(ctx, domain.OpHotelSearchPrimary)
	if status != domain.StatusOK {
		return domain.Fail(status, fmt.Errorf("amadeus auth: %s", status))
	}

	var payload amadeusHotelsResponse
	status = a.caller.doJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		params := url.Values{}
		params.Set("cityCode", cityCode)
		params.Set("checkInDate", q.Checkin)
		params.Set("checkOutDate", q.Checkout)
		params.Set("currency", "INR")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			a.baseURL+"/v2/shopping/hotel-offers?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}, "amadeus", "hotel-offers", domain.OpHotelSearchPrimary, &payload)

	if status != domain.StatusOK {
		return domain.Fail(status, fmt.Errorf("amadeus hotel-offers: %s", status))
	}

	options := make([]domain.Option, 0, len(payload.Data))
	for _, entry := range payload.Data {
		if entry.Hotel.Name == "" || len(entry.Offers) == 0 {
			a.log.SchemaDrop("amadeus", "hotel without name or offers")
			continue
		}

		price, err := strconv.ParseFloat(entry.Offers[0].Price.Total, 64)
		if err != nil || price <= 0 {
			a.log.SchemaDrop("amadeus", "hotel with unparseable price")
			continue
		}

		id := entry.Hotel.HotelID
		if id == "" {
			id = uuid.NewString()
		}

		raw, _ := json.Marshal(entry)
		options = append(options, domain.Option{
			ID:          id,
			Provider:    entry.Hotel.Name,
			Duration:    domain.PlaceholderTime,
			Price:       price,
			Currency:    entry.Offers[0].Price.Currency,
			Destination: q.City,
			Source:      domain.SourceAmadeusHotels,
			Raw:         raw,
		})
	}

	return domain.Ok(options)
}
