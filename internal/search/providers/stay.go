package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"

	"github.com/google/uuid"
)

// StayConfig is the subset of application config the adapter needs.
type StayConfig interface {
	GetStayAPIKey() string
	GetStayAPIHost() string
}

// Stay is the secondary lodging provider. Lodging is the one category where
// results from more than one provider are merged rather than substituted.
type Stay struct {
	caller *httpCaller
	apiKey string
	host   string
	log    *logger.Logger
}

func NewStay(cfg StayConfig, timeout time.Duration, pacer *pacing.Controller, log *logger.Logger) *Stay {
	return &Stay{
		caller: newHTTPCaller(timeout, pacer, log),
		apiKey: cfg.GetStayAPIKey(),
		host:   cfg.GetStayAPIHost(),
		log:    log,
	}
}

// Configured reports whether the API key is present.
func (s *Stay) Configured() bool {
	return s.apiKey != ""
}

type stayHotelsResponse struct {
	Data struct {
		Hotels []struct {
			HotelID  string  `json:"hotel_id"`
			Name     string  `json:"name"`
			Price    float64 `json:"price"`
			Currency string  `json:"currency"`
			Rating   float64 `json:"rating"`
		} `json:"hotels"`
	} `json:"data"`
}

// SearchHotels queries the provider by city name; it takes free text rather
// than a canonical code.
func (s *Stay) SearchHotels(ctx context.Context, q domain.HotelQuery, cityCode string) domain.Outcome {
	var payload stayHotelsResponse
	status := s.caller.doJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		params := url.Values{}
		params.Set("dest", q.City)
		params.Set("checkin", q.Checkin)
		params.Set("checkout", q.Checkout)
		params.Set("currency", "INR")

		base := s.host
		if !strings.Contains(base, "://") {
			base = "https://" + base
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			base+"/api/v1/hotels/search?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-rapidapi-key", s.apiKey)
		req.Header.Set("x-rapidapi-host", s.host)
		return req, nil
	}, "stayapi", "hotel-search", domain.OpHotelSearchSecondary, &payload)

	if status != domain.StatusOK {
		return domain.Fail(status, fmt.Errorf("stay search: %s", status))
	}

	options := make([]domain.Option, 0, len(payload.Data.Hotels))
	for _, hotel := range payload.Data.Hotels {
		if hotel.Name == "" || hotel.Price <= 0 {
			s.log.SchemaDrop("stayapi", "hotel without name or price")
			continue
		}

		id := hotel.HotelID
		if id == "" {
			id = uuid.NewString()
		}

		currency := hotel.Currency
		if currency == "" {
			currency = "INR"
		}

		raw, _ := json.Marshal(hotel)
		options = append(options, domain.Option{
			ID:          id,
			Provider:    hotel.Name,
			Duration:    domain.PlaceholderTime,
			Price:       hotel.Price,
			Currency:    currency,
			Destination: q.City,
			Source:      domain.SourceStayAPI,
			Raw:         raw,
		})
	}

	return domain.Ok(options)
}
