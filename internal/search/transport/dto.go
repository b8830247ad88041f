package transport

import "tripsearch_backend/internal/search/domain"

type FlightSearchRequest struct {
	Origin      string `form:"origin" validate:"required,min=2,max=100"`
	Destination string `form:"destination" validate:"required,min=2,max=100"`
	Date        string `form:"date" validate:"required,datetime=2006-01-02"`
	Travelers   int    `form:"travelers" validate:"omitempty,min=1,max=9"`
}

type TransitSearchRequest struct {
	Origin      string `form:"origin" validate:"required,min=2,max=100"`
	Destination string `form:"destination" validate:"required,min=2,max=100"`
	Date        string `form:"date" validate:"required,datetime=2006-01-02"`
}

type HotelSearchRequest struct {
	City      string  `form:"city" validate:"required,min=2,max=100"`
	Checkin   string  `form:"checkin" validate:"required,datetime=2006-01-02"`
	Checkout  string  `form:"checkout" validate:"required,datetime=2006-01-02"`
	BudgetMin float64 `form:"budgetMin" validate:"omitempty,min=0"`
	BudgetMax float64 `form:"budgetMax" validate:"omitempty,min=0"`
	Limit     int     `form:"limit" validate:"omitempty,min=1,max=50"`
}

type RateLimitRequest struct {
	Key string `form:"key" validate:"required,oneof=flight-search train-search bus-search hotel-search-amadeus hotel-search-stayapi location-lookup-airport location-lookup-station location-lookup-city location-lookup-city-iata"`
}

// SearchResponse is the uniform result envelope for every category. The
// recommended ID points at the option the UI should highlight.
type SearchResponse struct {
	Options       []domain.Option `json:"options"`
	Total         int             `json:"total"`
	RecommendedID string          `json:"recommendedId,omitempty"`
}

type RateLimitResponse struct {
	Operation         string `json:"operation"`
	Limited           bool   `json:"limited"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}
