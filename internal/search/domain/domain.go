// Package domain holds the canonical types shared by every search category.
package domain

import "encoding/json"

// Category identifies a search vertical.
type Category string

const (
	CategoryFlight Category = "flight"
	CategoryTrain  Category = "train"
	CategoryBus    Category = "bus"
	CategoryHotel  Category = "hotel"
)

// SourceTag identifies which provider or fallback produced a record. The UI
// uses it to disclose data provenance, so every option must carry one.
type SourceTag string

const (
	SourceAmadeus       SourceTag = "amadeus"
	SourceAmadeusHotels SourceTag = "amadeus-hotels"
	SourceRailAPI       SourceTag = "indianrail"
	SourceBusAPI        SourceTag = "busdata"
	SourceStayAPI       SourceTag = "stayapi"
	// SourceGenerated marks illustrative records produced by the generative
	// fallback, never live quotes.
	SourceGenerated SourceTag = "generated"
)

// PlaceholderTime renders where a provider omitted a wall-clock field.
const PlaceholderTime = "—"

// Cooldown operation keys, one per provider operation. The two lodging keys
// are distinct so both providers can be queried concurrently.
const (
	OpFlightSearch         = "flight-search"
	OpTrainSearch          = "train-search"
	OpBusSearch            = "bus-search"
	OpHotelSearchPrimary   = "hotel-search-amadeus"
	OpHotelSearchSecondary = "hotel-search-stayapi"
)

// Option is the normalized result record shared by all four categories.
// IDs are unique within one response set only.
type Option struct {
	ID             string          `json:"id"`
	Provider       string          `json:"provider"`
	ScheduleCode   string          `json:"scheduleCode,omitempty"`
	DepartureTime  string          `json:"departureTime,omitempty"`
	ArrivalTime    string          `json:"arrivalTime,omitempty"`
	Duration       string          `json:"duration"`
	Price          float64         `json:"price,omitempty"`
	Currency       string          `json:"currency,omitempty"`
	PriceEstimated bool            `json:"priceEstimated,omitempty"`
	Origin         string          `json:"origin,omitempty"`
	Destination    string          `json:"destination,omitempty"`
	Source         SourceTag       `json:"source"`
	Raw            json.RawMessage `json:"-"`
}

// HasPrice reports whether the option carries a usable numeric price.
func (o Option) HasPrice() bool {
	return o.Price > 0
}

// FlightQuery is the immutable input for a flight search.
type FlightQuery struct {
	Origin      string
	Destination string
	Date        string
	Travelers   int
}

// TransitQuery is the immutable input for a rail or bus search.
type TransitQuery struct {
	Origin      string
	Destination string
	Date        string
}

// HotelQuery is the immutable input for a lodging search.
type HotelQuery struct {
	City      string
	Checkin   string
	Checkout  string
	BudgetMin float64
	BudgetMax float64
	Limit     int
}

// Route carries resolved provider codes plus display labels for both ends.
type Route struct {
	OriginCode       string
	DestinationCode  string
	OriginLabel      string
	DestinationLabel string
}

// Status classifies a provider call so the engine can branch on a tag
// instead of inspecting errors.
type Status int

const (
	// StatusOK means the call succeeded, possibly with zero records.
	StatusOK Status = iota
	// StatusNoMatch means a valid call returned zero results.
	StatusNoMatch
	// StatusRestricted means the account tier rejects this operation.
	StatusRestricted
	// StatusRateLimited means the upstream signalled 429 and in-call retries
	// were exhausted.
	StatusRateLimited
	// StatusUnavailable covers transport failures and timeouts.
	StatusUnavailable
	// StatusAuthFailed means credentials were rejected; no fallback can
	// compensate for this across a session.
	StatusAuthFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoMatch:
		return "no_match"
	case StatusRestricted:
		return "restricted"
	case StatusRateLimited:
		return "rate_limited"
	case StatusUnavailable:
		return "unavailable"
	case StatusAuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

// Outcome is the uniform result of one provider adapter call.
type Outcome struct {
	Status  Status
	Options []Option
	Err     error
}

// Ok builds a success outcome, downgrading empty result sets to NoMatch.
func Ok(options []Option) Outcome {
	if len(options) == 0 {
		return Outcome{Status: StatusNoMatch}
	}
	return Outcome{Status: StatusOK, Options: options}
}

// Fail builds an outcome for the given non-success status.
func Fail(status Status, err error) Outcome {
	return Outcome{Status: status, Err: err}
}

// NeedsFallback reports whether the engine should substitute generated data.
// Auth failures and rate limits are excluded: the former is a hard error,
// the latter degrades to an empty result.
func (o Outcome) NeedsFallback() bool {
	switch o.Status {
	case StatusNoMatch, StatusRestricted, StatusUnavailable:
		return true
	default:
		return false
	}
}
