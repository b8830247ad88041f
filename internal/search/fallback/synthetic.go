package fallback

import (
	"fmt"
	"math/rand"
	"time"

	"tripsearch_backend/internal/search/domain"

	"github.com/google/uuid"
)

// The synthetic tier constructs plausible records deterministically from
// randomized parts and cannot fail. Prices follow a time-of-day heuristic:
// earlier departures are cheaper.

const (
	minSynthetic = 5
	maxSynthetic = 8
)

type priceModel struct {
	base    float64
	perHour float64
	jitter  int
}

var priceModels = map[domain.Category]priceModel{
	domain.CategoryFlight: {base: 2800, perHour: 150, jitter: 400},
	domain.CategoryTrain:  {base: 650, perHour: 35, jitter: 120},
	domain.CategoryBus:    {base: 500, perHour: 28, jitter: 90},
}

// synthesize builds 5–8 canonical options for the request.
func synthesize(req Request) []domain.Option {
	count := minSynthetic + rand.Intn(maxSynthetic-minSynthetic+1)

	if req.Category == domain.CategoryHotel {
		return synthesizeHotels(req, count)
	}

	options := make([]domain.Option, 0, count)
	// Departures spread from early morning through evening.
	span := 16.0 / float64(count)
	for i := 0; i < count; i++ {
		depHour := 5 + span*float64(i)
		depMinute := rand.Intn(60)
		departure := time.Date(0, 1, 1, int(depHour), depMinute, 0, 0, time.UTC)

		travel := travelTime(req.Category)
		arrival := departure.Add(travel)

		model := priceModels[req.Category]
		price := float64(int(model.base + model.perHour*depHour + float64(rand.Intn(model.jitter))))

		option := domain.Option{
			ID:            fmt.Sprintf("gen-%s", uuid.NewString()[:8]),
			DepartureTime: departure.Format("15:04"),
			ArrivalTime:   arrival.Format("15:04"),
			Duration:      domain.FormatDuration(travel),
			Price:         price,
			Currency:      "INR",
			Origin:        req.Origin,
			Destination:   req.Destination,
			Source:        domain.SourceGenerated,
		}

		switch req.Category {
		case domain.CategoryFlight:
			idx := rand.Intn(len(operators.Flight.Operators))
			option.Provider = operators.Flight.Operators[idx]
			option.ScheduleCode = fmt.Sprintf("%s %d", operators.Flight.Codes[idx], 1000+rand.Intn(9000))
		case domain.CategoryTrain:
			option.Provider = pick(operators.Train.Operators)
			option.ScheduleCode = fmt.Sprintf("%d", 10000+rand.Intn(90000))
		case domain.CategoryBus:
			option.Provider = pick(operators.Bus.Operators)
			option.ScheduleCode = pick(operators.Bus.Classes)
		}

		options = append(options, option)
	}

	return options
}

func synthesizeHotels(req Request, count int) []domain.Option {
	options := make([]domain.Option, 0, count)

	low, high := req.BudgetMin, req.BudgetMax
	if low <= 0 {
		low = 1200
	}
	if high <= low {
		high = low + 6000
	}

	step := (high - low) / float64(count)
	for i := 0; i < count; i++ {
		price := float64(int(low + step*float64(i) + float64(rand.Intn(int(step)+1))))
		if price > high {
			price = high
		}

		brand := pick(operators.Hotel.Operators)
		options = append(options, domain.Option{
			ID:          fmt.Sprintf("gen-%s", uuid.NewString()[:8]),
			Provider:    fmt.Sprintf("%s %s", brand, req.City),
			Duration:    domain.PlaceholderTime,
			Price:       price,
			Currency:    "INR",
			Destination: req.City,
			Source:      domain.SourceGenerated,
		})
	}

	return options
}

func travelTime(category domain.Category) time.Duration {
	switch category {
	case domain.CategoryFlight:
		return time.Duration(60+rand.Intn(150)) * time.Minute
	case domain.CategoryTrain:
		return time.Duration(4+rand.Intn(12)) * time.Hour
	default:
		return time.Duration(3+rand.Intn(9)) * time.Hour
	}
}

func pick(values []string) string {
	return values[rand.Intn(len(values))]
}
