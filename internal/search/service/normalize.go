package service

import (
	"hash/fnv"
	"strconv"
	"strings"

	"tripsearch_backend/internal/search/domain"

	"github.com/google/uuid"
)

// finalize enforces the canonical-record guarantees on an adapter's output:
// IDs unique within the response set, placeholder wall-clock fields instead
// of blanks, and a duration text whenever both times parse.
func finalize(options []domain.Option) []domain.Option {
	seen := make(map[string]struct{}, len(options))
	for i := range options {
		option := &options[i]

		if option.ID == "" {
			option.ID = uuid.NewString()
		}
		if _, dup := seen[option.ID]; dup {
			option.ID = option.ID + "-" + uuid.NewString()[:8]
		}
		seen[option.ID] = struct{}{}

		if option.DepartureTime == "" {
			option.DepartureTime = domain.PlaceholderTime
		}
		if option.ArrivalTime == "" {
			option.ArrivalTime = domain.PlaceholderTime
		}
		if option.Duration == "" {
			option.Duration = domain.DurationText(option.DepartureTime, option.ArrivalTime)
		}
	}
	return options
}

// Rail and bus providers frequently omit fares. For display the engine fills
// an estimate derived from journey length rather than leaving the price
// blank; such records are flagged as estimated, not provider facts.
func estimatePrices(options []domain.Option, base, perHour float64) []domain.Option {
	for i := range options {
		option := &options[i]
		if option.HasPrice() {
			continue
		}

		hours, ok := durationHours(option.Duration)
		if !ok {
			// No usable duration either: derive a stable pseudo-fare from the
			// service identity so repeated renders agree.
			hours = 2 + float64(stableHash(option.Provider+option.ScheduleCode)%9)
		}

		option.Price = float64(int(base + perHour*hours))
		option.Currency = "INR"
		option.PriceEstimated = true
	}
	return options
}

// durationHours parses duration renderings providers use: "2h 35m", "05:30"
// and bare hour counts.
func durationHours(text string) (float64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == domain.PlaceholderTime {
		return 0, false
	}

	if strings.Contains(trimmed, ":") {
		parts := strings.SplitN(trimmed, ":", 2)
		h, errH := strconv.Atoi(parts[0])
		m, errM := strconv.Atoi(parts[1])
		if errH == nil && errM == nil {
			return float64(h) + float64(m)/60, true
		}
		return 0, false
	}

	if strings.Contains(trimmed, "h") {
		var h, m int
		fields := strings.Fields(trimmed)
		for _, f := range fields {
			if v, err := strconv.Atoi(strings.TrimSuffix(f, "h")); err == nil && strings.HasSuffix(f, "h") {
				h = v
			}
			if v, err := strconv.Atoi(strings.TrimSuffix(f, "m")); err == nil && strings.HasSuffix(f, "m") {
				m = v
			}
		}
		if h > 0 || m > 0 {
			return float64(h) + float64(m)/60, true
		}
	}

	if v, err := strconv.Atoi(trimmed); err == nil && v > 0 {
		return float64(v), true
	}
	return 0, false
}

func stableHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
