package service

import (
	"math"
	"math/rand"
	"sort"

	"tripsearch_backend/internal/search/domain"
)

// RecommendOption selects the option a caller should foreground: the lowest
// numeric price among priced options, ties broken by first-seen order. When
// no option carries a price the first option wins by default. Nil on empty
// input. The selection is deterministic for a fixed input list.
func RecommendOption(options []domain.Option) *domain.Option {
	if len(options) == 0 {
		return nil
	}

	best := -1
	for i, option := range options {
		if !option.HasPrice() {
			continue
		}
		if best == -1 || option.Price < options[best].Price {
			best = i
		}
	}

	if best == -1 {
		best = 0
	}
	return &options[best]
}

// FilterBudget keeps options priced within the inclusive [min, max] range.
// A zero bound is open on that side. Unpriced options are dropped when any
// bound is set, since they cannot be placed against it.
func FilterBudget(options []domain.Option, min, max float64) []domain.Option {
	if min <= 0 && max <= 0 {
		return options
	}

	filtered := make([]domain.Option, 0, len(options))
	for _, option := range options {
		if !option.HasPrice() {
			continue
		}
		if min > 0 && option.Price < min {
			continue
		}
		if max > 0 && option.Price > max {
			continue
		}
		filtered = append(filtered, option)
	}
	return filtered
}

// DiversifySelect picks limit options spread across three equal-width price
// bands spanning the true min-to-max range, in increasing band order
// (budget, mid, luxury), topping up from untouched entries when a band runs
// short. The selected subset is shuffled before truncation so repeated calls
// do not always foreground the same listings.
func DiversifySelect(options []domain.Option, limit int) []domain.Option {
	if limit <= 0 || len(options) <= limit {
		return options
	}

	sorted := make([]domain.Option, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	minPrice := sorted[0].Price
	maxPrice := sorted[len(sorted)-1].Price
	span := maxPrice - minPrice

	used := make([]bool, len(sorted))
	selected := make([]domain.Option, 0, limit)

	if span > 0 {
		bandWidth := span / 3
		bandOf := func(price float64) int {
			band := int((price - minPrice) / bandWidth)
			if band > 2 {
				band = 2
			}
			return band
		}

		var bandIdx [3][]int
		for i, option := range sorted {
			band := bandOf(option.Price)
			bandIdx[band] = append(bandIdx[band], i)
		}

		perBand := int(math.Ceil(float64(limit) / 3))
		var taken [3]int

		// Every non-empty band contributes at least one entry before any band
		// is topped up, so a small limit cannot starve the luxury band.
		for band := 0; band < 3 && len(selected) < limit; band++ {
			if len(bandIdx[band]) == 0 {
				continue
			}
			i := bandIdx[band][0]
			selected = append(selected, sorted[i])
			used[i] = true
			taken[band]++
		}

		for band := 0; band < 3 && len(selected) < limit; band++ {
			for _, i := range bandIdx[band] {
				if used[i] || taken[band] >= perBand || len(selected) >= limit {
					continue
				}
				selected = append(selected, sorted[i])
				used[i] = true
				taken[band]++
			}
		}
	}

	// Fill any shortfall from whichever untouched entries remain.
	for i, option := range sorted {
		if len(selected) >= limit {
			break
		}
		if !used[i] {
			selected = append(selected, option)
			used[i] = true
		}
	}

	rand.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}
