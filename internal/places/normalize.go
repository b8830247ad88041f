package places

import (
	"regexp"
	"strings"
)

// Free-text place descriptions arrive full of filler ("visit the red fort and
// explore Delhi"). Provider location endpoints want a short keyword, so the
// text is reduced to its first few meaningful tokens.

var nonAlpha = regexp.MustCompile(`[^a-zA-Z\s]+`)

// stopWords are stripped from place descriptions before keyword lookup.
// Generic filler plus landmark/street vocabulary that never names a city.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"in": {}, "at": {}, "on": {}, "near": {}, "around": {}, "from": {},
	"visit": {}, "explore": {}, "see": {}, "tour": {}, "trip": {}, "go": {},
	"going": {}, "stay": {}, "famous": {}, "best": {}, "beautiful": {},
	"road": {}, "street": {}, "lane": {}, "marg": {}, "highway": {},
	"area": {}, "place": {}, "places": {}, "spot": {}, "spots": {},
	"temple": {}, "fort": {}, "palace": {}, "beach": {}, "lake": {},
	"garden": {}, "park": {}, "museum": {}, "market": {}, "bazaar": {},
	"mall": {}, "chowk": {}, "nagar": {}, "colony": {}, "sector": {},
	"station": {}, "airport": {}, "junction": {},
}

// Normalize reduces a free-text place description to a provider keyword of at
// most maxTokens tokens. When stop-word filtering removes everything, the
// pre-filter token list is used instead so the lookup still has something to
// work with.
func Normalize(input string, maxTokens int) string {
	cleaned := strings.ToLower(nonAlpha.ReplaceAllString(input, " "))
	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 {
		return ""
	}

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, skip := stopWords[token]; skip {
			continue
		}
		filtered = append(filtered, token)
	}
	if len(filtered) == 0 {
		filtered = tokens
	}

	if maxTokens > 0 && len(filtered) > maxTokens {
		filtered = filtered[:maxTokens]
	}

	return strings.Join(filtered, " ")
}
