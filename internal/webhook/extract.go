package webhook

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ExtractField returns the value for the first candidate key present in the
// answers map, trying an exact match before a case-insensitive scan of all
// keys. Values come back unmodified; nil means no candidate matched.
func ExtractField(answers map[string]any, candidates ...string) any {
	for _, key := range candidates {
		if v, ok := answers[key]; ok {
			return v
		}
		for k, v := range answers {
			if strings.EqualFold(k, key) {
				return v
			}
		}
	}
	return nil
}

var ratingPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// NormalizeRating converts a raw answer into a rating. Numbers pass through
// as-is; text yields its first decimal-shaped substring ("4/5", "4 étoiles",
// "4.5 stars" all parse). Unparseable values are nil, not an error: partial
// ratings are an expected condition. No range clamping happens here.
func NormalizeRating(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f := t
		return &f
	case float32:
		f := float64(t)
		return &f
	case int:
		f := float64(t)
		return &f
	case int64:
		f := float64(t)
		return &f
	case string:
		if m := ratingPattern.FindString(t); m != "" {
			if f, ok := parseFloat(m); ok {
				return &f
			}
		}
		log.Warn().Str("value", t).Msg("unparseable rating")
		return nil
	default:
		log.Warn().Interface("value", v).Msg("unparseable rating")
		return nil
	}
}

// ExtractRating is ExtractField followed by NormalizeRating.
func ExtractRating(answers map[string]any, candidates ...string) *float64 {
	return NormalizeRating(ExtractField(answers, candidates...))
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}
