package analytics

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotelsat/internal/domain"
)

// Engine derives statistics from stored responses. Every call works over a
// fresh snapshot; nothing is cached or updated incrementally here.
type Engine struct {
	store domain.HotelStore
	now   func() time.Time
}

func New(store domain.HotelStore) *Engine {
	return &Engine{store: store, now: time.Now}
}

type Statistics struct {
	TotalResponses       int                `json:"total_responses"`
	AverageOverallRating float64            `json:"average_overall_rating"`
	RecommendationRate   float64            `json:"recommendation_rate"`
	CategoryAverages     map[string]float64 `json:"category_averages"`
	MonthlyResponses     int                `json:"monthly_responses"`
}

type WeekPoint struct {
	Week          string  `json:"week"`
	AverageRating float64 `json:"average_rating"`
	ResponseCount int     `json:"response_count"`
}

type TemporalAnalysis struct {
	Data  []WeekPoint `json:"data"`
	Trend string      `json:"trend"`
}

type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type DetailedAnalysis struct {
	TopKeywords        []Keyword          `json:"top_keywords"`
	RatingDistribution map[string]int     `json:"rating_distribution"`
	Correlations       map[string]float64 `json:"correlations"`
	TotalComments      int                `json:"total_comments"`
}

type Insight struct {
	Type        string `json:"type"` // positive | warning | info | improvement
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HotelStatistics aggregates all responses of one hotel. A hotel with no
// responses gets an explicit all-zero shape, never an error.
func (e *Engine) HotelStatistics(ctx context.Context, hotelID int64) (Statistics, error) {
	responses, err := e.store.ListResponses(ctx, hotelID, nil)
	if err != nil {
		return Statistics{}, err
	}
	return e.computeStatistics(responses), nil
}

func (e *Engine) computeStatistics(responses []domain.SatisfactionResponse) Statistics {
	if len(responses) == 0 {
		return Statistics{CategoryAverages: map[string]float64{}}
	}

	var overallSum float64
	var overallN int
	var recYes, recN int
	for i := range responses {
		r := &responses[i]
		if r.OverallRating != nil {
			overallSum += *r.OverallRating
			overallN++
		}
		if r.WouldRecommend != nil {
			recN++
			if *r.WouldRecommend {
				recYes++
			}
		}
	}

	avgOverall := 0.0
	if overallN > 0 {
		avgOverall = overallSum / float64(overallN)
	}
	recRate := 0.0
	if recN > 0 {
		recRate = float64(recYes) / float64(recN) * 100
	}

	// A category with no data averages to zero, deliberately not nil.
	categoryAverages := make(map[string]float64, len(domain.Categories))
	for _, cat := range domain.Categories {
		var sum float64
		var n int
		for i := range responses {
			if v := responses[i].CategoryRating(cat); v != nil {
				sum += *v
				n++
			}
		}
		avg := 0.0
		if n > 0 {
			avg = sum / float64(n)
		}
		categoryAverages[cat] = round1(avg)
	}

	monthStart := startOfMonth(e.now())
	monthly := 0
	for i := range responses {
		if !responses[i].SubmissionDate.Before(monthStart) {
			monthly++
		}
	}

	return Statistics{
		TotalResponses:       len(responses),
		AverageOverallRating: round1(avgOverall),
		RecommendationRate:   round1(recRate),
		CategoryAverages:     categoryAverages,
		MonthlyResponses:     monthly,
	}
}

// ComparativeAnalysis keys per-hotel statistics by display name. A second
// hotel with the same name gets a "#id" suffix so neither is dropped.
// Unresolvable ids are skipped.
func (e *Engine) ComparativeAnalysis(ctx context.Context, hotelIDs []int64) (map[string]Statistics, error) {
	out := make(map[string]Statistics, len(hotelIDs))
	for _, id := range hotelIDs {
		hotel, err := e.store.GetHotel(ctx, id)
		if err != nil {
			log.Warn().Int64("hotel_id", id).Err(err).Msg("skipping unresolvable hotel in comparison")
			continue
		}
		stats, err := e.HotelStatistics(ctx, id)
		if err != nil {
			return nil, err
		}
		key := hotel.Name
		if _, taken := out[key]; taken {
			key = key + " #" + strconv.FormatInt(id, 10)
		}
		out[key] = stats
	}
	return out, nil
}

// TemporalAnalysis groups the trailing window into Monday-anchored weekly
// buckets and classifies the trend by comparing half means.
func (e *Engine) TemporalAnalysis(ctx context.Context, hotelID int64, periodDays int) (TemporalAnalysis, error) {
	since := e.now().AddDate(0, 0, -periodDays)
	responses, err := e.store.ListResponses(ctx, hotelID, &since)
	if err != nil {
		return TemporalAnalysis{}, err
	}
	return computeTemporal(responses), nil
}

func computeTemporal(responses []domain.SatisfactionResponse) TemporalAnalysis {
	if len(responses) == 0 {
		return TemporalAnalysis{Data: []WeekPoint{}, Trend: "stable"}
	}

	weekly := map[string][]float64{}
	for i := range responses {
		r := &responses[i]
		if r.OverallRating == nil {
			continue
		}
		weekly[weekKey(r.SubmissionDate)] = append(weekly[weekKey(r.SubmissionDate)], *r.OverallRating)
	}

	weeks := make([]string, 0, len(weekly))
	for w := range weekly {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	data := make([]WeekPoint, 0, len(weeks))
	for _, w := range weeks {
		ratings := weekly[w]
		data = append(data, WeekPoint{
			Week:          w,
			AverageRating: round1(mean(ratings)),
			ResponseCount: len(ratings),
		})
	}

	trend := "insufficient_data"
	if len(data) >= 2 {
		half := len(data) / 2
		firstAvg := meanWeeks(data[:half])
		secondAvg := meanWeeks(data[half:])
		switch {
		case secondAvg > firstAvg+0.2:
			trend = "improving"
		case secondAvg < firstAvg-0.2:
			trend = "declining"
		default:
			trend = "stable"
		}
	}

	return TemporalAnalysis{Data: data, Trend: trend}
}

// weekKey is the Monday of the submission's week, date only.
func weekKey(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return t.AddDate(0, 0, -offset).Format("2006-01-02")
}

var stopWords = map[string]struct{}{
	"très": {}, "bien": {}, "avec": {}, "pour": {},
	"dans": {}, "cette": {}, "tout": {}, "plus": {},
}

// DetailedAnalysis covers comment keywords, the overall rating
// distribution and pairwise category correlations. No data yields nil.
func (e *Engine) DetailedAnalysis(ctx context.Context, hotelID int64) (*DetailedAnalysis, error) {
	responses, err := e.store.ListResponses(ctx, hotelID, nil)
	if err != nil {
		return nil, err
	}
	return computeDetailed(responses), nil
}

func computeDetailed(responses []domain.SatisfactionResponse) *DetailedAnalysis {
	if len(responses) == 0 {
		return nil
	}

	// Keyword frequency over comments; ties keep first-encountered order.
	var comments []string
	for i := range responses {
		if c := responses[i].Comments; c != nil && *c != "" {
			comments = append(comments, *c)
		}
	}
	freq := map[string]int{}
	var order []string
	for _, comment := range comments {
		for _, word := range strings.Fields(strings.ToLower(comment)) {
			if len([]rune(word)) <= 3 {
				continue
			}
			if _, stop := stopWords[word]; stop {
				continue
			}
			if _, seen := freq[word]; !seen {
				order = append(order, word)
			}
			freq[word]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	top := order
	if len(top) > 10 {
		top = top[:10]
	}
	keywords := make([]Keyword, 0, len(top))
	for _, w := range top {
		keywords = append(keywords, Keyword{Word: w, Count: freq[w]})
	}

	// Distribution of integer-truncated overall ratings 1..5.
	distribution := map[string]int{}
	for i := 1; i <= 5; i++ {
		n := 0
		for j := range responses {
			r := responses[j].OverallRating
			if r != nil && *r != 0 && int(*r) == i {
				n++
			}
		}
		distribution[strconv.Itoa(i)] = n
	}

	// Pearson correlation per category pair, over responses where both
	// dimensions are present, needing at least 2 pairs.
	correlations := map[string]float64{}
	for i, cat1 := range domain.Categories {
		for _, cat2 := range domain.Categories[i+1:] {
			var xs, ys []float64
			for j := range responses {
				a := responses[j].CategoryRating(cat1)
				b := responses[j].CategoryRating(cat2)
				if a != nil && b != nil {
					xs = append(xs, *a)
					ys = append(ys, *b)
				}
			}
			if len(xs) >= 2 {
				if c, ok := pearson(xs, ys); ok {
					correlations[cat1+"_vs_"+cat2] = round2(c)
				}
			}
		}
	}

	return &DetailedAnalysis{
		TopKeywords:        keywords,
		RatingDistribution: distribution,
		Correlations:       correlations,
		TotalComments:      len(comments),
	}
}

var categoryNames = map[string]string{
	"accommodation_rating": "Accommodation",
	"service_rating":       "Service",
	"cleanliness_rating":   "Cleanliness",
	"food_rating":          "Food",
	"location_rating":      "Location",
	"value_rating":         "Value for money",
}

// Insights applies the fixed rule table over the aggregate analyses. The
// thresholds are part of the product contract; changing them changes the
// published reports.
func (e *Engine) Insights(ctx context.Context, hotelID int64) ([]Insight, error) {
	stats, err := e.HotelStatistics(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	detailed, err := e.DetailedAnalysis(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	temporal, err := e.TemporalAnalysis(ctx, hotelID, 30)
	if err != nil {
		return nil, err
	}
	if detailed == nil {
		return []Insight{}, nil
	}
	return buildInsights(stats, temporal), nil
}

func buildInsights(stats Statistics, temporal TemporalAnalysis) []Insight {
	insights := []Insight{}

	if stats.AverageOverallRating >= 4.5 {
		insights = append(insights, Insight{
			Type:        "positive",
			Title:       "Excellent overall satisfaction",
			Description: "Your hotel scores an average of " + format1(stats.AverageOverallRating) + "/5, which is excellent.",
		})
	} else if stats.AverageOverallRating < 3.5 {
		insights = append(insights, Insight{
			Type:        "warning",
			Title:       "Satisfaction needs attention",
			Description: "An average of " + format1(stats.AverageOverallRating) + "/5 points to room for improvement.",
		})
	}

	if stats.RecommendationRate >= 80 {
		insights = append(insights, Insight{
			Type:        "positive",
			Title:       "Strong recommendation rate",
			Description: format1(stats.RecommendationRate) + "% of your guests recommend your hotel.",
		})
	} else if stats.RecommendationRate < 60 {
		insights = append(insights, Insight{
			Type:        "warning",
			Title:       "Low recommendation rate",
			Description: "Only " + format1(stats.RecommendationRate) + "% recommendation. Look for the pain points.",
		})
	}

	best, worst := extremeCategories(stats.CategoryAverages)
	insights = append(insights, Insight{
		Type:        "info",
		Title:       "Identified strength",
		Description: "Your best asset is '" + displayCategory(best) + "' at " + format1(stats.CategoryAverages[best]) + "/5.",
	})
	if stats.CategoryAverages[worst] < 4.0 {
		insights = append(insights, Insight{
			Type:        "improvement",
			Title:       "Priority improvement area",
			Description: "'" + displayCategory(worst) + "' scores " + format1(stats.CategoryAverages[worst]) + "/5 and deserves attention.",
		})
	}

	switch temporal.Trend {
	case "improving":
		insights = append(insights, Insight{
			Type:        "positive",
			Title:       "Positive trend",
			Description: "Your satisfaction scores have been improving over the last weeks.",
		})
	case "declining":
		insights = append(insights, Insight{
			Type:        "warning",
			Title:       "Trend to watch",
			Description: "Your satisfaction scores show a recent decline.",
		})
	}

	return insights
}

// extremeCategories picks the best and worst scored categories, stable over
// the fixed category order.
func extremeCategories(averages map[string]float64) (best, worst string) {
	for _, cat := range domain.Categories {
		v, ok := averages[cat]
		if !ok {
			continue
		}
		if best == "" || v > averages[best] {
			best = cat
		}
		if worst == "" || v < averages[worst] {
			worst = cat
		}
	}
	return best, worst
}

func displayCategory(cat string) string {
	if n, ok := categoryNames[cat]; ok {
		return n
	}
	return cat
}

// ---- small numeric helpers ----

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func meanWeeks(ws []WeekPoint) float64 {
	if len(ws) == 0 {
		return 0
	}
	var s float64
	for _, w := range ws {
		s += w.AverageRating
	}
	return s / float64(len(ws))
}

func pearson(xs, ys []float64) (float64, bool) {
	mx, my := mean(xs), mean(ys)
	var num, dx, dy float64
	for i := range xs {
		a, b := xs[i]-mx, ys[i]-my
		num += a * b
		dx += a * a
		dy += b * b
	}
	if dx == 0 || dy == 0 {
		return 0, false
	}
	return num / math.Sqrt(dx*dy), true
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }

func format1(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
