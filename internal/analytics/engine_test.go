package analytics

import (
	"context"
	"testing"
	"time"

	"hotelsat/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	domain.HotelStore

	hotels    map[int64]domain.Hotel
	responses map[int64][]domain.SatisfactionResponse
}

func (f *fakeStore) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, ok := f.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (f *fakeStore) ListResponses(ctx context.Context, hotelID int64, since *time.Time) ([]domain.SatisfactionResponse, error) {
	var out []domain.SatisfactionResponse
	for _, r := range f.responses[hotelID] {
		if since != nil && r.SubmissionDate.Before(*since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func resp(overall float64, date time.Time) domain.SatisfactionResponse {
	return domain.SatisfactionResponse{OverallRating: &overall, SubmissionDate: date}
}

func ptr[T any](v T) *T { return &v }

// ---- statistics ----

func TestComputeStatistics_Empty(t *testing.T) {
	e := &Engine{now: time.Now}
	s := e.computeStatistics(nil)
	if s.TotalResponses != 0 || s.AverageOverallRating != 0 || s.RecommendationRate != 0 || s.MonthlyResponses != 0 {
		t.Fatalf("expected all-zero shape, got %+v", s)
	}
	if s.CategoryAverages == nil || len(s.CategoryAverages) != 0 {
		t.Fatalf("expected empty non-nil category map, got %v", s.CategoryAverages)
	}
}

func TestComputeStatistics_Aggregates(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	e := &Engine{now: func() time.Time { return now }}

	responses := []domain.SatisfactionResponse{
		{
			OverallRating:  ptr(4.0),
			ServiceRating:  ptr(5.0),
			WouldRecommend: ptr(true),
			SubmissionDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			OverallRating:  ptr(5.0),
			ServiceRating:  ptr(4.0),
			WouldRecommend: ptr(true),
			SubmissionDate: time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			// No overall, no recommendation: excluded from both means.
			ServiceRating:  ptr(3.0),
			WouldRecommend: ptr(false),
			SubmissionDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	s := e.computeStatistics(responses)
	if s.TotalResponses != 3 {
		t.Fatalf("total: %d", s.TotalResponses)
	}
	if s.AverageOverallRating != 4.5 {
		t.Fatalf("average overall: %v", s.AverageOverallRating)
	}
	if s.RecommendationRate != 66.7 {
		t.Fatalf("recommendation rate: %v", s.RecommendationRate)
	}
	if s.CategoryAverages["service_rating"] != 4.0 {
		t.Fatalf("service average: %v", s.CategoryAverages["service_rating"])
	}
	// Categories with no data average to zero, not missing.
	if v, ok := s.CategoryAverages["food_rating"]; !ok || v != 0 {
		t.Fatalf("food average: %v (present=%v)", v, ok)
	}
	if s.MonthlyResponses != 2 {
		t.Fatalf("monthly: %d", s.MonthlyResponses)
	}
}

// ---- comparative ----

func TestComparativeAnalysis(t *testing.T) {
	store := &fakeStore{
		hotels: map[int64]domain.Hotel{
			1: {ID: 1, Name: "Hôtel A"},
			2: {ID: 2, Name: "Hôtel B"},
		},
		responses: map[int64][]domain.SatisfactionResponse{
			1: {resp(4, time.Now())},
		},
	}
	e := New(store)

	out, err := e.ComparativeAnalysis(context.Background(), []int64{1, 2, 99})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 entries (unresolvable skipped), got %d", len(out))
	}
	if out["Hôtel A"].TotalResponses != 1 {
		t.Fatalf("hotel A stats: %+v", out["Hôtel A"])
	}
	// A hotel with zero responses still shows up with the all-zero shape.
	if out["Hôtel B"].TotalResponses != 0 {
		t.Fatalf("hotel B stats: %+v", out["Hôtel B"])
	}
}

func TestComparativeAnalysis_NameCollision(t *testing.T) {
	store := &fakeStore{
		hotels: map[int64]domain.Hotel{
			1: {ID: 1, Name: "Le Grand"},
			2: {ID: 2, Name: "Le Grand"},
		},
		responses: map[int64][]domain.SatisfactionResponse{},
	}
	e := New(store)

	out, err := e.ComparativeAnalysis(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, ok := out["Le Grand"]; !ok {
		t.Fatal("first hotel missing")
	}
	if _, ok := out["Le Grand #2"]; !ok {
		t.Fatalf("collided hotel missing, keys: %v", keys(out))
	}
}

func keys(m map[string]Statistics) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// ---- temporal ----

func TestComputeTemporal_Empty(t *testing.T) {
	out := computeTemporal(nil)
	if out.Trend != "stable" {
		t.Fatalf("trend: %s", out.Trend)
	}
	if out.Data == nil || len(out.Data) != 0 {
		t.Fatalf("expected empty non-nil data, got %v", out.Data)
	}
}

func TestComputeTemporal_SingleWeekInsufficient(t *testing.T) {
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	out := computeTemporal([]domain.SatisfactionResponse{
		resp(4, monday), resp(5, monday.AddDate(0, 0, 2)),
	})
	if len(out.Data) != 1 {
		t.Fatalf("weeks: %d", len(out.Data))
	}
	if out.Trend != "insufficient_data" {
		t.Fatalf("trend: %s", out.Trend)
	}
	if out.Data[0].Week != "2025-06-02" {
		t.Fatalf("week key: %s", out.Data[0].Week)
	}
	if out.Data[0].AverageRating != 4.5 || out.Data[0].ResponseCount != 2 {
		t.Fatalf("point: %+v", out.Data[0])
	}
}

func TestComputeTemporal_Trends(t *testing.T) {
	w1 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)  // Monday
	w2 := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)  // next Monday
	w3 := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	w4 := time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		ratings   [4]float64
		wantTrend string
	}{
		{"improving", [4]float64{3, 3, 5, 5}, "improving"},
		{"declining", [4]float64{5, 5, 3, 3}, "declining"},
		{"stable", [4]float64{4, 4, 4.1, 4.1}, "stable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := computeTemporal([]domain.SatisfactionResponse{
				resp(tc.ratings[0], w1), resp(tc.ratings[1], w2),
				resp(tc.ratings[2], w3), resp(tc.ratings[3], w4),
			})
			if out.Trend != tc.wantTrend {
				t.Fatalf("trend: got %s, want %s", out.Trend, tc.wantTrend)
			}
		})
	}
}

func TestWeekKey_SundayBelongsToPriorMonday(t *testing.T) {
	sunday := time.Date(2025, 6, 8, 23, 0, 0, 0, time.UTC)
	if k := weekKey(sunday); k != "2025-06-02" {
		t.Fatalf("week key: %s", k)
	}
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if k := weekKey(monday); k != "2025-06-02" {
		t.Fatalf("week key: %s", k)
	}
}

// ---- detailed ----

func TestComputeDetailed_NoData(t *testing.T) {
	if out := computeDetailed(nil); out != nil {
		t.Fatalf("expected nil, got %+v", out)
	}
}

func TestComputeDetailed_Keywords(t *testing.T) {
	now := time.Now()
	responses := []domain.SatisfactionResponse{
		{Comments: ptr("personnel accueillant, très bien"), SubmissionDate: now},
		{Comments: ptr("personnel attentif"), SubmissionDate: now},
		{SubmissionDate: now},
	}

	out := computeDetailed(responses)
	if out == nil {
		t.Fatal("expected analysis")
	}
	if out.TotalComments != 2 {
		t.Fatalf("total comments: %d", out.TotalComments)
	}
	if len(out.TopKeywords) == 0 || out.TopKeywords[0].Word != "personnel" || out.TopKeywords[0].Count != 2 {
		t.Fatalf("top keyword: %+v", out.TopKeywords)
	}
	for _, kw := range out.TopKeywords {
		if kw.Word == "très" || kw.Word == "bien" {
			t.Fatalf("stop word leaked: %s", kw.Word)
		}
		if len([]rune(kw.Word)) <= 3 {
			t.Fatalf("short word leaked: %s", kw.Word)
		}
	}
}

func TestComputeDetailed_Distribution(t *testing.T) {
	now := time.Now()
	responses := []domain.SatisfactionResponse{
		resp(4.0, now), resp(4.7, now), resp(2.0, now), resp(5.0, now),
		{SubmissionDate: now},            // nil overall skipped
		resp(0, now),                     // zero skipped
	}
	out := computeDetailed(responses)
	want := map[string]int{"1": 0, "2": 1, "3": 0, "4": 2, "5": 1}
	for k, v := range want {
		if out.RatingDistribution[k] != v {
			t.Fatalf("bucket %s: got %d, want %d", k, out.RatingDistribution[k], v)
		}
	}
}

func TestComputeDetailed_Correlations(t *testing.T) {
	now := time.Now()
	responses := []domain.SatisfactionResponse{
		{ServiceRating: ptr(1.0), CleanlinessRating: ptr(2.0), SubmissionDate: now},
		{ServiceRating: ptr(2.0), CleanlinessRating: ptr(3.0), SubmissionDate: now},
		{ServiceRating: ptr(3.0), CleanlinessRating: ptr(4.0), SubmissionDate: now},
		{ServiceRating: ptr(9.0), SubmissionDate: now}, // unpaired, ignored
	}
	out := computeDetailed(responses)

	if c := out.Correlations["service_rating_vs_cleanliness_rating"]; c != 1.0 {
		t.Fatalf("perfect correlation expected, got %v", c)
	}
	// A pair with fewer than 2 joint observations yields no entry.
	if _, ok := out.Correlations["food_rating_vs_location_rating"]; ok {
		t.Fatal("correlation computed without enough pairs")
	}
}

// ---- insights ----

func statsWith(avg, rec float64, cats map[string]float64) Statistics {
	if cats == nil {
		cats = map[string]float64{}
	}
	return Statistics{AverageOverallRating: avg, RecommendationRate: rec, CategoryAverages: cats}
}

func hasInsight(insights []Insight, title string) bool {
	for _, in := range insights {
		if in.Title == title {
			return true
		}
	}
	return false
}

func TestBuildInsights_Thresholds(t *testing.T) {
	cats := map[string]float64{"service_rating": 4.8, "food_rating": 3.2}
	temporal := TemporalAnalysis{Trend: "stable"}

	out := buildInsights(statsWith(4.5, 85, cats), temporal)
	if !hasInsight(out, "Excellent overall satisfaction") {
		t.Fatal("missing excellence insight at 4.5")
	}
	if !hasInsight(out, "Strong recommendation rate") {
		t.Fatal("missing recommendation insight at 85%")
	}
	if !hasInsight(out, "Identified strength") {
		t.Fatal("missing strength insight")
	}
	if !hasInsight(out, "Priority improvement area") {
		t.Fatal("missing improvement insight for category under 4.0")
	}

	out = buildInsights(statsWith(3.4, 55, cats), temporal)
	if !hasInsight(out, "Satisfaction needs attention") {
		t.Fatal("missing warning at 3.4")
	}
	if !hasInsight(out, "Low recommendation rate") {
		t.Fatal("missing low-recommendation warning at 55%")
	}

	// Between bands: neither satisfaction insight fires.
	out = buildInsights(statsWith(4.0, 70, map[string]float64{"service_rating": 4.5}), temporal)
	if hasInsight(out, "Excellent overall satisfaction") || hasInsight(out, "Satisfaction needs attention") {
		t.Fatal("satisfaction insight fired inside neutral band")
	}
}

func TestBuildInsights_TrendInsights(t *testing.T) {
	cats := map[string]float64{"service_rating": 4.5}

	out := buildInsights(statsWith(4.0, 70, cats), TemporalAnalysis{Trend: "improving"})
	if !hasInsight(out, "Positive trend") {
		t.Fatal("missing improving-trend insight")
	}
	out = buildInsights(statsWith(4.0, 70, cats), TemporalAnalysis{Trend: "declining"})
	if !hasInsight(out, "Trend to watch") {
		t.Fatal("missing declining-trend insight")
	}
}

func TestInsights_NoData(t *testing.T) {
	store := &fakeStore{
		hotels:    map[int64]domain.Hotel{1: {ID: 1, Name: "Vide"}},
		responses: map[int64][]domain.SatisfactionResponse{},
	}
	e := New(store)
	out, err := e.Insights(context.Background(), 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", out)
	}
}
