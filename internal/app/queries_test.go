package app_test

import (
	"context"
	"testing"
	"time"

	"hotelsat/internal/analytics"
	"hotelsat/internal/app"
	"hotelsat/internal/domain"
)

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok := dst.(*analytics.Statistics); ok {
		*d = v.(analytics.Statistics)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func TestHotelStatistics_CacheMissThenHit(t *testing.T) {
	store := &fakeStore{hotels: []domain.Hotel{{ID: 1, Name: "Alpha"}}}
	store.responses = []domain.SatisfactionResponse{
		{HotelID: 1, OverallRating: ptr(4.0), SubmissionDate: time.Now()},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(store, analytics.New(store), cache, 10*time.Minute)

	// Miss (first time, populates cache)
	s, err := q.HotelStatistics(context.Background(), 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if s.TotalResponses != 1 || s.AverageOverallRating != 4.0 {
		t.Fatalf("unexpected stats: %+v", s)
	}

	// Mutate the store to prove the second read comes from cache
	store.responses = append(store.responses,
		domain.SatisfactionResponse{HotelID: 1, OverallRating: ptr(1.0), SubmissionDate: time.Now()})

	s2, err := q.HotelStatistics(context.Background(), 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if s2.TotalResponses != 1 {
		t.Fatalf("expected cached stats, got %+v", s2)
	}
}

func TestInvalidateStatistics(t *testing.T) {
	store := &fakeStore{hotels: []domain.Hotel{{ID: 1, Name: "Alpha"}}}
	cache := &fakeCache{}
	q := app.NewQueryService(store, analytics.New(store), cache, 10*time.Minute)

	if _, err := q.HotelStatistics(context.Background(), 1); err != nil {
		t.Fatalf("err: %v", err)
	}
	q.InvalidateStatistics(context.Background(), 1)

	if len(cache.dels) != 1 || cache.dels[0] != "stats:1" {
		t.Fatalf("dels: %v", cache.dels)
	}
	if _, ok := cache.store["stats:1"]; ok {
		t.Fatal("cache entry survived invalidation")
	}
}

func TestHotelStatistics_NilCacheTolerated(t *testing.T) {
	store := &fakeStore{hotels: []domain.Hotel{{ID: 1, Name: "Alpha"}}}
	q := app.NewQueryService(store, analytics.New(store), nil, 10*time.Minute)

	if _, err := q.HotelStatistics(context.Background(), 1); err != nil {
		t.Fatalf("err: %v", err)
	}
	q.InvalidateStatistics(context.Background(), 1)
}
