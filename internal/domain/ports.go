package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate submission")
	ErrNoHotel   = errors.New("no hotel resolvable for submission")
)

type HotelStore interface {
	// Hotels
	CreateHotel(ctx context.Context, h Hotel) (int64, error)
	UpdateHotel(ctx context.Context, h Hotel) error
	DeleteHotel(ctx context.Context, id int64) error
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	FindHotelByFormRef(ctx context.Context, token string) (Hotel, error)
	FirstHotel(ctx context.Context) (Hotel, error)

	// Responses
	SaveResponse(ctx context.Context, r SatisfactionResponse) (int64, error)
	FindResponseBySubmissionID(ctx context.Context, sid string) (SatisfactionResponse, error)
	ListResponses(ctx context.Context, hotelID int64, since *time.Time) ([]SatisfactionResponse, error)
	ListResponsesPage(ctx context.Context, hotelID int64, pg PageQuery) (ResponsesPage, error)
	ResponseCounts(ctx context.Context) ([]HotelResponseCount, error)
}

// SpreadsheetMirror copies accepted submissions to an external sheet.
// Append failures are logged and never fail ingestion.
type SpreadsheetMirror interface {
	Append(ctx context.Context, sheetID string, row []string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type PageQuery struct {
	Page    int
	PerPage int
}

type ResponsesPage struct {
	Items []SatisfactionResponse
	Total int
	Pages int
	Page  int
}

type HotelResponseCount struct {
	HotelID   int64
	HotelName string
	Responses int
}
