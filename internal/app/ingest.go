package app

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"hotelsat/internal/domain"
	"hotelsat/internal/webhook"
)

// Outcome is the definite answer an ingestion attempt always produces.
type Outcome struct {
	Status     string // accepted | duplicate
	ResponseID int64
	HotelID    int64
	HotelName  string
}

// IngestionService turns processed webhook deliveries into stored
// responses. The spreadsheet mirror is a secondary side effect: its failure
// never rolls back a committed record.
type IngestionService struct {
	store  domain.HotelStore
	mirror domain.SpreadsheetMirror
	// fallbackFirstHotel enables the first-hotel attribution of last
	// resort. Only safe on single-tenant deployments.
	fallbackFirstHotel bool
}

func NewIngestionService(store domain.HotelStore, mirror domain.SpreadsheetMirror, fallbackFirstHotel bool) *IngestionService {
	return &IngestionService{store: store, mirror: mirror, fallbackFirstHotel: fallbackFirstHotel}
}

// IngestGeneric handles one generic Tally delivery. explicitHotelID comes
// from the webhook URL query and wins over form-reference matching.
func (s *IngestionService) IngestGeneric(ctx context.Context, sub *webhook.Submission, explicitHotelID *int64) (Outcome, error) {
	if sub == nil {
		return Outcome{}, errors.New("no submission produced")
	}

	hotel, err := s.attributeHotel(ctx, explicitHotelID, sub.FormID)
	if err != nil {
		return Outcome{}, err
	}

	// Re-delivery of an already stored submission is a successful no-op.
	if sub.TallySubmissionID != nil {
		if existing, err := s.store.FindResponseBySubmissionID(ctx, *sub.TallySubmissionID); err == nil {
			log.Info().Str("submission", *sub.TallySubmissionID).Msg("submission already processed")
			return Outcome{Status: "duplicate", ResponseID: existing.ID, HotelID: hotel.ID, HotelName: hotel.Name}, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return Outcome{}, err
		}
	}

	id, err := s.store.SaveResponse(ctx, sub.Response(hotel.ID))
	if errors.Is(err, domain.ErrDuplicate) {
		// Lost the race against a concurrent delivery of the same event.
		return Outcome{Status: "duplicate", HotelID: hotel.ID, HotelName: hotel.Name}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	s.mirrorResponse(ctx, hotel, sub.Response(hotel.ID))

	log.Info().Int64("response_id", id).Str("hotel", hotel.Name).Msg("response stored")
	return Outcome{Status: "accepted", ResponseID: id, HotelID: hotel.ID, HotelName: hotel.Name}, nil
}

// IngestStructured handles one Top of Travel structured delivery. The
// structured form carries no submission id, so idempotency rests on the
// form service not re-delivering.
func (s *IngestionService) IngestStructured(ctx context.Context, sub *webhook.StructuredSubmission, explicitHotelID *int64) (Outcome, error) {
	if sub == nil {
		return Outcome{}, errors.New("no submission produced")
	}
	hotel, err := s.attributeHotel(ctx, explicitHotelID, "")
	if err != nil {
		return Outcome{}, err
	}
	id, err := s.store.SaveResponse(ctx, sub.Response(hotel.ID))
	if err != nil {
		return Outcome{}, err
	}
	s.mirrorResponse(ctx, hotel, sub.Response(hotel.ID))
	log.Info().Int64("response_id", id).Str("hotel", hotel.Name).Msg("structured response stored")
	return Outcome{Status: "accepted", ResponseID: id, HotelID: hotel.ID, HotelName: hotel.Name}, nil
}

// InjectSample stores a synthetic submission for a hotel, for manual
// end-to-end checks of the pipeline.
func (s *IngestionService) InjectSample(ctx context.Context, processor *webhook.Processor, hotelID int64) (Outcome, error) {
	hotel, err := s.store.GetHotel(ctx, hotelID)
	if err != nil {
		return Outcome{}, err
	}
	sub := processor.Process(webhook.SamplePayload(time.Now()))
	return s.IngestGeneric(ctx, sub, &hotel.ID)
}

// attributeHotel resolves the owning hotel: explicit id, then a hotel whose
// configured form URL contains the payload's form id, then (only when
// enabled) an arbitrary first hotel.
func (s *IngestionService) attributeHotel(ctx context.Context, explicitID *int64, formID string) (domain.Hotel, error) {
	if explicitID != nil {
		h, err := s.store.GetHotel(ctx, *explicitID)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Hotel{}, err
		}
		log.Warn().Int64("hotel_id", *explicitID).Msg("explicit hotel id does not resolve")
	}

	if formID != "" {
		h, err := s.store.FindHotelByFormRef(ctx, formID)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Hotel{}, err
		}
	}

	if s.fallbackFirstHotel {
		h, err := s.store.FirstHotel(ctx)
		if err == nil {
			log.Warn().Str("hotel", h.Name).Msg("falling back to first hotel for attribution")
			return h, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Hotel{}, err
		}
	}

	return domain.Hotel{}, domain.ErrNoHotel
}

func (s *IngestionService) mirrorResponse(ctx context.Context, hotel domain.Hotel, r domain.SatisfactionResponse) {
	if s.mirror == nil || hotel.SheetID == nil || *hotel.SheetID == "" {
		return
	}
	if err := s.mirror.Append(ctx, *hotel.SheetID, mirrorRow(r)); err != nil {
		log.Error().Err(err).Str("hotel", hotel.Name).Msg("spreadsheet mirror append failed")
	}
}

// mirrorRow is the canonical 12-column sheet layout.
func mirrorRow(r domain.SatisfactionResponse) []string {
	rec := ""
	if r.WouldRecommend != nil {
		rec = "Non"
		if *r.WouldRecommend {
			rec = "Oui"
		}
	}
	return []string{
		r.SubmissionDate.Format("2006-01-02 15:04:05"),
		strDeref(r.ClientName),
		strDeref(r.ClientEmail),
		ratingCell(r.OverallRating),
		ratingCell(r.AccommodationRating),
		ratingCell(r.ServiceRating),
		ratingCell(r.CleanlinessRating),
		ratingCell(r.FoodRating),
		ratingCell(r.LocationRating),
		ratingCell(r.ValueRating),
		rec,
		strDeref(r.Comments),
	}
}

func strDeref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ratingCell(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
