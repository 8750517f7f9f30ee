package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotelsat/internal/domain"
)

/********** alias registries (single source of truth) **********/

var fieldAliases = map[string][]string{
	"client_name":          {"nom", "name", "client_name"},
	"client_email":         {"email", "e-mail", "client_email"},
	"overall_rating":       {"note_globale", "overall_rating", "satisfaction_globale"},
	"accommodation_rating": {"hebergement", "accommodation", "logement"},
	"service_rating":       {"service", "service_client"},
	"cleanliness_rating":   {"proprete", "cleanliness", "nettoyage"},
	"food_rating":          {"restauration", "food", "nourriture"},
	"location_rating":      {"emplacement", "location", "localisation"},
	"value_rating":         {"rapport_qualite_prix", "value", "prix"},
	"would_recommend":      {"recommandation", "recommend", "recommande"},
	"comments":             {"commentaires", "comments", "remarques"},
}

var recommendTrue = map[string]struct{}{
	"oui": {}, "yes": {}, "true": {}, "1": {}, "recommande": {},
}

// Payload is the inbound Tally webhook shape.
type Payload struct {
	SubmissionID string         `json:"submissionId"`
	FormID       string         `json:"formId"`
	SubmittedAt  string         `json:"submittedAt"`
	Data         map[string]any `json:"data"`
}

// Submission is one processed delivery, field names already canonical and
// ready for direct construction of a SatisfactionResponse.
type Submission struct {
	TallySubmissionID   *string
	FormID              string
	SubmissionDate      time.Time
	ClientName          *string
	ClientEmail         *string
	OverallRating       *float64
	AccommodationRating *float64
	ServiceRating       *float64
	CleanlinessRating   *float64
	FoodRating          *float64
	LocationRating      *float64
	ValueRating         *float64
	WouldRecommend      *bool
	Comments            *string
}

// Processor maps raw Tally payloads into canonical submissions. A zero
// secret skips signature validation (permissive default).
type Processor struct {
	secret string
	now    func() time.Time
}

func NewProcessor(secret string) *Processor {
	return &Processor{secret: secret, now: time.Now}
}

// Process never fails on a malformed field; it degrades to nil per field and
// keeps going. It returns nil only when the payload carries no form data.
func (p *Processor) Process(in Payload) *Submission {
	if len(in.Data) == 0 {
		log.Error().Str("submission", in.SubmissionID).Msg("webhook payload has no form data")
		return nil
	}

	s := &Submission{
		FormID:         in.FormID,
		SubmissionDate: p.parseDate(in.SubmittedAt),
	}
	if in.SubmissionID != "" {
		sid := in.SubmissionID
		s.TallySubmissionID = &sid
	}

	s.ClientName = extractText(in.Data, fieldAliases["client_name"])
	s.ClientEmail = extractText(in.Data, fieldAliases["client_email"])
	s.Comments = extractText(in.Data, fieldAliases["comments"])

	s.OverallRating = ExtractRating(in.Data, fieldAliases["overall_rating"]...)
	s.AccommodationRating = ExtractRating(in.Data, fieldAliases["accommodation_rating"]...)
	s.ServiceRating = ExtractRating(in.Data, fieldAliases["service_rating"]...)
	s.CleanlinessRating = ExtractRating(in.Data, fieldAliases["cleanliness_rating"]...)
	s.FoodRating = ExtractRating(in.Data, fieldAliases["food_rating"]...)
	s.LocationRating = ExtractRating(in.Data, fieldAliases["location_rating"]...)
	s.ValueRating = ExtractRating(in.Data, fieldAliases["value_rating"]...)

	s.WouldRecommend = extractRecommend(in.Data)
	return s
}

// ValidSignature checks the HMAC-SHA256 hex signature of the raw body.
// Without a configured secret every delivery is accepted.
func (p *Processor) ValidSignature(body []byte, signature string) bool {
	if p.secret == "" {
		log.Warn().Msg("no webhook secret configured, skipping signature validation")
		return true
	}
	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Response builds the storable record for a hotel from this submission.
func (s *Submission) Response(hotelID int64) domain.SatisfactionResponse {
	return domain.SatisfactionResponse{
		HotelID:             hotelID,
		ClientName:          s.ClientName,
		ClientEmail:         s.ClientEmail,
		OverallRating:       s.OverallRating,
		AccommodationRating: s.AccommodationRating,
		ServiceRating:       s.ServiceRating,
		CleanlinessRating:   s.CleanlinessRating,
		FoodRating:          s.FoodRating,
		LocationRating:      s.LocationRating,
		ValueRating:         s.ValueRating,
		WouldRecommend:      s.WouldRecommend,
		Comments:            s.Comments,
		SubmissionDate:      s.SubmissionDate,
		TallySubmissionID:   s.TallySubmissionID,
	}
}

// SamplePayload builds a synthetic delivery for the manual test-injection
// endpoint.
func SamplePayload(now time.Time) Payload {
	return Payload{
		SubmissionID: "test_" + now.Format("20060102_150405"),
		FormID:       "test_form",
		SubmittedAt:  now.Format(time.RFC3339),
		Data: map[string]any{
			"nom":                  "Jean Dupont",
			"email":                "jean.dupont@example.com",
			"note_globale":         "4",
			"hebergement":          "5",
			"service":              "4",
			"proprete":             "5",
			"restauration":         "3",
			"emplacement":          "4",
			"rapport_qualite_prix": "4",
			"recommandation":       "Oui",
			"commentaires":         "Très bon séjour, personnel accueillant. Seul bémol: la restauration pourrait être améliorée.",
		},
	}
}

// parseDate accepts ISO-8601 (trailing Z normalized) with a plain
// "YYYY-MM-DD HH:MM:SS" fallback. A bad timestamp never fails ingestion;
// the current time is substituted with a warning.
func (p *Processor) parseDate(raw string) time.Time {
	if raw == "" {
		return p.now().UTC()
	}
	normalized := raw
	if strings.HasSuffix(normalized, "Z") {
		normalized = strings.TrimSuffix(normalized, "Z") + "+00:00"
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t
		}
	}
	if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return t
	}
	log.Warn().Str("value", raw).Msg("unrecognized submission date format")
	return p.now().UTC()
}

func extractText(answers map[string]any, candidates []string) *string {
	if v := ExtractField(answers, candidates...); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return &s
		}
	}
	return nil
}

func extractRecommend(answers map[string]any) *bool {
	v := ExtractField(answers, fieldAliases["would_recommend"]...)
	switch t := v.(type) {
	case bool:
		b := t
		return &b
	case string:
		_, yes := recommendTrue[strings.ToLower(t)]
		return &yes
	}
	return nil
}
