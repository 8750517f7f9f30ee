package webhook

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotelsat/internal/domain"
)

// The Top of Travel questionnaire has a fixed set of question keys, each
// mapped 1:1 to a canonical field with a declared kind. Keeping the table
// typed avoids stringly-typed drift between mapping and normalization.

type fieldKind int

const (
	kindText fieldKind = iota
	kindRating
	kindBool
	kindCategory
)

type fieldSpec struct {
	canonical string
	kind      fieldKind
}

var formFields = map[string]fieldSpec{
	// Identity
	"email":             {"client_email", kindText},
	"nom":               {"client_name", kindText},
	"aeroport_depart":   {"departure_airport", kindText},
	"agence_voyages":    {"travel_agency", kindText},
	"code_postal":       {"postal_code", kindText},
	"date_depart":       {"departure_date", kindText},
	"duree_voyage":      {"trip_duration", kindCategory},
	"nombre_voyageurs":  {"number_travelers", kindText},

	// Overall appreciation
	"conformite_prestations_brochure": {"conformity_rating", kindRating},
	"rapport_qualite_prix":            {"value_rating", kindRating},
	"appreciation_globale_vacances":   {"overall_rating", kindRating},
	"recommanderiez_vous_voyage":      {"would_recommend", kindBool},

	// Transport
	"aerien_accueil_confort":  {"flight_comfort_rating", kindRating},
	"aerien_ponctualite":      {"flight_punctuality_rating", kindRating},
	"navette_securite":        {"shuttle_safety_rating", kindRating},
	"navette_conducteur":      {"shuttle_driver_rating", kindRating},
	"navette_confort_proprete": {"shuttle_comfort_rating", kindRating},

	// Accommodation
	"hebergement_accueil":       {"accommodation_welcome_rating", kindRating},
	"cadre_environnement":       {"environment_rating", kindRating},
	"proprete_parties_communes": {"common_areas_cleanliness_rating", kindRating},
	"cadre_restaurants":         {"restaurant_setting_rating", kindRating},
	"qualite_variete_plats":     {"food_quality_rating", kindRating},

	// Rooms
	"chambres_proprete":    {"room_cleanliness_rating", kindRating},
	"chambres_confort":     {"room_comfort_rating", kindRating},
	"chambres_taille":      {"room_size_rating", kindRating},
	"chambres_salle_bain":  {"bathroom_rating", kindRating},

	// Pool
	"piscine_amenagements": {"pool_facilities_rating", kindRating},
	"piscine_hygiene":      {"pool_hygiene_rating", kindRating},
	"piscine_securite":     {"pool_safety_rating", kindRating},

	// Entertainment
	"equipements_sportifs":          {"sports_equipment_rating", kindRating},
	"animation_soiree":              {"evening_entertainment_rating", kindRating},
	"variete_activites":             {"activities_variety_rating", kindRating},
	"convivialite_equipe_animation": {"animation_team_rating", kindRating},
	"activites_enfants":             {"children_activities_rating", kindRating},
	"animation_journee":             {"day_entertainment_rating", kindRating},

	// Staff
	"assistant_aeroport_arrivee":          {"arrival_assistant_rating", kindRating},
	"assistant_aeroport_depart":           {"departure_assistant_rating", kindRating},
	"representant_reunion_info":           {"info_meeting_rating", kindRating},
	"representant_presence_convivialite":  {"representative_presence_rating", kindRating},
	"representant_anticipation_besoins":   {"needs_anticipation_rating", kindRating},
	"representant_reactivite_solutions":   {"reactivity_solutions_rating", kindRating},

	// Excursions
	"excursions_qualite":      {"excursions_quality_rating", kindRating},
	"excursions_transport":    {"excursions_transport_rating", kindRating},
	"excursions_guides":       {"excursions_guides_rating", kindRating},
	"excursions_restauration": {"excursions_food_rating", kindRating},

	// Traveler profile
	"vous_voyagez":       {"travel_type", kindCategory},
	"ages":               {"age_group", kindCategory},
	"tour_operateurs":    {"previous_operators", kindText},
	"preparation_voyage": {"trip_preparation", kindText},
	"votre_avis_compte":  {"additional_comments", kindText},
}

// Categorical answers are translated after key mapping. Unknown answers
// pass through unchanged.
var valueMaps = map[string]map[string]any{
	"would_recommend": {
		"Oui": true,
		"Non": false,
	},
	"trip_duration": {
		"7 jours":  7,
		"14 jours": 14,
		"Autres":   nil,
	},
	"travel_type": {
		"En solo":                "solo",
		"En couple sans enfant":  "couple",
		"En famille":             "family",
		"Entre amis":             "friends",
	},
	"age_group": {
		"18-30":      "18-30",
		"31-40":      "31-40",
		"41-50":      "41-50",
		"51-60":      "51-60",
		"60 et plus": "60+",
	},
}

// mainRatings is the fixed subset used to synthesize a missing overall
// rating.
var mainRatings = []string{
	"accommodation_welcome_rating",
	"room_cleanliness_rating",
	"room_comfort_rating",
	"food_quality_rating",
	"value_rating",
}

var requiredFields = []string{"email", "nom", "appreciation_globale_vacances"}

// StructuredSubmission is a mapped Top of Travel form: canonical field
// names to normalized values, plus processing metadata. Hotel attribution
// and idempotency stay with the caller.
type StructuredSubmission struct {
	Fields         map[string]any
	SubmissionDate time.Time
	Source         string
}

// StructuredProcessor maps the richly structured questionnaire.
type StructuredProcessor struct {
	now func() time.Time
}

func NewStructuredProcessor() *StructuredProcessor {
	return &StructuredProcessor{now: time.Now}
}

// Valid rejects a payload before mapping unless it carries form data and at
// least one required field.
func (p *StructuredProcessor) Valid(in Payload) bool {
	if len(in.Data) == 0 {
		log.Error().Msg("structured webhook payload has no form data")
		return false
	}
	for _, f := range requiredFields {
		if _, ok := in.Data[f]; ok {
			return true
		}
	}
	log.Error().Msg("structured webhook payload has none of the required fields")
	return false
}

// Process maps every known question key into its canonical field and
// normalizes the value by kind. Unknown keys are ignored. Returns nil when
// the payload fails validation.
func (p *StructuredProcessor) Process(in Payload) *StructuredSubmission {
	if !p.Valid(in) {
		return nil
	}

	fields := make(map[string]any, len(in.Data))
	for key, spec := range formFields {
		raw, ok := in.Data[key]
		if !ok {
			continue
		}
		fields[spec.canonical] = normalizeStructured(spec, raw)
	}

	if _, ok := fields["overall_rating"]; !ok {
		fields["overall_rating"] = synthesizeOverall(fields)
	}

	return &StructuredSubmission{
		Fields:         fields,
		SubmissionDate: p.now().UTC(),
		Source:         "tally_webhook",
	}
}

func normalizeStructured(spec fieldSpec, raw any) any {
	if vm, ok := valueMaps[spec.canonical]; ok {
		if s, ok := raw.(string); ok {
			if mapped, known := vm[s]; known {
				return mapped
			}
		}
	}
	if spec.kind == kindRating {
		if s, ok := raw.(string); ok {
			return starsToRating(s)
		}
	}
	return raw
}

// starsToRating strips a trailing unit word ("4 étoiles") before numeric
// conversion. Same policy as NormalizeRating: unparseable becomes nil with
// a warning.
func starsToRating(s string) any {
	candidate := s
	if strings.Contains(s, "étoile") {
		candidate = strings.Fields(s)[0]
	}
	if f, ok := parseFloat(candidate); ok {
		return f
	}
	log.Warn().Str("value", s).Msg("unparseable rating")
	return nil
}

// synthesizeOverall averages the main rating fields, one decimal, when at
// least three are present.
func synthesizeOverall(fields map[string]any) any {
	var sum float64
	var n int
	for _, name := range mainRatings {
		if f, ok := fields[name].(float64); ok {
			sum += f
			n++
		}
	}
	if n < 3 {
		return nil
	}
	return round1(sum / float64(n))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// Response maps the canonical subset shared with the satisfaction model.
// Dimensions the structured form does not cover stay nil.
func (s *StructuredSubmission) Response(hotelID int64) domain.SatisfactionResponse {
	r := domain.SatisfactionResponse{
		HotelID:        hotelID,
		SubmissionDate: s.SubmissionDate,
	}
	r.ClientName = s.text("client_name")
	r.ClientEmail = s.text("client_email")
	r.Comments = s.text("additional_comments")
	r.OverallRating = s.rating("overall_rating")
	r.AccommodationRating = s.rating("accommodation_welcome_rating")
	r.CleanlinessRating = s.rating("room_cleanliness_rating")
	r.FoodRating = s.rating("food_quality_rating")
	r.ValueRating = s.rating("value_rating")
	if b, ok := s.Fields["would_recommend"].(bool); ok {
		r.WouldRecommend = &b
	}
	return r
}

func (s *StructuredSubmission) text(name string) *string {
	if v, ok := s.Fields[name].(string); ok && v != "" {
		return &v
	}
	return nil
}

func (s *StructuredSubmission) rating(name string) *float64 {
	if f, ok := s.Fields[name].(float64); ok {
		return &f
	}
	return nil
}
