package webhook_test

import (
	"testing"

	"hotelsat/internal/webhook"
)

func structuredPayload(overrides map[string]any) webhook.Payload {
	data := map[string]any{
		"email":                         "marie@example.com",
		"nom":                           "Marie Martin",
		"appreciation_globale_vacances": "4 étoiles",
		"hebergement_accueil":           "5",
		"chambres_proprete":             "4",
		"chambres_confort":              "3 étoiles",
		"qualite_variete_plats":         "4",
		"rapport_qualite_prix":          "4",
		"recommanderiez_vous_voyage":    "Oui",
		"duree_voyage":                  "7 jours",
		"vous_voyagez":                  "En famille",
		"ages":                          "60 et plus",
		"votre_avis_compte":             "Séjour agréable",
	}
	for k, v := range overrides {
		data[k] = v
	}
	return webhook.Payload{Data: data}
}

func TestStructuredProcess_KeyAndValueMapping(t *testing.T) {
	p := webhook.NewStructuredProcessor()
	sub := p.Process(structuredPayload(nil))
	if sub == nil {
		t.Fatal("expected a submission")
	}

	if v := sub.Fields["client_email"]; v != "marie@example.com" {
		t.Fatalf("client_email: %v", v)
	}
	if v := sub.Fields["overall_rating"]; v != 4.0 {
		t.Fatalf("overall_rating (étoiles stripped): %v", v)
	}
	if v := sub.Fields["room_comfort_rating"]; v != 3.0 {
		t.Fatalf("room_comfort_rating: %v", v)
	}
	if v := sub.Fields["would_recommend"]; v != true {
		t.Fatalf("would_recommend: %v", v)
	}
	if v := sub.Fields["trip_duration"]; v != 7 {
		t.Fatalf("trip_duration: %v", v)
	}
	if v := sub.Fields["travel_type"]; v != "family" {
		t.Fatalf("travel_type: %v", v)
	}
	if v := sub.Fields["age_group"]; v != "60+" {
		t.Fatalf("age_group: %v", v)
	}
	if sub.Source != "tally_webhook" {
		t.Fatalf("source: %q", sub.Source)
	}
}

func TestStructuredProcess_UnknownKeysIgnored(t *testing.T) {
	p := webhook.NewStructuredProcessor()
	sub := p.Process(structuredPayload(map[string]any{"champ_inconnu": "x"}))
	if _, ok := sub.Fields["champ_inconnu"]; ok {
		t.Fatal("unknown key leaked into mapped fields")
	}
}

func TestStructuredProcess_UnknownCategoryPassesThrough(t *testing.T) {
	p := webhook.NewStructuredProcessor()
	sub := p.Process(structuredPayload(map[string]any{"duree_voyage": "21 jours"}))
	if v := sub.Fields["trip_duration"]; v != "21 jours" {
		t.Fatalf("expected passthrough, got %v", v)
	}
}

func TestStructuredProcess_OtherDurationIsNil(t *testing.T) {
	p := webhook.NewStructuredProcessor()
	sub := p.Process(structuredPayload(map[string]any{"duree_voyage": "Autres"}))
	if v := sub.Fields["trip_duration"]; v != nil {
		t.Fatalf("expected nil for Autres, got %v", v)
	}
}

func TestStructuredProcess_SynthesizesOverall(t *testing.T) {
	p := webhook.NewStructuredProcessor()
	sub := p.Process(webhook.Payload{Data: map[string]any{
		"email":               "a@b.c",
		"nom":                 "A",
		"hebergement_accueil": "4",
		"chambres_proprete":   "5",
		"chambres_confort":    "3",
	}})
	if v := sub.Fields["overall_rating"]; v != 4.0 {
		t.Fatalf("synthesized overall: %v", v)
	}
}

func TestStructuredProcess_TooFewRatingsNoSynthesis(t *testing.T) {
	p := webhook.NewStructuredProcessor()
	sub := p.Process(webhook.Payload{Data: map[string]any{
		"email":               "a@b.c",
		"nom":                 "A",
		"hebergement_accueil": "4",
		"chambres_proprete":   "5",
	}})
	if v := sub.Fields["overall_rating"]; v != nil {
		t.Fatalf("expected nil overall, got %v", v)
	}
}

func TestStructuredValid(t *testing.T) {
	p := webhook.NewStructuredProcessor()
	if p.Valid(webhook.Payload{}) {
		t.Fatal("empty payload accepted")
	}
	if p.Valid(webhook.Payload{Data: map[string]any{"chambres_proprete": "4"}}) {
		t.Fatal("payload without required fields accepted")
	}
	if !p.Valid(webhook.Payload{Data: map[string]any{"email": "a@b.c"}}) {
		t.Fatal("payload with a required field rejected")
	}
}

func TestStructuredSubmission_Response(t *testing.T) {
	p := webhook.NewStructuredProcessor()
	sub := p.Process(structuredPayload(nil))

	r := sub.Response(3)
	if r.HotelID != 3 {
		t.Fatalf("hotel id: %d", r.HotelID)
	}
	if r.ClientName == nil || *r.ClientName != "Marie Martin" {
		t.Fatalf("client name: %+v", r.ClientName)
	}
	if r.OverallRating == nil || *r.OverallRating != 4 {
		t.Fatalf("overall: %v", fmtp(r.OverallRating))
	}
	if r.CleanlinessRating == nil || *r.CleanlinessRating != 4 {
		t.Fatalf("cleanliness: %v", fmtp(r.CleanlinessRating))
	}
	if r.WouldRecommend == nil || !*r.WouldRecommend {
		t.Fatalf("recommend: %+v", r.WouldRecommend)
	}
	// Dimensions the structured form does not cover stay nil.
	if r.ServiceRating != nil || r.LocationRating != nil {
		t.Fatal("uncovered dimensions should stay nil")
	}
	if r.Comments == nil || *r.Comments != "Séjour agréable" {
		t.Fatalf("comments: %+v", r.Comments)
	}
}
