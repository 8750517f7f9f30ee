package domain

import "time"

// SatisfactionResponse is one normalized survey submission. Rating fields
// are nominally on a 1-5 scale but are stored as received; the form owns
// validation.
type SatisfactionResponse struct {
	ID      int64
	HotelID int64

	ClientName  *string
	ClientEmail *string

	OverallRating       *float64
	AccommodationRating *float64
	ServiceRating       *float64
	CleanlinessRating   *float64
	FoodRating          *float64
	LocationRating      *float64
	ValueRating         *float64

	WouldRecommend *bool
	Comments       *string

	SubmissionDate time.Time
	// TallySubmissionID deduplicates re-delivered webhook events. At most
	// one stored response per id.
	TallySubmissionID *string
}

// Categories lists the six dimension columns in their fixed order.
var Categories = []string{
	"accommodation_rating",
	"service_rating",
	"cleanliness_rating",
	"food_rating",
	"location_rating",
	"value_rating",
}

func (r *SatisfactionResponse) CategoryRating(name string) *float64 {
	switch name {
	case "accommodation_rating":
		return r.AccommodationRating
	case "service_rating":
		return r.ServiceRating
	case "cleanliness_rating":
		return r.CleanlinessRating
	case "food_rating":
		return r.FoodRating
	case "location_rating":
		return r.LocationRating
	case "value_rating":
		return r.ValueRating
	}
	return nil
}
