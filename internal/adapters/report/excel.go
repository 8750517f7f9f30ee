// Package report renders satisfaction data into downloadable Excel
// workbooks: one raw-data sheet plus a summary sheet.
package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"hotelsat/internal/analytics"
	"hotelsat/internal/domain"
)

var dataHeaders = []string{
	"Date", "Nom", "Email",
	"Note globale", "Hébergement", "Service", "Propreté",
	"Restauration", "Emplacement", "Rapport qualité/prix",
	"Recommande", "Commentaires",
}

var categoryLabels = map[string]string{
	"accommodation_rating": "Hébergement",
	"service_rating":       "Service",
	"cleanliness_rating":   "Propreté",
	"food_rating":          "Restauration",
	"location_rating":      "Emplacement",
	"value_rating":         "Rapport qualité/prix",
}

// BuildWorkbook renders one hotel's responses and statistics into an
// xlsx byte slice ready to stream to the client.
func BuildWorkbook(hotel domain.Hotel, responses []domain.SatisfactionResponse, stats analytics.Statistics) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const dataSheet = "Données"
	const statsSheet = "Statistiques"

	f.SetSheetName(f.GetSheetName(0), dataSheet)
	if _, err := f.NewSheet(statsSheet); err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F5597"}},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range dataHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(dataSheet, cell, h); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(dataHeaders), 1)
	if err := f.SetCellStyle(dataSheet, "A1", last, header); err != nil {
		return nil, err
	}

	for i, r := range responses {
		row := []any{
			r.SubmissionDate.Format("2006-01-02 15:04:05"),
			deref(r.ClientName),
			deref(r.ClientEmail),
			ratingVal(r.OverallRating),
			ratingVal(r.AccommodationRating),
			ratingVal(r.ServiceRating),
			ratingVal(r.CleanlinessRating),
			ratingVal(r.FoodRating),
			ratingVal(r.LocationRating),
			ratingVal(r.ValueRating),
			recommendVal(r.WouldRecommend),
			deref(r.Comments),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(dataSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(dataSheet, "A", "A", 20); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(dataSheet, "L", "L", 50); err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Hôtel", hotel.Name},
		{"Nombre de réponses", stats.TotalResponses},
		{"Note moyenne globale", stats.AverageOverallRating},
		{"Taux de recommandation (%)", stats.RecommendationRate},
		{"Réponses ce mois-ci", stats.MonthlyResponses},
		{},
		{"Moyennes par catégorie", ""},
	}
	for _, cat := range domain.Categories {
		label := categoryLabels[cat]
		if label == "" {
			label = cat
		}
		v, ok := stats.CategoryAverages[cat]
		if !ok {
			summary = append(summary, []any{label, "—"})
			continue
		}
		summary = append(summary, []any{label, v})
	}
	for i, row := range summary {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(statsSheet, cell, &r); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(statsSheet, "A1", "A1", header); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(statsSheet, "A", "A", 30); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ratingVal(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func recommendVal(p *bool) string {
	if p == nil {
		return ""
	}
	if *p {
		return "Oui"
	}
	return "Non"
}
