// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotelsat/internal/adapters/observability"
	"hotelsat/internal/adapters/report"
	"hotelsat/internal/app"
	"hotelsat/internal/domain"
	"hotelsat/internal/webhook"
)

type Handlers struct {
	Store      domain.HotelStore
	Ingest     *app.IngestionService
	Q          *app.QueryService
	Processor  *webhook.Processor
	Structured *webhook.StructuredProcessor
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Post("/v1/webhooks/tally", h.postTallyWebhook)
	s.mux.Post("/v1/webhooks/topoftravel", h.postStructuredWebhook)
	s.mux.Post("/v1/webhooks/test", h.postTestWebhook)
	s.mux.Get("/v1/webhooks/status", h.getWebhookStatus)

	s.mux.Get("/v1/hotels", h.listHotels)
	s.mux.Post("/v1/hotels", h.createHotel)
	s.mux.Post("/v1/hotels/compare", h.compareHotels)
	s.mux.Get("/v1/hotels/{id}", h.getHotel)
	s.mux.Put("/v1/hotels/{id}", h.updateHotel)
	s.mux.Delete("/v1/hotels/{id}", h.deleteHotel)
	s.mux.Get("/v1/hotels/{id}/statistics", h.getStatistics)
	s.mux.Get("/v1/hotels/{id}/responses", h.listResponses)
	s.mux.Get("/v1/hotels/{id}/insights", h.getInsights)
	s.mux.Get("/v1/hotels/{id}/temporal-analysis", h.getTemporalAnalysis)

	s.mux.Get("/v1/reports/hotels/{id}/excel", h.exportExcel)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func hotelIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func explicitHotelID(r *http.Request) *int64 {
	if v := r.URL.Query().Get("hotel_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &id
		}
	}
	return nil
}

// ---- webhooks ----

func (h *Handlers) postTallyWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "empty webhook body")
		return
	}

	if sig := r.Header.Get("X-Tally-Signature"); sig != "" {
		if !h.Processor.ValidSignature(body, sig) {
			observability.ObserveWebhook("tally", "invalid_signature")
			writeProblem(w, http.StatusUnauthorized, "Invalid signature", "webhook signature mismatch")
			return
		}
	}

	var payload webhook.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		observability.ObserveWebhook("tally", "rejected")
		writeProblem(w, http.StatusBadRequest, "Bad Request", "payload is not valid JSON")
		return
	}

	sub := h.Processor.Process(payload)
	if sub == nil {
		observability.ObserveWebhook("tally", "rejected")
		writeProblem(w, http.StatusBadRequest, "Bad Request", "webhook processing failed")
		return
	}

	out, err := h.Ingest.IngestGeneric(r.Context(), sub, explicitHotelID(r))
	h.writeOutcome(w, r, "tally", out, err)
}

func (h *Handlers) postStructuredWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "empty webhook body")
		return
	}

	if sig := r.Header.Get("X-Tally-Signature"); sig != "" {
		if !h.Processor.ValidSignature(body, sig) {
			observability.ObserveWebhook("topoftravel", "invalid_signature")
			writeProblem(w, http.StatusUnauthorized, "Invalid signature", "webhook signature mismatch")
			return
		}
	}

	var payload webhook.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		observability.ObserveWebhook("topoftravel", "rejected")
		writeProblem(w, http.StatusBadRequest, "Bad Request", "payload is not valid JSON")
		return
	}

	sub := h.Structured.Process(payload)
	if sub == nil {
		observability.ObserveWebhook("topoftravel", "rejected")
		writeProblem(w, http.StatusBadRequest, "Bad Request", "webhook processing failed")
		return
	}

	out, err := h.Ingest.IngestStructured(r.Context(), sub, explicitHotelID(r))
	h.writeOutcome(w, r, "topoftravel", out, err)
}

func (h *Handlers) writeOutcome(w http.ResponseWriter, r *http.Request, form string, out app.Outcome, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrNoHotel) {
			observability.ObserveWebhook(form, "unattributed")
			writeProblem(w, http.StatusBadRequest, "Hotel not identified", "no hotel resolvable for this submission")
			return
		}
		log.Error().Err(err).Msg("webhook ingestion failed")
		observability.ObserveWebhook(form, "rejected")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "ingestion failed")
		return
	}

	observability.ObserveWebhook(form, out.Status)
	if out.Status == "duplicate" {
		writeJSON(w, http.StatusOK, map[string]any{"message": "submission already processed"})
		return
	}

	h.Q.InvalidateStatistics(r.Context(), out.HotelID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "response processed",
		"response_id": out.ResponseID,
		"hotel_name":  out.HotelName,
	})
}

func (h *Handlers) postTestWebhook(w http.ResponseWriter, r *http.Request) {
	id := explicitHotelID(r)
	if id == nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "hotel_id is required")
		return
	}
	out, err := h.Ingest.InjectSample(r.Context(), h.Processor, *id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
			return
		}
		log.Error().Err(err).Msg("test webhook failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "test injection failed")
		return
	}
	h.Q.InvalidateStatistics(r.Context(), out.HotelID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "test response created",
		"response_id": out.ResponseID,
		"hotel_name":  out.HotelName,
	})
}

func (h *Handlers) getWebhookStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Store.ResponseCounts(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "status query failed")
		return
	}
	total := 0
	hotels := make([]map[string]any, 0, len(counts))
	for _, c := range counts {
		total += c.Responses
		hotels = append(hotels, map[string]any{
			"hotel_name":     c.HotelName,
			"response_count": c.Responses,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_hotels":    len(counts),
		"total_responses": total,
		"hotels_data":     hotels,
	})
}

// ---- hotels ----

type hotelRequest struct {
	Name         string  `json:"name"`
	Location     *string `json:"location"`
	TallyFormURL *string `json:"tally_form_url"`
	SheetID      *string `json:"sheet_id"`
	SheetURL     *string `json:"sheet_url"`
}

type hotelDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Location     *string `json:"location"`
	TallyFormURL *string `json:"tally_form_url"`
	SheetID      *string `json:"sheet_id"`
	SheetURL     *string `json:"sheet_url"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func toHotelDTO(h domain.Hotel) hotelDTO {
	return hotelDTO{
		ID:           h.ID,
		Name:         h.Name,
		Location:     h.Location,
		TallyFormURL: h.TallyFormURL,
		SheetID:      h.SheetID,
		SheetURL:     h.SheetURL,
		CreatedAt:    h.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    h.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.Store.ListHotels(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "hotel listing failed")
		return
	}
	out := make([]hotelDTO, 0, len(hotels))
	for _, hotel := range hotels {
		out = append(out, toHotelDTO(hotel))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var req hotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "hotel name is required")
		return
	}
	id, err := h.Store.CreateHotel(r.Context(), domain.Hotel{
		Name:         req.Name,
		Location:     req.Location,
		TallyFormURL: req.TallyFormURL,
		SheetID:      req.SheetID,
		SheetURL:     req.SheetURL,
	})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "hotel creation failed")
		return
	}
	hotel, err := h.Store.GetHotel(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "hotel creation failed")
		return
	}
	log.Info().Int64("hotel_id", id).Str("name", hotel.Name).Msg("hotel created")
	writeJSON(w, http.StatusCreated, toHotelDTO(hotel))
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	hotel, err := h.Store.GetHotel(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	writeJSON(w, http.StatusOK, toHotelDTO(hotel))
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	hotel, err := h.Store.GetHotel(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}

	var req hotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if req.Name != "" {
		hotel.Name = req.Name
	}
	if req.Location != nil {
		hotel.Location = req.Location
	}
	if req.TallyFormURL != nil {
		hotel.TallyFormURL = req.TallyFormURL
	}
	if req.SheetID != nil {
		hotel.SheetID = req.SheetID
	}
	if req.SheetURL != nil {
		hotel.SheetURL = req.SheetURL
	}

	if err := h.Store.UpdateHotel(r.Context(), hotel); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "hotel update failed")
		return
	}
	updated, err := h.Store.GetHotel(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "hotel update failed")
		return
	}
	writeJSON(w, http.StatusOK, toHotelDTO(updated))
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Store.DeleteHotel(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "hotel deletion failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "hotel deleted"})
}

// ---- analytics ----

func (h *Handlers) getStatistics(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if _, err := h.Store.GetHotel(r.Context(), id); err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	stats, err := h.Q.HotelStatistics(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "statistics computation failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) listResponses(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if _, err := h.Store.GetHotel(r.Context(), id); err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}

	pg := domain.PageQuery{Page: 1, PerPage: 20}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pg.Page = n
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			pg.PerPage = n
		}
	}

	page, err := h.Q.ListResponses(r.Context(), id, pg)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response listing failed")
		return
	}
	items := make([]map[string]any, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, responseDTO(&page.Items[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"responses":    items,
		"total":        page.Total,
		"pages":        page.Pages,
		"current_page": page.Page,
	})
}

func responseDTO(r *domain.SatisfactionResponse) map[string]any {
	return map[string]any{
		"id":                   r.ID,
		"hotel_id":             r.HotelID,
		"client_name":          r.ClientName,
		"client_email":         r.ClientEmail,
		"overall_rating":       r.OverallRating,
		"accommodation_rating": r.AccommodationRating,
		"service_rating":       r.ServiceRating,
		"cleanliness_rating":   r.CleanlinessRating,
		"food_rating":          r.FoodRating,
		"location_rating":      r.LocationRating,
		"value_rating":         r.ValueRating,
		"would_recommend":      r.WouldRecommend,
		"comments":             r.Comments,
		"submission_date":      r.SubmissionDate.UTC().Format(time.RFC3339),
		"tally_submission_id":  r.TallySubmissionID,
	}
}

func (h *Handlers) getInsights(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if _, err := h.Store.GetHotel(r.Context(), id); err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	insights, err := h.Q.Insights(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "insight generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

func (h *Handlers) getTemporalAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if _, err := h.Store.GetHotel(r.Context(), id); err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	periodDays := 30
	if v := r.URL.Query().Get("period_days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			periodDays = n
		}
	}
	analysis, err := h.Q.TemporalAnalysis(r.Context(), id, periodDays)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "temporal analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *Handlers) compareHotels(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HotelIDs []int64 `json:"hotel_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.HotelIDs) < 2 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "at least 2 hotel ids are required")
		return
	}
	comparison, err := h.Q.ComparativeAnalysis(r.Context(), req.HotelIDs)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "comparison failed")
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

// ---- reports ----

func (h *Handlers) exportExcel(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	hotel, err := h.Store.GetHotel(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	responses, err := h.Store.ListResponses(r.Context(), id, nil)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "export failed")
		return
	}
	if len(responses) == 0 {
		writeProblem(w, http.StatusNotFound, "Not Found", "no data to export")
		return
	}
	stats, err := h.Q.HotelStatistics(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "export failed")
		return
	}

	book, err := report.BuildWorkbook(hotel, responses, stats)
	if err != nil {
		log.Error().Err(err).Msg("excel workbook build failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "export failed")
		return
	}

	filename := fmt.Sprintf("HotelSat_%s_%s.xlsx", hotel.Name, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(book); err != nil {
		log.Error().Err(err).Msg("failed to write excel body")
	}
}
