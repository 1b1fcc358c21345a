// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"localbiz_backend/internal/app"
	"localbiz_backend/internal/domain"
)

type Handlers struct {
	Reviews *app.ReviewService
	Leads   *app.LeadService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/api/health", h.health)
	s.mux.Get("/api/reviews", h.listReviews)
	s.mux.Get("/api/reviews/stats", h.reviewStats)
	s.mux.Get("/api/reviews/check-duplicates", h.checkDuplicates)
	s.mux.Post("/api/webhook/reviews-update", h.reviewsWebhook)
	s.mux.Post("/api/contact", h.submitContact)
	s.mux.Post("/api/bookings", h.createBooking)
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

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"reviews": h.Reviews.ListReviews(r.Context())}

	etag, body := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReviews body")
	}
}

func (h *Handlers) reviewStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Reviews.Stats(r.Context()))
}

func (h *Handlers) checkDuplicates(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Reviews.CheckDuplicates(r.Context())
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store Unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// reviewsWebhook always answers 2xx with the run counts in the body;
// per-record failures are reported in-band, never via error status codes.
func (h *Handlers) reviewsWebhook(w http.ResponseWriter, r *http.Request) {
	var batch domain.WebhookBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Payload", "body must be a reviews-update JSON object")
		return
	}
	writeJSON(w, http.StatusOK, h.Reviews.Ingest(r.Context(), batch))
}

func (h *Handlers) submitContact(w http.ResponseWriter, r *http.Request) {
	var lead domain.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Payload", "body must be a contact JSON object")
		return
	}
	if lead.Name == "" || lead.Phone == "" || lead.Email == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Fields", "name, phone and email are required")
		return
	}
	id, err := h.Leads.SubmitContact(r.Context(), lead)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save Failed", "failed to submit contact")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Contact request submitted successfully",
		"id":      id,
	})
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var b domain.Booking
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Payload", "body must be a booking JSON object")
		return
	}
	if b.CustomerName == "" || b.Email == "" || b.Phone == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Fields", "customer_name, email and phone are required")
		return
	}
	id, err := h.Leads.SubmitBooking(r.Context(), b)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save Failed", "failed to create booking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Booking request submitted successfully",
		"booking_id": id,
	})
}
