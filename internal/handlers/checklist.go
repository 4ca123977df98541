package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"logitrack-backend/internal/middleware"
	"logitrack-backend/internal/models"
	"logitrack-backend/internal/visits"
	"logitrack-backend/pkg/utils"
)

// GetChecklistTemplates handles GET /api/checklist/templates
func GetChecklistTemplates(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var templates []models.ChecklistTemplate
		err := db.Select(&templates, `
			SELECT id, name, description, category, is_required, display_order, is_active
			FROM checklist_templates
			WHERE is_active = true
			ORDER BY display_order, name`)
		if err != nil {
			log.Printf("❌ CHECKLIST: failed to list templates: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch checklist templates")
			return
		}

		utils.RespondData(w, http.StatusOK, templates)
	}
}

// GetVisitChecklist handles GET /api/visits/{id}/checklist
func GetVisitChecklist(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitID := chi.URLParam(r, "id")

		var responses []models.ChecklistResponse
		err := db.Select(&responses, `
			SELECT cr.id, cr.visit_id, cr.template_id, ct.name AS template_name,
			       cr.response_type, cr.response_boolean, cr.response_text,
			       cr.response_number, cr.response_rating, cr.notes, cr.created_at
			FROM checklist_responses cr
			JOIN checklist_templates ct ON ct.id = cr.template_id
			WHERE cr.visit_id = $1
			ORDER BY ct.display_order`, visitID)
		if err != nil {
			log.Printf("❌ CHECKLIST: failed to list responses for visit %s: %v", visitID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch checklist responses")
			return
		}

		utils.RespondData(w, http.StatusOK, responses)
	}
}

// SaveChecklistRequest is the request body for POST /api/visits/{id}/checklist
type SaveChecklistRequest struct {
	TemplateID      string   `json:"template_id"`
	ResponseType    string   `json:"response_type"`
	ResponseBoolean *bool    `json:"response_boolean,omitempty"`
	ResponseText    *string  `json:"response_text,omitempty"`
	ResponseNumber  *float64 `json:"response_number,omitempty"`
	ResponseRating  *int     `json:"response_rating,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

var validResponseTypes = map[string]bool{
	"boolean": true,
	"text":    true,
	"number":  true,
	"rating":  true,
}

// SaveChecklistResponse handles POST /api/visits/{id}/checklist. Responses
// can only be saved while the visit is still active; answering the same
// template twice overwrites the earlier answer.
func SaveChecklistResponse(tracker *visits.Tracker, db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		visitID := chi.URLParam(r, "id")

		var req SaveChecklistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.TemplateID == "" {
			utils.RespondError(w, http.StatusBadRequest, "template_id is required")
			return
		}
		if !validResponseTypes[req.ResponseType] {
			utils.RespondError(w, http.StatusBadRequest, "Invalid response_type")
			return
		}
		if req.ResponseRating != nil && (*req.ResponseRating < 1 || *req.ResponseRating > 5) {
			utils.RespondError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
			return
		}

		visit, err := tracker.Visit(r.Context(), visitID)
		if err != nil {
			respondVisitError(w, err)
			return
		}
		if visit.CoordinatorID != claims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}
		if visit.Status != models.VisitStatusActive {
			utils.RespondError(w, http.StatusConflict, "Visit is already completed")
			return
		}

		var response models.ChecklistResponse
		err = db.Get(&response, `
			INSERT INTO checklist_responses
				(visit_id, template_id, response_type, response_boolean, response_text, response_number, response_rating, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (visit_id, template_id) DO UPDATE SET
				response_type = EXCLUDED.response_type,
				response_boolean = EXCLUDED.response_boolean,
				response_text = EXCLUDED.response_text,
				response_number = EXCLUDED.response_number,
				response_rating = EXCLUDED.response_rating,
				notes = EXCLUDED.notes
			RETURNING id, visit_id, template_id, response_type, response_boolean,
			          response_text, response_number, response_rating, notes, created_at`,
			visitID, req.TemplateID, req.ResponseType,
			req.ResponseBoolean, req.ResponseText, req.ResponseNumber, req.ResponseRating,
			req.Notes, time.Now().Unix())
		if err != nil {
			log.Printf("❌ CHECKLIST: failed to save response: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to save checklist response")
			return
		}

		utils.RespondData(w, http.StatusCreated, response)
	}
}
