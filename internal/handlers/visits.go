package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"logitrack-backend/internal/geo"
	"logitrack-backend/internal/metrics"
	"logitrack-backend/internal/middleware"
	"logitrack-backend/internal/models"
	"logitrack-backend/internal/services"
	"logitrack-backend/internal/visits"
	"logitrack-backend/internal/websocket"
	"logitrack-backend/pkg/utils"
)

// respondVisitError maps tracker errors onto HTTP statuses.
func respondVisitError(w http.ResponseWriter, err error) {
	var validationErr *visits.ValidationError
	var conflictErr *visits.ConflictError
	var notFoundErr *visits.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		utils.RespondError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.As(err, &conflictErr):
		utils.RespondError(w, http.StatusConflict, conflictErr.Reason)
	case errors.As(err, &notFoundErr):
		utils.RespondError(w, http.StatusNotFound, notFoundErr.Reason)
	default:
		log.Printf("❌ VISITS: internal error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// CheckIn handles POST /api/visits/check-in
func CheckIn(tracker *visits.Tracker, hub *websocket.Hub, fcm *services.FCMService, db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.CheckInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		visit, cls, err := tracker.CheckIn(r.Context(), visits.CheckInInput{
			CoordinatorID: claims.UserID,
			BranchID:      req.BranchID,
			Latitude:      req.Latitude,
			Longitude:     req.Longitude,
			Notes:         req.Notes,
			Confirmed:     req.Confirmed,
		})
		if err != nil {
			respondVisitError(w, err)
			return
		}

		log.Printf("✅ CHECK-IN: coordinator %s at branch %s (%dm, %s)",
			visit.CoordinatorID, visit.BranchName, visit.DistanceToBranchMeters, cls.Tier)
		metrics.CheckIns.WithLabelValues(string(cls.Tier)).Inc()

		hub.BroadcastToRoles(map[string]interface{}{
			"type":  "visit_checked_in",
			"visit": visit.ToVisitResponse(tracker.MaxDistanceMeters()),
			"tier":  cls.Tier,
		}, models.RoleManager, models.RoleDispatcher, models.RoleAdmin)

		if cls.Tier == geo.TierOutOfRange && fcm != nil && db != nil {
			go notifyManagersOutOfRange(db, fcm, claims.Email, visit)
		}

		utils.RespondData(w, http.StatusCreated, map[string]interface{}{
			"visit": visit.ToVisitResponse(tracker.MaxDistanceMeters()),
			"tier":  cls.Tier,
		})
	}
}

// notifyManagersOutOfRange pushes an FCM alert to every registered manager
// and admin device. Runs in a goroutine; failures are logged only.
func notifyManagersOutOfRange(db *sqlx.DB, fcm *services.FCMService, coordinatorName string, visit models.Visit) {
	var tokens []string
	err := db.Select(&tokens, `
		SELECT ft.token FROM fcm_tokens ft
		JOIN users u ON u.id = ft.user_id
		WHERE u.role IN ('manager', 'admin')`)
	if err != nil {
		log.Printf("⚠️ FCM: failed to load manager tokens: %v", err)
		return
	}

	for _, token := range tokens {
		if err := fcm.SendOutOfRangeAlert(token, coordinatorName, visit.BranchName, visit.DistanceToBranchMeters); err != nil {
			log.Printf("⚠️ FCM: failed to send out-of-range alert: %v", err)
		}
	}
}

// CheckOut handles PUT /api/visits/{id}/check-out
func CheckOut(tracker *visits.Tracker, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		visitID := chi.URLParam(r, "id")

		var req models.CheckOutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		existing, err := tracker.Visit(r.Context(), visitID)
		if err != nil {
			respondVisitError(w, err)
			return
		}
		if existing.CoordinatorID != claims.UserID && claims.Role != models.RoleAdmin && claims.Role != models.RoleManager {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		visit, err := tracker.CheckOut(r.Context(), visitID, req.Latitude, req.Longitude, req.Notes)
		if err != nil {
			respondVisitError(w, err)
			return
		}

		duration := 0
		if d := visit.DurationMinutes(); d != nil {
			duration = *d
		}
		log.Printf("✅ CHECK-OUT: visit %s completed after %d min", visit.ID, duration)
		metrics.CheckOuts.Inc()

		hub.BroadcastToRoles(map[string]interface{}{
			"type":  "visit_checked_out",
			"visit": visit.ToVisitResponse(tracker.MaxDistanceMeters()),
		}, models.RoleManager, models.RoleDispatcher, models.RoleAdmin)

		utils.RespondData(w, http.StatusOK, visit.ToVisitResponse(tracker.MaxDistanceMeters()))
	}
}

// GetVisit handles GET /api/visits/{id}
func GetVisit(tracker *visits.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visit, err := tracker.Visit(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondVisitError(w, err)
			return
		}
		utils.RespondData(w, http.StatusOK, visit.ToVisitResponse(tracker.MaxDistanceMeters()))
	}
}

// GetActiveVisit handles GET /api/visits/active. Coordinators see their own
// active visit; managers can pass ?coordinator_id= to inspect someone else's.
func GetActiveVisit(tracker *visits.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		coordinatorID := claims.UserID
		if id := r.URL.Query().Get("coordinator_id"); id != "" &&
			(claims.Role == models.RoleAdmin || claims.Role == models.RoleManager || claims.Role == models.RoleDispatcher) {
			coordinatorID = id
		}

		visit, err := tracker.ActiveVisit(r.Context(), coordinatorID)
		if err != nil {
			respondVisitError(w, err)
			return
		}
		if visit == nil {
			utils.RespondData(w, http.StatusOK, nil)
			return
		}
		utils.RespondData(w, http.StatusOK, visit.ToVisitResponse(tracker.MaxDistanceMeters()))
	}
}

// GetAllActiveVisits handles GET /api/visits/active/all (manager map view)
func GetAllActiveVisits(tracker *visits.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := tracker.AllActive(r.Context())
		if err != nil {
			respondVisitError(w, err)
			return
		}

		responses := make([]models.VisitResponse, 0, len(active))
		for i := range active {
			responses = append(responses, active[i].ToVisitResponse(tracker.MaxDistanceMeters()))
		}
		utils.RespondData(w, http.StatusOK, responses)
	}
}

// GetVisitHistory handles GET /api/visits
func GetVisitHistory(tracker *visits.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		coordinatorID := claims.UserID
		if id := r.URL.Query().Get("coordinator_id"); id != "" &&
			(claims.Role == models.RoleAdmin || claims.Role == models.RoleManager || claims.Role == models.RoleDispatcher) {
			coordinatorID = id
		}

		limit := 20
		if l := r.URL.Query().Get("limit"); l != "" {
			parsed, err := strconv.Atoi(l)
			if err != nil || parsed <= 0 {
				utils.RespondError(w, http.StatusBadRequest, "Invalid limit")
				return
			}
			if parsed > 200 {
				parsed = 200
			}
			limit = parsed
		}

		history, err := tracker.History(r.Context(), coordinatorID, limit)
		if err != nil {
			respondVisitError(w, err)
			return
		}

		responses := make([]models.VisitResponse, 0, len(history))
		for i := range history {
			responses = append(responses, history[i].ToVisitResponse(tracker.MaxDistanceMeters()))
		}
		utils.RespondData(w, http.StatusOK, responses)
	}
}
