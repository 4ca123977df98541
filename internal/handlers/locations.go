package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"logitrack-backend/internal/metrics"
	"logitrack-backend/internal/models"
	"logitrack-backend/internal/services"
	"logitrack-backend/internal/websocket"
	"logitrack-backend/pkg/utils"
)

// SaveLocation handles POST /api/locations. Pings are persisted, cached as
// the moto's latest position, and broadcast to dashboard sockets.
func SaveLocation(db *sqlx.DB, hub *websocket.Hub, cache *services.LocationCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SaveLocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.MotoID == "" {
			utils.RespondError(w, http.StatusBadRequest, "moto_id is required")
			return
		}
		if req.Latitude == nil || req.Longitude == nil {
			utils.RespondError(w, http.StatusBadRequest, "Latitude and longitude are required")
			return
		}
		if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
			utils.RespondError(w, http.StatusBadRequest, "Invalid coordinates")
			return
		}

		loc := models.MotoLocation{
			MotoID:     req.MotoID,
			Latitude:   *req.Latitude,
			Longitude:  *req.Longitude,
			Speed:      req.Speed,
			Heading:    req.Heading,
			RecordedAt: time.Now().Unix(),
		}

		err := db.Get(&loc.ID, `
			INSERT INTO moto_locations (moto_id, latitude, longitude, speed, heading, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			loc.MotoID, loc.Latitude, loc.Longitude, loc.Speed, loc.Heading, loc.RecordedAt)
		if err != nil {
			log.Printf("❌ LOCATIONS: failed to save location: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to save location")
			return
		}

		metrics.LocationPings.Inc()

		if cache != nil {
			if err := cache.SaveLatest(r.Context(), loc); err != nil {
				log.Printf("⚠️ LOCATIONS: cache write failed: %v", err)
			}
		}

		hub.BroadcastToRoles(map[string]interface{}{
			"type":     "moto_location",
			"location": loc.ToMotoLocationResponse(),
		}, models.RoleManager, models.RoleDispatcher, models.RoleAdmin)

		utils.RespondData(w, http.StatusCreated, loc.ToMotoLocationResponse())
	}
}

// GetLatestMotoLocations handles GET /api/locations/motos/latest. Reads from
// the Redis cache when available and falls back to Postgres.
func GetLatestMotoLocations(db *sqlx.DB, cache *services.LocationCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cache != nil {
			if cached, err := cache.LatestAll(r.Context()); err == nil && len(cached) > 0 {
				responses := make([]models.MotoLocationResponse, 0, len(cached))
				for i := range cached {
					responses = append(responses, cached[i].ToMotoLocationResponse())
				}
				utils.RespondData(w, http.StatusOK, responses)
				return
			}
		}

		var locations []models.MotoLocation
		err := db.Select(&locations, `
			SELECT DISTINCT ON (moto_id) id, moto_id, latitude, longitude, speed, heading, recorded_at
			FROM moto_locations
			ORDER BY moto_id, recorded_at DESC`)
		if err != nil {
			log.Printf("❌ LOCATIONS: failed to fetch latest locations: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch locations")
			return
		}

		responses := make([]models.MotoLocationResponse, 0, len(locations))
		for i := range locations {
			responses = append(responses, locations[i].ToMotoLocationResponse())
		}
		utils.RespondData(w, http.StatusOK, responses)
	}
}

// GetMotoLocationHistory handles GET /api/locations/motos/{motoID}
func GetMotoLocationHistory(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		motoID := chi.URLParam(r, "motoID")

		var locations []models.MotoLocation
		err := db.Select(&locations, `
			SELECT id, moto_id, latitude, longitude, speed, heading, recorded_at
			FROM moto_locations
			WHERE moto_id = $1
			ORDER BY recorded_at DESC
			LIMIT 100`, motoID)
		if err != nil {
			log.Printf("❌ LOCATIONS: failed to fetch history for moto %s: %v", motoID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch location history")
			return
		}

		responses := make([]models.MotoLocationResponse, 0, len(locations))
		for i := range locations {
			responses = append(responses, locations[i].ToMotoLocationResponse())
		}
		utils.RespondData(w, http.StatusOK, responses)
	}
}
