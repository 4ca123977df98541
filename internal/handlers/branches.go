package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"logitrack-backend/internal/models"
	"logitrack-backend/pkg/utils"
)

// GetBranches handles GET /api/branches
func GetBranches(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var branches []models.Branch
		err := db.Select(&branches, `
			SELECT id, name, code, address, latitude, longitude, radius_km, is_active, created_at, updated_at
			FROM branches
			WHERE is_active = true
			ORDER BY name`)
		if err != nil {
			log.Printf("❌ BRANCHES: failed to list branches: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch branches")
			return
		}

		utils.RespondData(w, http.StatusOK, branches)
	}
}

// GetBranch handles GET /api/branches/{id}
func GetBranch(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID := chi.URLParam(r, "id")

		var branch models.Branch
		err := db.Get(&branch, `
			SELECT id, name, code, address, latitude, longitude, radius_km, is_active, created_at, updated_at
			FROM branches WHERE id = $1`, branchID)
		if err != nil {
			utils.RespondError(w, http.StatusNotFound, "Branch not found")
			return
		}

		utils.RespondData(w, http.StatusOK, branch)
	}
}

// CreateBranch handles POST /api/branches (manager/admin only)
func CreateBranch(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateBranchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" || req.Code == "" {
			utils.RespondError(w, http.StatusBadRequest, "Name and code are required")
			return
		}
		if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
			utils.RespondError(w, http.StatusBadRequest, "Invalid coordinates")
			return
		}

		now := time.Now().Unix()
		branch := models.Branch{
			ID:        uuid.New().String(),
			Name:      req.Name,
			Code:      req.Code,
			Address:   req.Address,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			RadiusKm:  req.RadiusKm,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		_, err := db.Exec(`
			INSERT INTO branches (id, name, code, address, latitude, longitude, radius_km, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			branch.ID, branch.Name, branch.Code, branch.Address,
			branch.Latitude, branch.Longitude, branch.RadiusKm,
			branch.IsActive, branch.CreatedAt, branch.UpdatedAt)
		if err != nil {
			log.Printf("❌ BRANCHES: failed to create branch: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create branch")
			return
		}

		log.Printf("✅ BRANCHES: created %s (%s)", branch.Name, branch.Code)
		utils.RespondData(w, http.StatusCreated, branch)
	}
}
