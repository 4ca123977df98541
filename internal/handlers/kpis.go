package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"logitrack-backend/internal/models"
	"logitrack-backend/pkg/utils"
)

// GetBranchKPIs handles GET /api/kpis/branches (manager dashboard).
// Timestamps are stored as Unix epoch, so day and week windows are computed
// in Go and passed as parameters.
func GetBranchKPIs(db *sqlx.DB, maxDistanceMeters float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Unix()
		weekStart := now.AddDate(0, 0, -7).Unix()

		var kpis []models.BranchKPI
		err := db.Select(&kpis, `
			SELECT
				b.id AS branch_id,
				b.name AS branch_name,
				b.code AS branch_code,
				COUNT(v.id) FILTER (WHERE v.check_in_time >= $1) AS visits_today,
				COUNT(v.id) FILTER (WHERE v.check_in_time >= $2) AS visits_this_week,
				COUNT(v.id) FILTER (WHERE v.distance_to_branch_meters > $3) AS out_of_range_visits,
				AVG((v.check_out_time - v.check_in_time) / 60.0)
					FILTER (WHERE v.status = 'completed') AS avg_duration_minutes,
				MAX(v.check_in_time) AS last_visit_at
			FROM branches b
			LEFT JOIN coordinator_visits v ON v.branch_id = b.id
			WHERE b.is_active = true
			GROUP BY b.id, b.name, b.code
			ORDER BY b.name`,
			dayStart, weekStart, maxDistanceMeters)
		if err != nil {
			log.Printf("❌ KPIS: failed to aggregate branch KPIs: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch branch KPIs")
			return
		}

		utils.RespondData(w, http.StatusOK, kpis)
	}
}
