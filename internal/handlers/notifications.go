package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"logitrack-backend/internal/middleware"
	"logitrack-backend/pkg/utils"
)

// RegisterFCMTokenRequest is the request body for POST /api/notifications/fcm-token
type RegisterFCMTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

var validPlatforms = map[string]bool{
	"ios":     true,
	"android": true,
	"web":     true,
}

// RegisterFCMToken handles POST /api/notifications/fcm-token. Re-registering
// an existing token reassigns it to the calling user.
func RegisterFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req RegisterFCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Token == "" {
			utils.RespondError(w, http.StatusBadRequest, "Token is required")
			return
		}
		if !validPlatforms[req.Platform] {
			utils.RespondError(w, http.StatusBadRequest, "Platform must be ios, android, or web")
			return
		}

		now := time.Now().Unix()
		_, err := db.Exec(`
			INSERT INTO fcm_tokens (user_id, token, device_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (token) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				device_type = EXCLUDED.device_type,
				updated_at = EXCLUDED.updated_at`,
			claims.UserID, req.Token, req.Platform, now)
		if err != nil {
			log.Printf("❌ NOTIFICATIONS: failed to register FCM token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to register token")
			return
		}

		log.Printf("✅ NOTIFICATIONS: registered %s token for user %s", req.Platform, claims.UserID)
		utils.RespondData(w, http.StatusOK, map[string]string{"status": "registered"})
	}
}

// DeleteFCMToken handles DELETE /api/notifications/fcm-token
func DeleteFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req RegisterFCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Token == "" {
			utils.RespondError(w, http.StatusBadRequest, "Token is required")
			return
		}

		_, err := db.Exec(`DELETE FROM fcm_tokens WHERE token = $1 AND user_id = $2`, req.Token, claims.UserID)
		if err != nil {
			log.Printf("❌ NOTIFICATIONS: failed to delete FCM token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete token")
			return
		}

		utils.RespondData(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
