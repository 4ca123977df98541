package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"logitrack-backend/internal/middleware"
	"logitrack-backend/internal/models"
	"logitrack-backend/internal/visits"
	"logitrack-backend/internal/websocket"
)

const (
	testBranchID      = "branch-z1c"
	testCoordinatorID = "coord-7"
	testBranchLat     = 14.6349
	testBranchLng     = -90.5069
)

func newTestEnv() (*chi.Mux, *visits.Tracker) {
	store := visits.NewMemoryStore()
	store.AddBranch(models.Branch{
		ID:        testBranchID,
		Name:      "Zona 1 Centro",
		Code:      "Z1C",
		Latitude:  testBranchLat,
		Longitude: testBranchLng,
		IsActive:  true,
	})

	tracker := visits.NewTracker(store, 50)
	hub := websocket.NewHub()

	r := chi.NewRouter()
	r.Get("/api/visits", GetVisitHistory(tracker))
	r.Post("/api/visits/check-in", CheckIn(tracker, hub, nil, nil))
	r.Put("/api/visits/{id}/check-out", CheckOut(tracker, hub))
	r.Get("/api/visits/active", GetActiveVisit(tracker))
	r.Get("/api/visits/active/all", GetAllActiveVisits(tracker))
	r.Get("/api/visits/{id}", GetVisit(tracker))
	r.Post("/api/visits/{id}/checklist", SaveChecklistResponse(tracker, nil))
	return r, tracker
}

func doRequest(r *chi.Mux, method, path string, body interface{}, claims middleware.UserClaims) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	} else {
		buf.WriteString("{}")
	}

	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func coordinatorClaims() middleware.UserClaims {
	return middleware.UserClaims{UserID: testCoordinatorID, Email: "coord@logitrack.gt", Role: models.RoleCoordinator}
}

func managerClaims() middleware.UserClaims {
	return middleware.UserClaims{UserID: "mgr-1", Email: "manager@logitrack.gt", Role: models.RoleManager}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}
	var data map[string]interface{}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	return data
}

func TestCheckInHandler(t *testing.T) {
	r, _ := newTestEnv()

	rec := doRequest(r, http.MethodPost, "/api/visits/check-in", models.CheckInRequest{
		BranchID:  testBranchID,
		Latitude:  f64(testBranchLat),
		Longitude: f64(testBranchLng),
	}, coordinatorClaims())

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["tier"] != "within" {
		t.Errorf("expected tier within, got %v", data["tier"])
	}
	visit := data["visit"].(map[string]interface{})
	if visit["status"] != "active" {
		t.Errorf("expected status active, got %v", visit["status"])
	}
	if visit["distance_to_branch_meters"].(float64) != 0 {
		t.Errorf("expected distance 0, got %v", visit["distance_to_branch_meters"])
	}
}

func TestCheckInHandlerMissingLocation(t *testing.T) {
	r, _ := newTestEnv()

	rec := doRequest(r, http.MethodPost, "/api/visits/check-in", models.CheckInRequest{
		BranchID: testBranchID,
	}, coordinatorClaims())

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCheckInHandlerUnknownBranch(t *testing.T) {
	r, _ := newTestEnv()

	rec := doRequest(r, http.MethodPost, "/api/visits/check-in", models.CheckInRequest{
		BranchID:  "nope",
		Latitude:  f64(testBranchLat),
		Longitude: f64(testBranchLng),
	}, coordinatorClaims())

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCheckInHandlerConflict(t *testing.T) {
	r, _ := newTestEnv()
	claims := coordinatorClaims()

	body := models.CheckInRequest{
		BranchID:  testBranchID,
		Latitude:  f64(testBranchLat),
		Longitude: f64(testBranchLng),
	}
	if rec := doRequest(r, http.MethodPost, "/api/visits/check-in", body, claims); rec.Code != http.StatusCreated {
		t.Fatalf("first check-in failed: %d", rec.Code)
	}
	if rec := doRequest(r, http.MethodPost, "/api/visits/check-in", body, claims); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second check-in, got %d", rec.Code)
	}
}

func TestCheckInHandlerOutOfRangeConfirmation(t *testing.T) {
	r, _ := newTestEnv()
	claims := coordinatorClaims()

	// Roughly 100m north of the branch.
	body := models.CheckInRequest{
		BranchID:  testBranchID,
		Latitude:  f64(testBranchLat + 0.0009),
		Longitude: f64(testBranchLng),
	}
	if rec := doRequest(r, http.MethodPost, "/api/visits/check-in", body, claims); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without confirmation, got %d", rec.Code)
	}

	body.Confirmed = true
	rec := doRequest(r, http.MethodPost, "/api/visits/check-in", body, claims)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with confirmation, got %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["tier"] != "out_of_range" {
		t.Errorf("expected tier out_of_range, got %v", data["tier"])
	}
	visit := data["visit"].(map[string]interface{})
	if visit["is_out_of_range"] != true {
		t.Errorf("expected is_out_of_range true")
	}
}

func TestCheckOutHandler(t *testing.T) {
	r, _ := newTestEnv()
	claims := coordinatorClaims()

	rec := doRequest(r, http.MethodPost, "/api/visits/check-in", models.CheckInRequest{
		BranchID:  testBranchID,
		Latitude:  f64(testBranchLat),
		Longitude: f64(testBranchLng),
	}, claims)
	if rec.Code != http.StatusCreated {
		t.Fatalf("check-in failed: %d", rec.Code)
	}
	data := decodeData(t, rec)
	visitID := data["visit"].(map[string]interface{})["id"].(string)

	out := doRequest(r, http.MethodPut, fmt.Sprintf("/api/visits/%s/check-out", visitID), models.CheckOutRequest{
		Notes: "all good",
	}, claims)
	if out.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", out.Code, out.Body.String())
	}

	var envelope struct {
		Data models.VisitResponse `json:"data"`
	}
	if err := json.Unmarshal(out.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode check-out response: %v", err)
	}
	if envelope.Data.Status != models.VisitStatusCompleted {
		t.Errorf("expected status completed, got %s", envelope.Data.Status)
	}
	if envelope.Data.DurationMinutes == nil {
		t.Error("expected duration_minutes to be set")
	}

	// A second check-out of the same visit conflicts.
	again := doRequest(r, http.MethodPut, fmt.Sprintf("/api/visits/%s/check-out", visitID), models.CheckOutRequest{}, claims)
	if again.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double check-out, got %d", again.Code)
	}
}

func TestCheckOutHandlerForbiddenForOtherCoordinator(t *testing.T) {
	r, _ := newTestEnv()

	rec := doRequest(r, http.MethodPost, "/api/visits/check-in", models.CheckInRequest{
		BranchID:  testBranchID,
		Latitude:  f64(testBranchLat),
		Longitude: f64(testBranchLng),
	}, coordinatorClaims())
	data := decodeData(t, rec)
	visitID := data["visit"].(map[string]interface{})["id"].(string)

	other := middleware.UserClaims{UserID: "coord-other", Role: models.RoleCoordinator}
	out := doRequest(r, http.MethodPut, fmt.Sprintf("/api/visits/%s/check-out", visitID), models.CheckOutRequest{}, other)
	if out.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", out.Code)
	}
}

func TestGetActiveVisitHandler(t *testing.T) {
	r, _ := newTestEnv()
	claims := coordinatorClaims()

	// No active visit yet: success envelope with null data.
	rec := doRequest(r, http.MethodGet, "/api/visits/active", nil, claims)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var empty struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &empty); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(empty.Data) != "null" {
		t.Errorf("expected null data, got %s", empty.Data)
	}

	doRequest(r, http.MethodPost, "/api/visits/check-in", models.CheckInRequest{
		BranchID:  testBranchID,
		Latitude:  f64(testBranchLat),
		Longitude: f64(testBranchLng),
	}, claims)

	rec = doRequest(r, http.MethodGet, "/api/visits/active", nil, claims)
	data := decodeData(t, rec)
	if data["status"] != "active" {
		t.Errorf("expected active visit, got %v", data["status"])
	}

	// A manager can look up another coordinator's active visit.
	rec = doRequest(r, http.MethodGet, "/api/visits/active?coordinator_id="+testCoordinatorID, nil, managerClaims())
	data = decodeData(t, rec)
	if data["coordinator_id"] != testCoordinatorID {
		t.Errorf("expected coordinator %s, got %v", testCoordinatorID, data["coordinator_id"])
	}
}

func TestGetVisitHistoryHandlerInvalidLimit(t *testing.T) {
	r, _ := newTestEnv()

	for _, limit := range []string{"abc", "0", "-5"} {
		rec := doRequest(r, http.MethodGet, "/api/visits?limit="+limit, nil, coordinatorClaims())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for limit=%s, got %d", limit, rec.Code)
		}
	}
}

func TestGetVisitHistoryHandlerClampsLimit(t *testing.T) {
	r, _ := newTestEnv()
	claims := coordinatorClaims()

	doRequest(r, http.MethodPost, "/api/visits/check-in", models.CheckInRequest{
		BranchID:  testBranchID,
		Latitude:  f64(testBranchLat),
		Longitude: f64(testBranchLng),
	}, claims)

	// Oversized limits are clamped to 200, not rejected.
	rec := doRequest(r, http.MethodGet, "/api/visits?limit=5000", nil, claims)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for oversized limit, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool                   `json:"success"`
		Data    []models.VisitResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(envelope.Data))
	}
}

func f64(v float64) *float64 { return &v }
