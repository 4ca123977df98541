package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"logitrack-backend/internal/middleware"
	"logitrack-backend/internal/models"
)

func TestSaveChecklistResponseRejectedAfterCheckOut(t *testing.T) {
	r, _ := newTestEnv()
	claims := coordinatorClaims()

	rec := doRequest(r, http.MethodPost, "/api/visits/check-in", models.CheckInRequest{
		BranchID:  testBranchID,
		Latitude:  f64(testBranchLat),
		Longitude: f64(testBranchLng),
	}, claims)
	if rec.Code != http.StatusCreated {
		t.Fatalf("check-in failed: %d: %s", rec.Code, rec.Body.String())
	}
	visitID := decodeData(t, rec)["visit"].(map[string]interface{})["id"].(string)

	body := SaveChecklistRequest{TemplateID: "tpl-inventory", ResponseType: "boolean", ResponseBoolean: bptr(true)}

	out := doRequest(r, http.MethodPut, fmt.Sprintf("/api/visits/%s/check-out", visitID), models.CheckOutRequest{}, claims)
	if out.Code != http.StatusOK {
		t.Fatalf("check-out failed: %d", out.Code)
	}

	save := doRequest(r, http.MethodPost, fmt.Sprintf("/api/visits/%s/checklist", visitID), body, claims)
	if save.Code != http.StatusConflict {
		t.Fatalf("expected 409 for completed visit, got %d: %s", save.Code, save.Body.String())
	}
}

func TestSaveChecklistResponseForbiddenForOtherCoordinator(t *testing.T) {
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
	visitID := decodeData(t, rec)["visit"].(map[string]interface{})["id"].(string)

	other := middleware.UserClaims{UserID: "coord-other", Role: models.RoleCoordinator}
	body := SaveChecklistRequest{TemplateID: "tpl-inventory", ResponseType: "boolean", ResponseBoolean: bptr(true)}
	save := doRequest(r, http.MethodPost, fmt.Sprintf("/api/visits/%s/checklist", visitID), body, other)
	if save.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", save.Code)
	}
}

func TestSaveChecklistResponseUnknownVisit(t *testing.T) {
	r, _ := newTestEnv()

	body := SaveChecklistRequest{TemplateID: "tpl-inventory", ResponseType: "boolean", ResponseBoolean: bptr(true)}
	save := doRequest(r, http.MethodPost, "/api/visits/nope/checklist", body, coordinatorClaims())
	if save.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown visit, got %d", save.Code)
	}
}

func TestSaveChecklistResponseValidation(t *testing.T) {
	r, _ := newTestEnv()
	claims := coordinatorClaims()

	cases := []struct {
		name string
		body SaveChecklistRequest
	}{
		{"missing template", SaveChecklistRequest{ResponseType: "boolean"}},
		{"bad response type", SaveChecklistRequest{TemplateID: "tpl-inventory", ResponseType: "emoji"}},
		{"rating out of range", SaveChecklistRequest{TemplateID: "tpl-image", ResponseType: "rating", ResponseRating: iptr(9)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			save := doRequest(r, http.MethodPost, "/api/visits/whatever/checklist", tc.body, claims)
			if save.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", save.Code)
			}
		})
	}
}

func bptr(v bool) *bool { return &v }
func iptr(v int) *int   { return &v }
