package models

import (
	"math"
	"time"
)

// VisitStatus represents the lifecycle state of a coordinator visit
type VisitStatus string

const (
	VisitStatusActive    VisitStatus = "active"    // Checked in, not yet out
	VisitStatusCompleted VisitStatus = "completed" // Checked out (terminal)
)

// Visit is one check-in/check-out session by a coordinator at a branch.
// DistanceToBranchMeters is computed once at check-in from the check-in
// coordinates and the branch coordinates; check-out never recomputes it.
type Visit struct {
	ID                     string      `json:"id" db:"id"`
	CoordinatorID          string      `json:"coordinator_id" db:"coordinator_id"`
	CoordinatorName        string      `json:"coordinator_name,omitempty" db:"coordinator_name"`
	BranchID               string      `json:"branch_id" db:"branch_id"`
	BranchName             string      `json:"branch_name,omitempty" db:"branch_name"`
	CheckInTime            int64       `json:"check_in_time" db:"check_in_time"` // Unix timestamp
	CheckOutTime           *int64      `json:"check_out_time" db:"check_out_time"`
	CheckInLatitude        float64     `json:"check_in_latitude" db:"check_in_latitude"`
	CheckInLongitude       float64     `json:"check_in_longitude" db:"check_in_longitude"`
	CheckOutLatitude       *float64    `json:"check_out_latitude,omitempty" db:"check_out_latitude"`
	CheckOutLongitude      *float64    `json:"check_out_longitude,omitempty" db:"check_out_longitude"`
	DistanceToBranchMeters int         `json:"distance_to_branch_meters" db:"distance_to_branch_meters"`
	Status                 VisitStatus `json:"status" db:"status"`
	Notes                  string      `json:"notes" db:"notes"`
	CreatedAt              int64       `json:"created_at" db:"created_at"`
	UpdatedAt              int64       `json:"updated_at" db:"updated_at"`
}

// DurationMinutes returns the visit length rounded to whole minutes, or nil
// while the visit is still active.
func (v *Visit) DurationMinutes() *int {
	if v.CheckOutTime == nil {
		return nil
	}
	m := int(math.Round(float64(*v.CheckOutTime-v.CheckInTime) / 60.0))
	return &m
}

// CheckInRequest is the request body for POST /api/visits/check-in.
// Confirmed must be true to accept a check-in beyond the geofence radius.
type CheckInRequest struct {
	BranchID  string   `json:"branch_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Notes     string   `json:"notes,omitempty"`
	Confirmed bool     `json:"confirmed,omitempty"`
}

// CheckOutRequest is the request body for POST /api/visits/{id}/check-out
type CheckOutRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// VisitResponse is what we send to the client, with ISO timestamps and the
// derived audit fields history views rely on.
type VisitResponse struct {
	ID                     string      `json:"id"`
	CoordinatorID          string      `json:"coordinator_id"`
	CoordinatorName        string      `json:"coordinator_name,omitempty"`
	BranchID               string      `json:"branch_id"`
	BranchName             string      `json:"branch_name,omitempty"`
	CheckInTimeIso         string      `json:"check_in_time"`
	CheckOutTimeIso        *string     `json:"check_out_time,omitempty"`
	CheckInLatitude        float64     `json:"check_in_latitude"`
	CheckInLongitude       float64     `json:"check_in_longitude"`
	CheckOutLatitude       *float64    `json:"check_out_latitude,omitempty"`
	CheckOutLongitude      *float64    `json:"check_out_longitude,omitempty"`
	DistanceToBranchMeters int         `json:"distance_to_branch_meters"`
	IsOutOfRange           bool        `json:"is_out_of_range"`
	Status                 VisitStatus `json:"status"`
	Notes                  string      `json:"notes,omitempty"`
	DurationMinutes        *int        `json:"duration_minutes,omitempty"`
}

// ToVisitResponse converts a Visit to VisitResponse. maxDistanceMeters is the
// deployment's geofence radius, used to derive the out-of-range audit flag.
func (v *Visit) ToVisitResponse(maxDistanceMeters float64) VisitResponse {
	resp := VisitResponse{
		ID:                     v.ID,
		CoordinatorID:          v.CoordinatorID,
		CoordinatorName:        v.CoordinatorName,
		BranchID:               v.BranchID,
		BranchName:             v.BranchName,
		CheckInTimeIso:         time.Unix(v.CheckInTime, 0).UTC().Format(time.RFC3339),
		CheckInLatitude:        v.CheckInLatitude,
		CheckInLongitude:       v.CheckInLongitude,
		CheckOutLatitude:       v.CheckOutLatitude,
		CheckOutLongitude:      v.CheckOutLongitude,
		DistanceToBranchMeters: v.DistanceToBranchMeters,
		IsOutOfRange:           float64(v.DistanceToBranchMeters) > maxDistanceMeters,
		Status:                 v.Status,
		Notes:                  v.Notes,
		DurationMinutes:        v.DurationMinutes(),
	}

	if v.CheckOutTime != nil {
		iso := time.Unix(*v.CheckOutTime, 0).UTC().Format(time.RFC3339)
		resp.CheckOutTimeIso = &iso
	}

	return resp
}
