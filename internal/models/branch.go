package models

// Branch is a physical site coordinators visit. Branch records live in the
// shared Logitrack schema and are also read by the order and user services.
type Branch struct {
	ID        string   `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	Code      string   `json:"code" db:"code"`
	Address   string   `json:"address" db:"address"`
	Latitude  float64  `json:"latitude" db:"latitude"`
	Longitude float64  `json:"longitude" db:"longitude"`
	RadiusKm  *float64 `json:"radius_km,omitempty" db:"radius_km"`
	IsActive  bool     `json:"is_active" db:"is_active"`
	CreatedAt int64    `json:"created_at" db:"created_at"`
	UpdatedAt int64    `json:"updated_at" db:"updated_at"`
}

// CreateBranchRequest is the request body for POST /api/branches
type CreateBranchRequest struct {
	Name      string   `json:"name"`
	Code      string   `json:"code"`
	Address   string   `json:"address"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	RadiusKm  *float64 `json:"radius_km,omitempty"`
}
