package models

import "time"

// MotoLocation is a GPS ping from a delivery moto. Motos are owned by the
// external fleet service; this service only ingests and serves their tracks.
type MotoLocation struct {
	ID         int      `json:"id" db:"id"`
	MotoID     string   `json:"moto_id" db:"moto_id"`
	Latitude   float64  `json:"latitude" db:"latitude"`
	Longitude  float64  `json:"longitude" db:"longitude"`
	Speed      *float64 `json:"speed,omitempty" db:"speed"`
	Heading    *float64 `json:"heading,omitempty" db:"heading"`
	RecordedAt int64    `json:"recorded_at" db:"recorded_at"` // Unix timestamp
}

// SaveLocationRequest is the request body for POST /api/locations
type SaveLocationRequest struct {
	MotoID    string   `json:"moto_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
}

// MotoLocationResponse adds the ISO timestamp dashboards display.
type MotoLocationResponse struct {
	MotoID        string   `json:"moto_id"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Speed         *float64 `json:"speed,omitempty"`
	Heading       *float64 `json:"heading,omitempty"`
	RecordedAtIso string   `json:"recorded_at"`
}

func (l *MotoLocation) ToMotoLocationResponse() MotoLocationResponse {
	return MotoLocationResponse{
		MotoID:        l.MotoID,
		Latitude:      l.Latitude,
		Longitude:     l.Longitude,
		Speed:         l.Speed,
		Heading:       l.Heading,
		RecordedAtIso: time.Unix(l.RecordedAt, 0).UTC().Format(time.RFC3339),
	}
}
