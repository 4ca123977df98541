package models

// ChecklistTemplate is a configurable audit item coordinators fill in during
// a visit.
type ChecklistTemplate struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Description  string `json:"description,omitempty" db:"description"`
	Category     string `json:"category" db:"category"`
	IsRequired   bool   `json:"is_required" db:"is_required"`
	DisplayOrder int    `json:"display_order" db:"display_order"`
	IsActive     bool   `json:"is_active" db:"is_active"`
}

// ChecklistResponse is one answer to a template item, attached to a visit.
// Responses can only be written while the parent visit is active.
type ChecklistResponse struct {
	ID              int      `json:"id" db:"id"`
	VisitID         string   `json:"visit_id" db:"visit_id"`
	TemplateID      string   `json:"template_id" db:"template_id"`
	TemplateName    string   `json:"template_name,omitempty" db:"template_name"`
	ResponseType    string   `json:"response_type" db:"response_type"`
	ResponseBoolean *bool    `json:"response_boolean,omitempty" db:"response_boolean"`
	ResponseText    *string  `json:"response_text,omitempty" db:"response_text"`
	ResponseNumber  *float64 `json:"response_number,omitempty" db:"response_number"`
	ResponseRating  *int     `json:"response_rating,omitempty" db:"response_rating"`
	Notes           *string  `json:"notes,omitempty" db:"notes"`
	CreatedAt       int64    `json:"created_at" db:"created_at"`
}
