package models

// BranchKPI aggregates visit activity per branch for the manager dashboard.
type BranchKPI struct {
	BranchID           string   `json:"branch_id" db:"branch_id"`
	BranchName         string   `json:"branch_name" db:"branch_name"`
	BranchCode         string   `json:"branch_code" db:"branch_code"`
	VisitsToday        int      `json:"visits_today" db:"visits_today"`
	VisitsThisWeek     int      `json:"visits_this_week" db:"visits_this_week"`
	OutOfRangeVisits   int      `json:"out_of_range_visits" db:"out_of_range_visits"`
	AvgDurationMinutes *float64 `json:"avg_duration_minutes,omitempty" db:"avg_duration_minutes"`
	LastVisitAt        *int64   `json:"last_visit_at,omitempty" db:"last_visit_at"`
}
