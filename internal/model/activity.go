package model

import (
	"net/url"
	"strconv"
)

// ActivityLog is one audit entry shown on the commander dashboard.
type ActivityLog struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	ActionType  string    `json:"action_type"`
	FeatureName string    `json:"feature_name,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	Timestamp   Timestamp `json:"timestamp"`
}

// ActivityFilter is the flat filter state of the commander dashboard. Empty
// fields are sent as empty query parameters, which the server ignores.
type ActivityFilter struct {
	Username   string
	ActionType string
	DateFrom   string
	DateTo     string
	Limit      int
}

// IsZero reports whether no filter has been applied.
func (f ActivityFilter) IsZero() bool {
	return f == ActivityFilter{}
}

// Query encodes the filter as URL query parameters. A zero filter encodes to
// an empty query so the server applies its own defaults.
func (f ActivityFilter) Query() url.Values {
	q := url.Values{}
	if f.IsZero() {
		return q
	}
	q.Set("username", f.Username)
	q.Set("action_type", f.ActionType)
	q.Set("date_from", f.DateFrom)
	q.Set("date_to", f.DateTo)
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// SoldierSummary aggregates one user's activity.
type SoldierSummary struct {
	Username     string    `json:"username"`
	TotalActions int       `json:"total_actions"`
	ActiveDays   int       `json:"active_days"`
	LastActivity Timestamp `json:"last_activity"`
}

// DashboardStats is the reply of the dashboard statistics endpoint.
type DashboardStats struct {
	TotalSoldiers  int              `json:"total_soldiers"`
	ActiveToday    int              `json:"active_today"`
	SoldierSummary []SoldierSummary `json:"soldier_summary"`
}

// TotalActions sums the actions over every soldier.
func (s DashboardStats) TotalActions() int {
	total := 0
	for _, soldier := range s.SoldierSummary {
		total += soldier.TotalActions
	}
	return total
}
