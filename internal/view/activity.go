package view

import (
	"strings"
	"time"

	"github.com/nao1215/opsdash/internal/model"
)

const (
	activityTimeLayout = "Jan 02, 03:04:05 PM"
	lastSeenLayout     = "Jan 2, 03:04 PM"

	// NoActivityMessage is shown when a log query returns nothing.
	NoActivityMessage = "No activity logs found for the selected criteria."
	// NoSoldiersMessage is shown when the stats carry no soldier summary.
	NoSoldiersMessage = "No soldier data available."
)

var actionColors = map[string]string{
	"login":             "#4CAF50",
	"logout":            "#FF9800",
	"feature_access":    "#2196F3",
	"dashboard_access":  "#9C27B0",
	"login_failed":      "#F44336",
	"weather_api_usage": "#00BCD4",
}

// ActionColor returns the badge color of an action type.
func ActionColor(action string) string {
	if c, ok := actionColors[action]; ok {
		return c
	}
	return "#757575"
}

// ActionLabel turns an action type such as "login_failed" into "LOGIN FAILED".
func ActionLabel(action string) string {
	return Upper(strings.ReplaceAll(action, "_", " "))
}

// ActivityItem is one rendered log entry.
type ActivityItem struct {
	ID       int64
	Username string
	Action   string
	Label    string
	Color    string
	Feature  string
	IP       string
	Time     string
}

// Suffix is the " → FEATURE" part of the headline, empty without a feature.
func (i ActivityItem) Suffix() string {
	if i.Feature == "" {
		return ""
	}
	return " → " + Upper(i.Feature)
}

func (i ActivityItem) matches(q string) bool {
	for _, s := range []string{i.Username, i.Label, i.Feature, i.IP, i.Time} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// ActivityList is the activity log container.
type ActivityList struct {
	Items []ActivityItem
	Error string
}

// Empty reports whether the empty-state message is shown.
func (l ActivityList) Empty() bool {
	return l.Error == "" && len(l.Items) == 0
}

// EmptyMessage returns the empty-state text.
func (ActivityList) EmptyMessage() string {
	return NoActivityMessage
}

// NewActivityList builds the log list from API entries.
func NewActivityList(logs []model.ActivityLog) ActivityList {
	items := make([]ActivityItem, 0, len(logs))
	for _, l := range logs {
		items = append(items, ActivityItem{
			ID:       l.ID,
			Username: l.Username,
			Action:   l.ActionType,
			Label:    ActionLabel(l.ActionType),
			Color:    ActionColor(l.ActionType),
			Feature:  l.FeatureName,
			IP:       l.IPAddress,
			Time:     formatTime(l.Timestamp.Time, activityTimeLayout, ""),
		})
	}
	return ActivityList{Items: items}
}

// ActivityError is the list shown when loading failed. It carries the
// retry control.
func ActivityError(msg string) ActivityList {
	return ActivityList{Error: "Failed to load activity logs: " + msg}
}

// Search keeps the items whose text contains query, ignoring case. An
// empty query keeps everything.
func (l ActivityList) Search(query string) ActivityList {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || l.Error != "" {
		return l
	}
	out := ActivityList{Items: make([]ActivityItem, 0, len(l.Items))}
	for _, it := range l.Items {
		if it.matches(q) {
			out.Items = append(out.Items, it)
		}
	}
	return out
}

// SoldierCard summarizes one soldier.
type SoldierCard struct {
	Username     string
	TotalActions int
	ActiveDays   int
	LastSeen     string
}

// StatsView is the dashboard statistics block.
type StatsView struct {
	TotalSoldiers int
	ActiveToday   int
	TotalActions  int
	Soldiers      []SoldierCard
}

// EmptyMessage returns the text shown without soldier cards.
func (StatsView) EmptyMessage() string {
	return NoSoldiersMessage
}

// NewStatsView builds the statistics block.
func NewStatsView(s model.DashboardStats) StatsView {
	v := StatsView{
		TotalSoldiers: s.TotalSoldiers,
		ActiveToday:   s.ActiveToday,
		TotalActions:  s.TotalActions(),
	}
	for _, sum := range s.SoldierSummary {
		v.Soldiers = append(v.Soldiers, SoldierCard{
			Username:     sum.Username,
			TotalActions: sum.TotalActions,
			ActiveDays:   sum.ActiveDays,
			LastSeen:     formatTime(sum.LastActivity.Time, lastSeenLayout, "Never"),
		})
	}
	return v
}

func formatTime(t time.Time, layout, zero string) string {
	if t.IsZero() {
		return zero
	}
	return t.Format(layout)
}
