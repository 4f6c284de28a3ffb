package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/poll"
	"github.com/nao1215/opsdash/internal/view"
)

// Containers of the commander dashboard.
const (
	ActivityLogsContainer  = "activity-logs"
	ActivityStatsContainer = "stats"
)

// LoadingActivityMessage is shown while the log list is fetched.
const LoadingActivityMessage = "Loading activity logs..."

// activityLimit is the row limit sent with applied filters.
const activityLimit = 100

// ActivityBackend is the part of the API the commander dashboard uses.
type ActivityBackend interface {
	ActivityLogs(ctx context.Context, f model.ActivityFilter) ([]model.ActivityLog, error)
	ExportActivityLogs(ctx context.Context, f model.ActivityFilter) (*api.Blob, error)
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

// DefaultActivityFilter is the range the date inputs start with: the last
// seven days up to today.
func DefaultActivityFilter(now time.Time) model.ActivityFilter {
	return model.ActivityFilter{
		DateFrom: now.AddDate(0, 0, -7).Format(time.DateOnly),
		DateTo:   now.Format(time.DateOnly),
		Limit:    activityLimit,
	}
}

// Activity is the commander dashboard: the filtered activity log, the
// soldier statistics and a text search over the rendered log.
type Activity struct {
	base
	backend ActivityBackend

	mu     sync.Mutex
	filter model.ActivityFilter
	query  string
	list   view.ActivityList
	logs   []model.ActivityLog
	stats  view.StatsView
}

// NewActivity returns a dashboard with no filter applied.
func NewActivity(backend ActivityBackend, opts ...Option) *Activity {
	return &Activity{
		base:    newBase("Commander Dashboard", opts, ActivityStatsContainer, ActivityLogsContainer),
		backend: backend,
	}
}

// Filter returns the filter sent with the next load.
func (a *Activity) Filter() model.ActivityFilter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter
}

// ApplyFilters stores f with the row limit and reloads the log.
func (a *Activity) ApplyFilters(ctx context.Context, f model.ActivityFilter) error {
	f.Limit = activityLimit
	a.mu.Lock()
	a.filter = f
	a.mu.Unlock()
	return a.LoadLogs(ctx)
}

// ClearFilters drops every filter and reloads the log.
func (a *Activity) ClearFilters(ctx context.Context) error {
	a.mu.Lock()
	a.filter = model.ActivityFilter{}
	a.mu.Unlock()
	return a.LoadLogs(ctx)
}

// LoadLogs fetches the log with the current filter. A failure renders the
// error with its retry control.
func (a *Activity) LoadLogs(ctx context.Context) error {
	a.status(ActivityLogsContainer, view.NewStatus(view.StatusProcessing, LoadingActivityMessage))

	logs, err := a.backend.ActivityLogs(ctx, a.Filter())
	if err != nil {
		a.logger.Error("loading activity logs", "error", err)
		list := view.ActivityError(api.UserMessage(err))
		a.mu.Lock()
		a.list = list
		a.mu.Unlock()
		a.render(ActivityLogsContainer, view.TmplActivityList, list)
		return err
	}

	list := view.NewActivityList(logs)
	a.mu.Lock()
	a.list = list
	a.logs = logs
	query := a.query
	a.mu.Unlock()
	a.render(ActivityLogsContainer, view.TmplActivityList, list.Search(query))
	return nil
}

// Retry reloads the log after a failed load.
func (a *Activity) Retry(ctx context.Context) error {
	return a.LoadLogs(ctx)
}

// RefreshStats fetches the statistics. A failure is logged and the last
// statistics stay on the page.
func (a *Activity) RefreshStats(ctx context.Context) error {
	s, err := a.backend.DashboardStats(ctx)
	if err != nil {
		a.logger.Error("refreshing stats", "error", err)
		return err
	}
	stats := view.NewStatsView(*s)
	a.mu.Lock()
	a.stats = stats
	a.mu.Unlock()
	a.render(ActivityStatsContainer, view.TmplStats, stats)
	return nil
}

// Refresh reloads the log and the statistics.
func (a *Activity) Refresh(ctx context.Context) error {
	return errors.Join(a.LoadLogs(ctx), a.RefreshStats(ctx))
}

// Search re-renders the loaded log keeping only items that contain query.
func (a *Activity) Search(query string) view.ActivityList {
	a.mu.Lock()
	a.query = query
	list := a.list.Search(query)
	a.mu.Unlock()
	a.render(ActivityLogsContainer, view.TmplActivityList, list)
	return list
}

// List returns the last loaded log, before search.
func (a *Activity) List() view.ActivityList {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.list
}

// Logs returns the entries of the last successful load.
func (a *Activity) Logs() []model.ActivityLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.ActivityLog(nil), a.logs...)
}

// Stats returns the last loaded statistics.
func (a *Activity) Stats() view.StatsView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Export downloads the log matching the current filter as CSV.
func (a *Activity) Export(ctx context.Context) (*Download, error) {
	blob, err := a.backend.ExportActivityLogs(ctx, a.Filter())
	if err != nil {
		return nil, err
	}
	name := blob.Filename
	if name == "" {
		name = "activity_logs_" + a.now().Format(time.DateOnly) + ".csv"
	}
	return newDownload(name, blob), nil
}

// Start loads the page now and then refreshes it on the activity interval
// until Close.
func (a *Activity) Start(ctx context.Context) error {
	t, err := poll.NewTask("activity_refresh", a.activityRefresh, func(ctx context.Context) bool {
		_ = a.Refresh(ctx)
		return false
	}, poll.WithImmediate(), poll.WithLogger(a.logger))
	if err != nil {
		return err
	}
	return a.schedule(ctx, t)
}

// Close stops the refresh and tears the page down.
func (a *Activity) Close() {
	a.shutdown()
}
