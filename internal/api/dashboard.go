package api

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/nao1215/opsdash/internal/model"
)

// ActivityLogs returns the activity logs matching f, newest first.
func (c *Client) ActivityLogs(ctx context.Context, f model.ActivityFilter) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	if err := c.getJSON(ctx, "/api/activity-logs", f.Query(), &logs, ""); err != nil {
		return nil, err
	}
	return logs, nil
}

// ExportActivityLogs downloads the activity logs matching f as CSV.
func (c *Client) ExportActivityLogs(ctx context.Context, f model.ActivityFilter) (*Blob, error) {
	q := f.Query()
	q.Set("export", "csv")
	return c.getBlob(ctx, "/api/activity-logs", q, "text/csv", "Invalid response format - expected CSV file")
}

// DashboardStats returns the soldier statistics of the commander dashboard.
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	if err := c.getJSON(ctx, "/api/dashboard-stats", nil, &stats, ""); err != nil {
		return nil, err
	}
	return &stats, nil
}

// weatherFallback is shown when the weather endpoint fails without a message.
const weatherFallback = "Failed to fetch weather data"

// Weather returns current conditions for location. An empty location asks
// the backend for its default city.
func (c *Client) Weather(ctx context.Context, location string) (*model.Weather, error) {
	var q url.Values
	if location = strings.TrimSpace(location); location != "" {
		q = url.Values{"location": {location}}
	}

	var w model.Weather
	err := c.getJSON(ctx, "/api/weather", q, &w, weatherFallback)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message == "" {
		httpErr.Message = weatherFallback
	}
	if err != nil {
		return nil, err
	}
	if w.Status == "error" {
		if w.Message == "" {
			return nil, &DomainError{Message: weatherFallback}
		}
		return nil, &DomainError{Message: w.Message}
	}
	return &w, nil
}

// Analyze submits a battlefield scenario and returns the ranked options.
func (c *Client) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	var result model.AnalysisResult
	if err := c.postJSON(ctx, "/feature1/analyze", req, &result, "Analysis failed"); err != nil {
		return nil, err
	}
	return &result, nil
}
