// Package repositories holds the contracts shared by the store backends.
package repositories

import (
	"context"
	"slices"
	"time"

	"github.com/yoockh/yootravel/internal/models"
)

// TelemetryRepository is the operational log store. It has no relation to
// the primary store; user ids are kept as plain strings.
type TelemetryRepository interface {
	InsertLog(ctx context.Context, e *models.LogEntry) error
	InsertActivity(ctx context.Context, a *models.UserActivity) error
	InsertAPICall(ctx context.Context, c *models.APICall) error
	InsertError(ctx context.Context, e *models.ErrorLog) error

	// UserStats counts activity newer than recentSince as recent.
	UserStats(ctx context.Context, userID string, recentSince time.Time) (*models.UserStats, error)
	// SystemStats counts messages and errors in [dayStart, dayStart+24h).
	SystemStats(ctx context.Context, dayStart time.Time) (*models.SystemStats, error)
	// DeleteBefore removes logs, activity and api calls older than cutoff
	// and error logs older than errorCutoff. It returns the rows removed.
	DeleteBefore(ctx context.Context, cutoff, errorCutoff time.Time) (int64, error)

	RecentLogs(ctx context.Context, level string, limit int) ([]models.LogEntry, error)
	DailyActivity(ctx context.Context, since time.Time) ([]models.DailyCount, error)
	ActiveUsers(ctx context.Context) ([]models.ActiveUser, error)
	UserActivity(ctx context.Context, userID string, limit int) ([]models.UserActivity, error)
	APICallSummary(ctx context.Context) ([]models.APICallSummary, error)
	ErrorSummary(ctx context.Context) ([]models.ErrorSummary, error)

	Close() error
}

// DailyBuckets folds timestamps into per-day counts ordered by date.
func DailyBuckets(ts []time.Time) []models.DailyCount {
	counts := map[string]int64{}
	var days []string
	for _, t := range ts {
		d := t.UTC().Format("2006-01-02")
		if _, ok := counts[d]; !ok {
			days = append(days, d)
		}
		counts[d]++
	}
	slices.Sort(days)
	out := make([]models.DailyCount, 0, len(days))
	for _, d := range days {
		out = append(out, models.DailyCount{Date: d, Count: counts[d]})
	}
	return out
}
