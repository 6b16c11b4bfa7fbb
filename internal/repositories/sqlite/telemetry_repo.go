// Package sqlite is the default telemetry backend: a local gorm/SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/repositories"
)

type telemetryRepo struct {
	db *gorm.DB
}

func NewTelemetryRepo(db *gorm.DB) repositories.TelemetryRepository {
	return &telemetryRepo{db: db}
}

// AutoMigrate creates the telemetry tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.LogEntry{}, &models.UserActivity{}, &models.APICall{}, &models.ErrorLog{})
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	} else {
		*t = t.UTC()
	}
}

func (r *telemetryRepo) InsertLog(ctx context.Context, e *models.LogEntry) error {
	stamp(&e.Timestamp)
	if e.Level == "" {
		e.Level = models.LevelInfo
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *telemetryRepo) InsertActivity(ctx context.Context, a *models.UserActivity) error {
	stamp(&a.Timestamp)
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *telemetryRepo) InsertAPICall(ctx context.Context, c *models.APICall) error {
	stamp(&c.Timestamp)
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *telemetryRepo) InsertError(ctx context.Context, e *models.ErrorLog) error {
	stamp(&e.Timestamp)
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *telemetryRepo) UserStats(ctx context.Context, userID string, recentSince time.Time) (*models.UserStats, error) {
	db := r.db.WithContext(ctx)
	s := &models.UserStats{}

	if err := db.Model(&models.LogEntry{}).
		Where("user_id = ? AND log_type = ?", userID, models.LogTypeUserInput).
		Count(&s.TotalMessages).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.LogEntry{}).
		Where("user_id = ? AND log_type = ?", userID, models.LogTypeAIResponse).
		Count(&s.TotalResponses).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ErrorLog{}).
		Where("user_id = ?", userID).
		Count(&s.TotalErrors).Error; err != nil {
		return nil, err
	}

	var first models.LogEntry
	err := db.Select("timestamp").Where("user_id = ?", userID).Order("timestamp ASC, id ASC").Take(&first).Error
	switch {
	case err == nil:
		s.FirstActivity = &first.Timestamp
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if err := db.Model(&models.UserActivity{}).
		Where("user_id = ? AND timestamp > ?", userID, recentSince.UTC()).
		Count(&s.RecentActivityCount).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *telemetryRepo) SystemStats(ctx context.Context, dayStart time.Time) (*models.SystemStats, error) {
	db := r.db.WithContext(ctx)
	from, to := dayStart.UTC(), dayStart.UTC().Add(24*time.Hour)
	s := &models.SystemStats{}

	if err := db.Model(&models.LogEntry{}).Distinct("user_id").Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.LogEntry{}).
		Where("log_type = ? AND timestamp >= ? AND timestamp < ?", models.LogTypeUserInput, from, to).
		Count(&s.MessagesToday).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ErrorLog{}).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Count(&s.ErrorsToday).Error; err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	if err := db.Model(&models.APICall{}).
		Select("AVG(response_time_ms)").
		Where("response_time_ms IS NOT NULL").
		Row().Scan(&avg); err != nil {
		return nil, err
	}
	if avg.Valid {
		s.AvgResponseTimeMS = int64(math.Round(avg.Float64))
	}
	return s, nil
}

func (r *telemetryRepo) DeleteBefore(ctx context.Context, cutoff, errorCutoff time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.LogEntry{}, &models.UserActivity{}, &models.APICall{}} {
			res := tx.Where("timestamp < ?", cutoff.UTC()).Delete(m)
			if res.Error != nil {
				return res.Error
			}
			total += res.RowsAffected
		}
		res := tx.Where("timestamp < ?", errorCutoff.UTC()).Delete(&models.ErrorLog{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *telemetryRepo) RecentLogs(ctx context.Context, level string, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Order("timestamp DESC, id DESC").Limit(limit)
	if level != "" {
		q = q.Where("level = ?", level)
	}
	var rows []models.LogEntry
	err := q.Find(&rows).Error
	return rows, err
}

func (r *telemetryRepo) DailyActivity(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	var ts []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.UserActivity{}).
		Where("timestamp > ?", since.UTC()).
		Pluck("timestamp", &ts).Error
	if err != nil {
		return nil, err
	}
	return repositories.DailyBuckets(ts), nil
}

var stampLayouts = append(slices.Clone(sqlite3.SQLiteTimestampFormats), time.RFC3339Nano)

// parseStamp reads a timestamp produced by MIN or MAX. SQLite drops the
// column type for aggregates, so the driver hands back the stored text.
func parseStamp(s string) (time.Time, error) {
	for _, layout := range stampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("sqlite: unrecognised timestamp %q", s)
}

type activeUserRow struct {
	UserID          string
	FirstSeen       string
	LastSeen        string
	TotalActivities int64
}

func (r *telemetryRepo) ActiveUsers(ctx context.Context) ([]models.ActiveUser, error) {
	var rows []activeUserRow
	err := r.db.WithContext(ctx).
		Model(&models.UserActivity{}).
		Select(`user_id,
			MIN(timestamp) AS first_seen,
			MAX(timestamp) AS last_seen,
			COUNT(*) AS total_activities`).
		Group("user_id").
		Order("first_seen DESC, user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.ActiveUser, 0, len(rows))
	for _, row := range rows {
		first, err := parseStamp(row.FirstSeen)
		if err != nil {
			return nil, err
		}
		last, err := parseStamp(row.LastSeen)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ActiveUser{
			UserID:          row.UserID,
			FirstSeen:       first,
			LastSeen:        last,
			TotalActivities: row.TotalActivities,
		})
	}
	return out, nil
}

func (r *telemetryRepo) UserActivity(ctx context.Context, userID string, limit int) ([]models.UserActivity, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []models.UserActivity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

type apiSummaryRow struct {
	APIService      string
	TotalCalls      int64
	AvgResponseTime *float64
	SuccessfulCalls int64
	ErrorCalls      int64
}

func (r *telemetryRepo) APICallSummary(ctx context.Context) ([]models.APICallSummary, error) {
	var rows []apiSummaryRow
	err := r.db.WithContext(ctx).
		Model(&models.APICall{}).
		Select(`api_service,
			COUNT(*) AS total_calls,
			AVG(response_time_ms) AS avg_response_time,
			COUNT(CASE WHEN status_code >= 200 AND status_code < 300 THEN 1 END) AS successful_calls,
			COUNT(CASE WHEN status_code >= 400 THEN 1 END) AS error_calls`).
		Group("api_service").
		Order("api_service").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.APICallSummary, 0, len(rows))
	for _, row := range rows {
		s := models.APICallSummary{
			APIService:      row.APIService,
			TotalCalls:      row.TotalCalls,
			SuccessfulCalls: row.SuccessfulCalls,
			ErrorCalls:      row.ErrorCalls,
		}
		if row.AvgResponseTime != nil {
			s.AvgResponseTime = *row.AvgResponseTime
		}
		out = append(out, s)
	}
	return out, nil
}

type errorSummaryRow struct {
	ErrorType      string
	ErrorCount     int64
	LastOccurrence string
}

func (r *telemetryRepo) ErrorSummary(ctx context.Context) ([]models.ErrorSummary, error) {
	var rows []errorSummaryRow
	err := r.db.WithContext(ctx).
		Model(&models.ErrorLog{}).
		Select(`error_type,
			COUNT(*) AS error_count,
			MAX(timestamp) AS last_occurrence`).
		Group("error_type").
		Order("error_count DESC, error_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.ErrorSummary, 0, len(rows))
	for _, row := range rows {
		last, err := parseStamp(row.LastOccurrence)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ErrorSummary{
			ErrorType:      row.ErrorType,
			ErrorCount:     row.ErrorCount,
			LastOccurrence: last,
		})
	}
	return out, nil
}

func (r *telemetryRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
