package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/repositories"
)

func newTestRepo(t *testing.T) (*gorm.DB, repositories.TelemetryRepository) {
	t.Helper()
	db, err := gorm.Open(sqlitedriver.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))

	repo := NewTelemetryRepo(db)
	t.Cleanup(func() { _ = repo.Close() })
	return db, repo
}

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }

func TestUserStatsEmptyAndPopulated(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	s, err := repo.UserStats(ctx, "u1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, s.TotalMessages)
	assert.Nil(t, s.FirstActivity)

	first := now.Add(-72 * time.Hour).Truncate(time.Second)
	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "u1", LogType: models.LogTypeUserInput, Timestamp: first, Data: datatypes.JSON(`{}`)}))
	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "u1", LogType: models.LogTypeUserInput}))
	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "u1", LogType: models.LogTypeAIResponse}))
	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "u2", LogType: models.LogTypeUserInput}))
	require.NoError(t, repo.InsertError(ctx, &models.ErrorLog{UserID: "u1", ErrorType: "groq_api_error"}))
	require.NoError(t, repo.InsertActivity(ctx, &models.UserActivity{UserID: "u1", ActionType: "message_sent"}))
	require.NoError(t, repo.InsertActivity(ctx, &models.UserActivity{UserID: "u1", ActionType: "login", Timestamp: now.Add(-48 * time.Hour)}))

	s, err = repo.UserStats(ctx, "u1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.TotalMessages)
	assert.Equal(t, int64(1), s.TotalResponses)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.Equal(t, int64(1), s.RecentActivityCount)
	require.NotNil(t, s.FirstActivity)
	assert.True(t, s.FirstActivity.Equal(first))
}

func TestSystemStats(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "a", LogType: models.LogTypeUserInput, Timestamp: day.Add(time.Hour)}))
	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "b", LogType: models.LogTypeUserInput, Timestamp: day.Add(-time.Hour)}))
	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "b", LogType: models.LogTypeAIResponse, Timestamp: day.Add(2 * time.Hour)}))
	require.NoError(t, repo.InsertError(ctx, &models.ErrorLog{UserID: "a", ErrorType: "x", Timestamp: day.Add(3 * time.Hour)}))
	require.NoError(t, repo.InsertAPICall(ctx, &models.APICall{APIService: "groq", ResponseTimeMS: int64p(100), StatusCode: intp(200), Timestamp: day}))
	require.NoError(t, repo.InsertAPICall(ctx, &models.APICall{APIService: "groq", ResponseTimeMS: int64p(301), StatusCode: intp(500), Timestamp: day}))
	require.NoError(t, repo.InsertAPICall(ctx, &models.APICall{APIService: "groq", Timestamp: day}))

	s, err := repo.SystemStats(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.TotalUsers)
	assert.Equal(t, int64(1), s.MessagesToday)
	assert.Equal(t, int64(1), s.ErrorsToday)
	assert.Equal(t, int64(201), s.AvgResponseTimeMS)

	sum, err := repo.APICallSummary(ctx)
	require.NoError(t, err)
	require.Len(t, sum, 1)
	assert.Equal(t, models.APICallSummary{
		APIService: "groq", TotalCalls: 3, AvgResponseTime: 200.5, SuccessfulCalls: 1, ErrorCalls: 1,
	}, sum[0])
}

func TestDeleteBeforeKeepsErrorsLonger(t *testing.T) {
	db, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -40)
	ancient := now.AddDate(0, 0, -100)

	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "u", Timestamp: old}))
	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "u", Timestamp: now}))
	require.NoError(t, repo.InsertActivity(ctx, &models.UserActivity{UserID: "u", Timestamp: old}))
	require.NoError(t, repo.InsertAPICall(ctx, &models.APICall{APIService: "groq", Timestamp: old}))
	require.NoError(t, repo.InsertError(ctx, &models.ErrorLog{UserID: "u", ErrorType: "a", Timestamp: old}))
	require.NoError(t, repo.InsertError(ctx, &models.ErrorLog{UserID: "u", ErrorType: "b", Timestamp: ancient}))

	n, err := repo.DeleteBefore(ctx, now.AddDate(0, 0, -30), now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	var logs, errs int64
	require.NoError(t, db.Model(&models.LogEntry{}).Count(&logs).Error)
	require.NoError(t, db.Model(&models.ErrorLog{}).Count(&errs).Error)
	assert.Equal(t, int64(1), logs)
	assert.Equal(t, int64(1), errs, "40-day-old error survives the 30-day cleanup")
}

func TestDashboardReaders(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "u", Level: models.LevelError, Message: "bad"}))
	require.NoError(t, repo.InsertLog(ctx, &models.LogEntry{UserID: "u", Message: "ok"}))

	all, err := repo.RecentLogs(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	errs, err := repo.RecentLogs(ctx, models.LevelError, 50)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "bad", errs[0].Message)

	for i := 0; i < 12; i++ {
		require.NoError(t, repo.InsertActivity(ctx, &models.UserActivity{
			UserID: "u", ActionType: "message_sent", Timestamp: now.Add(-time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.InsertActivity(ctx, &models.UserActivity{UserID: "v", ActionType: "login", Timestamp: now.AddDate(0, 0, -10)}))

	recent, err := repo.UserActivity(ctx, "u", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 10)

	daily, err := repo.DailyActivity(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	var total int64
	for _, d := range daily {
		total += d.Count
	}
	assert.Equal(t, int64(12), total)

	users, err := repo.ActiveUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u", users[0].UserID)
	assert.Equal(t, int64(12), users[0].TotalActivities)

	require.NoError(t, repo.InsertError(ctx, &models.ErrorLog{ErrorType: "general_error"}))
	require.NoError(t, repo.InsertError(ctx, &models.ErrorLog{ErrorType: "groq_api_error"}))
	require.NoError(t, repo.InsertError(ctx, &models.ErrorLog{ErrorType: "groq_api_error"}))
	summary, err := repo.ErrorSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "groq_api_error", summary[0].ErrorType)
	assert.Equal(t, int64(2), summary[0].ErrorCount)
}

func TestSummariesAreAggregatedInQuery(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for _, a := range []models.UserActivity{
		{UserID: "a", ActionType: "login", Timestamp: base.Add(2 * time.Hour)},
		{UserID: "b", ActionType: "login", Timestamp: base.Add(5 * time.Hour)},
		{UserID: "a", ActionType: "login", Timestamp: base},
		{UserID: "a", ActionType: "message_sent", Timestamp: base.Add(9*time.Hour + 500*time.Millisecond)},
	} {
		require.NoError(t, repo.InsertActivity(ctx, &a))
	}

	users, err := repo.ActiveUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b", users[0].UserID, "most recent first_seen first")
	assert.Equal(t, int64(3), users[1].TotalActivities)
	assert.True(t, users[1].FirstSeen.Equal(base))
	assert.True(t, users[1].LastSeen.Equal(base.Add(9*time.Hour+500*time.Millisecond)))

	for _, e := range []models.ErrorLog{
		{ErrorType: "general_error", Timestamp: base.Add(time.Hour)},
		{ErrorType: "groq_api_error", Timestamp: base.Add(3 * time.Hour)},
		{ErrorType: "groq_api_error", Timestamp: base.Add(2 * time.Hour)},
	} {
		require.NoError(t, repo.InsertError(ctx, &e))
	}

	summary, err := repo.ErrorSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "groq_api_error", summary[0].ErrorType)
	assert.Equal(t, int64(2), summary[0].ErrorCount)
	assert.True(t, summary[0].LastOccurrence.Equal(base.Add(3*time.Hour)))
	assert.Equal(t, "general_error", summary[1].ErrorType)
	assert.True(t, summary[1].LastOccurrence.Equal(base.Add(time.Hour)))
}
