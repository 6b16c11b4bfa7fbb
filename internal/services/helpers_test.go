package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/providers/llm"
	"github.com/yoockh/yootravel/internal/repositories"
	pgrepo "github.com/yoockh/yootravel/internal/repositories/postgres"
	sqliterepo "github.com/yoockh/yootravel/internal/repositories/sqlite"
	"github.com/yoockh/yootravel/internal/utils"
)

var errStoreDown = errors.New("store down")

func openMemDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlitedriver.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newPrimaryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := openMemDB(t)
	require.NoError(t, pgrepo.AutoMigrate(db))
	return db
}

func newTelemetryRepo(t *testing.T) repositories.TelemetryRepository {
	t.Helper()
	db := openMemDB(t)
	require.NoError(t, sqliterepo.AutoMigrate(db))
	return sqliterepo.NewTelemetryRepo(db)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// memStore is an in-process ContextStore.
type memStore struct {
	mu    sync.Mutex
	items map[string]models.ChatContext
}

func newMemStore() *memStore { return &memStore{items: map[string]models.ChatContext{}} }

func (m *memStore) Load(_ context.Context, sid string) (*models.ChatContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.items[sid]
	if !ok {
		return nil, nil
	}
	cc.Messages = slices.Clone(cc.Messages)
	return &cc, nil
}

func (m *memStore) Create(_ context.Context, cc *models.ChatContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *cc
	stored.Messages = slices.Clone(cc.Messages)
	m.items[cc.SessionID] = stored
	return nil
}

func (m *memStore) Update(_ context.Context, sid string, mutate func(*models.ChatContext) error) (*models.ChatContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[sid]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sid, utils.ErrNotFound)
	}
	cur.Messages = slices.Clone(cur.Messages)
	if err := mutate(&cur); err != nil {
		return nil, err
	}
	m.items[sid] = cur
	out := cur
	out.Messages = slices.Clone(cur.Messages)
	return &out, nil
}

func (m *memStore) Delete(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sid)
	return nil
}

type fakeProvider struct {
	CompleteFunc func(ctx context.Context, messages []models.ChatMessage) (string, error)
	calls        [][]models.ChatMessage
}

func (f *fakeProvider) Complete(ctx context.Context, messages []models.ChatMessage, _ llm.Options) (string, error) {
	f.calls = append(f.calls, messages)
	return f.CompleteFunc(ctx, messages)
}

func (f *fakeProvider) Name() string { return "groq" }
func (f *fakeProvider) Close() error { return nil }

type sinkEntry struct {
	Level   string
	Message string
	Data    map[string]any
}

type recordingSink struct {
	mu      sync.Mutex
	entries []sinkEntry
}

func (r *recordingSink) Write(level, message string, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, sinkEntry{Level: level, Message: message, Data: data})
}

func (r *recordingSink) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Message)
	}
	return out
}

// downTelemetryRepo fails every call.
type downTelemetryRepo struct{}

func (downTelemetryRepo) InsertLog(context.Context, *models.LogEntry) error { return errStoreDown }
func (downTelemetryRepo) InsertActivity(context.Context, *models.UserActivity) error { return errStoreDown }
func (downTelemetryRepo) InsertAPICall(context.Context, *models.APICall) error { return errStoreDown }
func (downTelemetryRepo) InsertError(context.Context, *models.ErrorLog) error { return errStoreDown }
func (downTelemetryRepo) UserStats(context.Context, string, time.Time) (*models.UserStats, error) {
	return nil, errStoreDown
}
func (downTelemetryRepo) SystemStats(context.Context, time.Time) (*models.SystemStats, error) {
	return nil, errStoreDown
}
func (downTelemetryRepo) DeleteBefore(context.Context, time.Time, time.Time) (int64, error) {
	return 0, errStoreDown
}
func (downTelemetryRepo) RecentLogs(context.Context, string, int) ([]models.LogEntry, error) {
	return nil, errStoreDown
}
func (downTelemetryRepo) DailyActivity(context.Context, time.Time) ([]models.DailyCount, error) {
	return nil, errStoreDown
}
func (downTelemetryRepo) ActiveUsers(context.Context) ([]models.ActiveUser, error) {
	return nil, errStoreDown
}
func (downTelemetryRepo) UserActivity(context.Context, string, int) ([]models.UserActivity, error) {
	return nil, errStoreDown
}
func (downTelemetryRepo) APICallSummary(context.Context) ([]models.APICallSummary, error) {
	return nil, errStoreDown
}
func (downTelemetryRepo) ErrorSummary(context.Context) ([]models.ErrorSummary, error) {
	return nil, errStoreDown
}
func (downTelemetryRepo) Close() error { return nil }
