package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yoockh/yootravel/internal/models"
	pgrepo "github.com/yoockh/yootravel/internal/repositories/postgres"
	"github.com/yoockh/yootravel/internal/utils"
)

const tableSampleRows = 5

type Overview struct {
	System        *models.SystemStats `json:"system"`
	DailyActivity []models.DailyCount `json:"daily_activity"`
}

type UserDetail struct {
	UserID         string                `json:"user_id"`
	Stats          *models.UserStats     `json:"stats"`
	Analytics      *models.UserAnalytics `json:"analytics"`
	RecentActivity []models.UserActivity `json:"recent_activity"`
}

type SystemHealth struct {
	APICalls []models.APICallSummary `json:"api_calls"`
	Errors   []models.ErrorSummary   `json:"errors"`
}

type TableDetail struct {
	Name    string              `json:"name"`
	Columns []pgrepo.ColumnInfo `json:"columns"`
	Sample  []map[string]any    `json:"sample"`
}

// DashboardService backs the read-only admin views.
type DashboardService interface {
	Overview(ctx context.Context) (*Overview, error)
	Users(ctx context.Context) ([]models.ActiveUser, error)
	UserDetail(ctx context.Context, userID string) (*UserDetail, error)
	System(ctx context.Context) (*SystemHealth, error)
	Logs(ctx context.Context, level string, limit int) ([]models.LogEntry, error)
	Tables(ctx context.Context) ([]pgrepo.TableInfo, error)
	Table(ctx context.Context, name string) (*TableDetail, error)
	Cleanup(ctx context.Context, daysToKeep int) (int64, error)
}

type dashboardService struct {
	telemetry     TelemetryService
	conversations ConversationService
	tables        pgrepo.TableRepository
}

func NewDashboardService(t TelemetryService, c ConversationService, tables pgrepo.TableRepository) DashboardService {
	return &dashboardService{telemetry: t, conversations: c, tables: tables}
}

func (s *dashboardService) Overview(ctx context.Context) (*Overview, error) {
	st, err := s.telemetry.SystemStats(ctx)
	if err != nil {
		return nil, err
	}
	daily, err := s.telemetry.DailyActivity(ctx, DefaultDailyActivityDays)
	if err != nil {
		return nil, err
	}
	return &Overview{System: st, DailyActivity: daily}, nil
}

func (s *dashboardService) Users(ctx context.Context) ([]models.ActiveUser, error) {
	return s.telemetry.ActiveUsers(ctx)
}

// UserDetail reads both stores concurrently; they share nothing.
func (s *dashboardService) UserDetail(ctx context.Context, userID string) (*UserDetail, error) {
	const op = "DashboardService.UserDetail"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	out := &UserDetail{UserID: userID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.telemetry.UserStats(gctx, userID)
		out.Stats = st
		return err
	})
	g.Go(func() error {
		a, err := s.conversations.Analytics(gctx, userID)
		out.Analytics = a
		return err
	})
	g.Go(func() error {
		acts, err := s.telemetry.UserActivity(gctx, userID, DefaultUserActivityLimit)
		out.RecentActivity = acts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *dashboardService) System(ctx context.Context) (*SystemHealth, error) {
	out := &SystemHealth{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.telemetry.APICallSummary(gctx)
		out.APICalls = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.telemetry.ErrorSummary(gctx)
		out.Errors = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *dashboardService) Logs(ctx context.Context, level string, limit int) ([]models.LogEntry, error) {
	return s.telemetry.RecentLogs(ctx, level, limit)
}

func (s *dashboardService) Tables(ctx context.Context) ([]pgrepo.TableInfo, error) {
	const op = "DashboardService.Tables"

	rows, err := s.tables.Tables(ctx)
	if err != nil {
		return nil, storeErr(op, "failed to list tables", err)
	}
	return rows, nil
}

func (s *dashboardService) Table(ctx context.Context, name string) (*TableDetail, error) {
	const op = "DashboardService.Table"

	cols, err := s.tables.Columns(ctx, name)
	if err != nil {
		return nil, storeErr(op, "table not found", err)
	}
	sample, err := s.tables.Sample(ctx, name, tableSampleRows)
	if err != nil {
		return nil, storeErr(op, "failed to read table", err)
	}
	return &TableDetail{Name: name, Columns: cols, Sample: sample}, nil
}

func (s *dashboardService) Cleanup(ctx context.Context, daysToKeep int) (int64, error) {
	return s.telemetry.Cleanup(ctx, daysToKeep)
}
