package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/repositories"
	"github.com/yoockh/yootravel/internal/utils"
)

const (
	DefaultRetentionDays     = 30
	ErrorRetentionDays       = 90
	DefaultDashboardLogLimit = 50
	DefaultDailyActivityDays = 7
	DefaultUserActivityLimit = 10
	inputPreviewRunes        = 100
	responsePreviewRunes     = 200
	recentActivityWindow     = 24 * time.Hour
)

// FileSink receives the flat-file mirror of telemetry writes.
type FileSink interface {
	Write(level, message string, data map[string]any)
}

// APICallInput describes one outbound completion request.
type APICallInput struct {
	UserID     string
	Service    string
	Request    map[string]any
	Response   map[string]any
	StatusCode *int
	Latency    time.Duration
	Err        string
}

type TelemetryService interface {
	LogInput(ctx context.Context, userID, input string, metadata map[string]any) error
	LogResponse(ctx context.Context, userID, response string, metadata map[string]any) error
	LogActivity(ctx context.Context, userID, actionType string, details map[string]any) error
	LogAction(ctx context.Context, userID, action string, details map[string]any) error
	LogAPICall(ctx context.Context, in APICallInput) error
	LogError(ctx context.Context, userID, errorType string, errCtx map[string]any, stackTrace string) error

	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
	SystemStats(ctx context.Context) (*models.SystemStats, error)
	// Cleanup removes rows older than daysToKeep (error rows older than 90
	// days) and returns how many were deleted.
	Cleanup(ctx context.Context, daysToKeep int) (int64, error)

	RecentLogs(ctx context.Context, level string, limit int) ([]models.LogEntry, error)
	DailyActivity(ctx context.Context, days int) ([]models.DailyCount, error)
	ActiveUsers(ctx context.Context) ([]models.ActiveUser, error)
	UserActivity(ctx context.Context, userID string, limit int) ([]models.UserActivity, error)
	APICallSummary(ctx context.Context) ([]models.APICallSummary, error)
	ErrorSummary(ctx context.Context) ([]models.ErrorSummary, error)
}

type telemetryService struct {
	repo repositories.TelemetryRepository
	file FileSink
	log  *logrus.Logger
	now  func() time.Time
}

func NewTelemetryService(repo repositories.TelemetryRepository, file FileSink, log *logrus.Logger) TelemetryService {
	if log == nil {
		log = logrus.New()
	}
	return &telemetryService{repo: repo, file: file, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *telemetryService) mirror(level, message string, data map[string]any) {
	if s.file != nil {
		s.file.Write(level, message, data)
	}
}

func (s *telemetryService) fail(op, msg string, err error) error {
	s.log.WithError(err).WithField("op", op).Error(msg)
	return utils.E(utils.CodeUnavailable, op, msg, err)
}

func toJSON(m map[string]any) datatypes.JSON {
	if m == nil {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return b
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// preview keeps the first n characters and marks a cut with "...".
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func (s *telemetryService) insertLog(ctx context.Context, op, userID, logType, level, message string, data map[string]any) error {
	e := &models.LogEntry{
		Timestamp: s.now(),
		UserID:    userID,
		LogType:   logType,
		Message:   message,
		Data:      toJSON(data),
		Level:     level,
	}
	if err := s.repo.InsertLog(ctx, e); err != nil {
		return s.fail(op, "failed to write log", err)
	}
	return nil
}

func (s *telemetryService) LogInput(ctx context.Context, userID, input string, metadata map[string]any) error {
	const op = "TelemetryService.LogInput"

	n := utf8.RuneCountInString(input)
	message := "User input received: " + preview(input, inputPreviewRunes)
	data := map[string]any{
		"full_input":   input,
		"input_length": n,
		"metadata":     orEmpty(metadata),
	}

	s.mirror(models.LevelInfo, message, data)
	err := s.insertLog(ctx, op, userID, models.LogTypeUserInput, models.LevelInfo, message, data)
	aerr := s.LogActivity(ctx, userID, "message_sent", map[string]any{
		"message_length": n,
		"timestamp":      s.now().Format(time.RFC3339Nano),
	})
	if err == nil {
		err = aerr
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "length": n}).Info("user sent message")
	return err
}

func (s *telemetryService) LogResponse(ctx context.Context, userID, response string, metadata map[string]any) error {
	const op = "TelemetryService.LogResponse"

	n := utf8.RuneCountInString(response)
	message := fmt.Sprintf("AI response generated: %d characters", n)
	data := map[string]any{
		"response_preview":     preview(response, responsePreviewRunes),
		"response_length":      n,
		"full_response_stored": true,
		"metadata":             orEmpty(metadata),
	}

	s.mirror(models.LevelInfo, message, data)
	err := s.insertLog(ctx, op, userID, models.LogTypeAIResponse, models.LevelInfo, message, data)

	s.log.WithFields(logrus.Fields{"user_id": userID, "length": n}).Info("ai response generated")
	return err
}

func (s *telemetryService) LogActivity(ctx context.Context, userID, actionType string, details map[string]any) error {
	const op = "TelemetryService.LogActivity"

	a := &models.UserActivity{
		Timestamp:  s.now(),
		UserID:     userID,
		ActionType: actionType,
		Details:    toJSON(details),
	}
	if err := s.repo.InsertActivity(ctx, a); err != nil {
		return s.fail(op, "failed to write activity", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "action": actionType}).Debug("user activity")
	return nil
}

func (s *telemetryService) LogAction(ctx context.Context, userID, action string, details map[string]any) error {
	const op = "TelemetryService.LogAction"

	message := "User action: " + action
	data := map[string]any{
		"action":    action,
		"user_id":   userID,
		"details":   orEmpty(details),
		"timestamp": s.now().Format(time.RFC3339Nano),
	}

	s.mirror(models.LevelInfo, message, data)
	err := s.insertLog(ctx, op, userID, models.LogTypeUserAction, models.LevelInfo, message, data)
	if aerr := s.LogActivity(ctx, userID, action, details); err == nil {
		err = aerr
	}
	return err
}

func (s *telemetryService) LogAPICall(ctx context.Context, in APICallInput) error {
	const op = "TelemetryService.LogAPICall"

	ms := in.Latency.Milliseconds()
	row := &models.APICall{
		Timestamp:      s.now(),
		UserID:         in.UserID,
		APIService:     in.Service,
		RequestData:    toJSON(in.Request),
		ResponseData:   toJSON(in.Response),
		StatusCode:     in.StatusCode,
		ResponseTimeMS: &ms,
	}
	if in.Err != "" {
		e := in.Err
		row.ErrorMessage = &e
	}
	if err := s.repo.InsertAPICall(ctx, row); err != nil {
		return s.fail(op, "failed to write api call", err)
	}

	status := "None"
	var statusVal any
	if in.StatusCode != nil {
		status = fmt.Sprint(*in.StatusCode)
		statusVal = *in.StatusCode
	}
	var errVal any
	if in.Err != "" {
		errVal = in.Err
	}
	s.mirror(models.LevelInfo, fmt.Sprintf("API call to %s: status %s", in.Service, status), map[string]any{
		"api_service":      in.Service,
		"status_code":      statusVal,
		"response_time_ms": ms,
		"error":            errVal,
	})
	return nil
}

func (s *telemetryService) LogError(ctx context.Context, userID, errorType string, errCtx map[string]any, stackTrace string) error {
	const op = "TelemetryService.LogError"

	message := "Error occurred: " + errorType
	row := &models.ErrorLog{
		Timestamp:    s.now(),
		UserID:       userID,
		ErrorType:    errorType,
		ErrorMessage: message,
		Context:      toJSON(errCtx),
	}
	var stack any
	if stackTrace != "" {
		row.StackTrace = &stackTrace
		stack = stackTrace
	}

	var err error
	if ierr := s.repo.InsertError(ctx, row); ierr != nil {
		err = s.fail(op, "failed to write error log", ierr)
	}

	// The file line is written even when the store is down.
	s.mirror(models.LevelError, message, map[string]any{
		"error_type":  errorType,
		"context":     orEmpty(errCtx),
		"stack_trace": stack,
	})
	s.log.WithFields(logrus.Fields{"user_id": userID, "error_type": errorType}).Error("turn error")
	return err
}

func (s *telemetryService) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	const op = "TelemetryService.UserStats"

	st, err := s.repo.UserStats(ctx, userID, s.now().Add(-recentActivityWindow))
	if err != nil {
		return nil, s.fail(op, "failed to read user stats", err)
	}
	return st, nil
}

func (s *telemetryService) SystemStats(ctx context.Context) (*models.SystemStats, error) {
	const op = "TelemetryService.SystemStats"

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	st, err := s.repo.SystemStats(ctx, dayStart)
	if err != nil {
		return nil, s.fail(op, "failed to read system stats", err)
	}
	return st, nil
}

func (s *telemetryService) Cleanup(ctx context.Context, daysToKeep int) (int64, error) {
	const op = "TelemetryService.Cleanup"

	if daysToKeep <= 0 {
		daysToKeep = DefaultRetentionDays
	}
	now := s.now()
	cutoff := now.AddDate(0, 0, -daysToKeep)
	errorCutoff := now.AddDate(0, 0, -ErrorRetentionDays)

	n, err := s.repo.DeleteBefore(ctx, cutoff, errorCutoff)
	if err != nil {
		return 0, s.fail(op, "failed to clean up telemetry", err)
	}
	s.log.WithFields(logrus.Fields{"deleted": n, "days_to_keep": daysToKeep}).Info("telemetry cleanup")
	return n, nil
}

func (s *telemetryService) RecentLogs(ctx context.Context, level string, limit int) ([]models.LogEntry, error) {
	const op = "TelemetryService.RecentLogs"

	if limit <= 0 {
		limit = DefaultDashboardLogLimit
	}
	rows, err := s.repo.RecentLogs(ctx, level, limit)
	if err != nil {
		return nil, s.fail(op, "failed to read logs", err)
	}
	return rows, nil
}

func (s *telemetryService) DailyActivity(ctx context.Context, days int) ([]models.DailyCount, error) {
	const op = "TelemetryService.DailyActivity"

	if days <= 0 {
		days = DefaultDailyActivityDays
	}
	rows, err := s.repo.DailyActivity(ctx, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, s.fail(op, "failed to read daily activity", err)
	}
	return rows, nil
}

func (s *telemetryService) ActiveUsers(ctx context.Context) ([]models.ActiveUser, error) {
	const op = "TelemetryService.ActiveUsers"

	rows, err := s.repo.ActiveUsers(ctx)
	if err != nil {
		return nil, s.fail(op, "failed to read users", err)
	}
	return rows, nil
}

func (s *telemetryService) UserActivity(ctx context.Context, userID string, limit int) ([]models.UserActivity, error) {
	const op = "TelemetryService.UserActivity"

	if limit <= 0 {
		limit = DefaultUserActivityLimit
	}
	rows, err := s.repo.UserActivity(ctx, userID, limit)
	if err != nil {
		return nil, s.fail(op, "failed to read user activity", err)
	}
	return rows, nil
}

func (s *telemetryService) APICallSummary(ctx context.Context) ([]models.APICallSummary, error) {
	const op = "TelemetryService.APICallSummary"

	rows, err := s.repo.APICallSummary(ctx)
	if err != nil {
		return nil, s.fail(op, "failed to read api call summary", err)
	}
	return rows, nil
}

func (s *telemetryService) ErrorSummary(ctx context.Context) ([]models.ErrorSummary, error) {
	const op = "TelemetryService.ErrorSummary"

	rows, err := s.repo.ErrorSummary(ctx)
	if err != nil {
		return nil, s.fail(op, "failed to read error summary", err)
	}
	return rows, nil
}
