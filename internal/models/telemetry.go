package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	LogTypeUserInput  = "user_input"
	LogTypeAIResponse = "ai_response"
	LogTypeUserAction = "user_action"

	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

type LogEntry struct {
	ID        uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id,omitempty"`
	Timestamp time.Time      `gorm:"column:timestamp;index" json:"timestamp"`
	UserID    string         `gorm:"column:user_id;index" json:"user_id"`
	LogType   string         `gorm:"column:log_type;index" json:"log_type"`
	Message   string         `gorm:"column:message" json:"message"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	Level     string         `gorm:"column:level;default:INFO" json:"level"`
}

func (LogEntry) TableName() string { return "logs" }

type UserActivity struct {
	ID         uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id,omitempty"`
	Timestamp  time.Time      `gorm:"column:timestamp;index" json:"timestamp"`
	UserID     string         `gorm:"column:user_id;index" json:"user_id"`
	ActionType string         `gorm:"column:action_type" json:"action_type"`
	Details    datatypes.JSON `gorm:"column:details" json:"details"`
	SessionID  string         `gorm:"column:session_id" json:"session_id,omitempty"`
}

func (UserActivity) TableName() string { return "user_activity" }

type APICall struct {
	ID             uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id,omitempty"`
	Timestamp      time.Time      `gorm:"column:timestamp;index" json:"timestamp"`
	UserID         string         `gorm:"column:user_id" json:"user_id"`
	APIService     string         `gorm:"column:api_service;index" json:"api_service"`
	RequestData    datatypes.JSON `gorm:"column:request_data" json:"request_data"`
	ResponseData   datatypes.JSON `gorm:"column:response_data" json:"response_data"`
	StatusCode     *int           `gorm:"column:status_code" json:"status_code,omitempty"`
	ResponseTimeMS *int64         `gorm:"column:response_time_ms" json:"response_time_ms,omitempty"`
	ErrorMessage   *string        `gorm:"column:error_message" json:"error_message,omitempty"`
}

func (APICall) TableName() string { return "api_calls" }

type ErrorLog struct {
	ID           uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id,omitempty"`
	Timestamp    time.Time      `gorm:"column:timestamp;index" json:"timestamp"`
	UserID       string         `gorm:"column:user_id;index" json:"user_id"`
	ErrorType    string         `gorm:"column:error_type;index" json:"error_type"`
	ErrorMessage string         `gorm:"column:error_message" json:"error_message"`
	StackTrace   *string        `gorm:"column:stack_trace" json:"stack_trace,omitempty"`
	Context      datatypes.JSON `gorm:"column:context" json:"context"`
}

func (ErrorLog) TableName() string { return "error_logs" }

type UserStats struct {
	TotalMessages       int64      `json:"total_messages"`
	TotalResponses      int64      `json:"total_responses"`
	TotalErrors         int64      `json:"total_errors"`
	FirstActivity       *time.Time `json:"first_activity"`
	RecentActivityCount int64      `json:"recent_activity_count"`
}

type SystemStats struct {
	TotalUsers        int64 `json:"total_users"`
	MessagesToday     int64 `json:"messages_today"`
	ErrorsToday       int64 `json:"errors_today"`
	AvgResponseTimeMS int64 `json:"avg_response_time_ms"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"activity_count"`
}

type ActiveUser struct {
	UserID          string    `json:"user_id"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	TotalActivities int64     `json:"total_activities"`
}

type APICallSummary struct {
	APIService      string  `json:"api_service"`
	TotalCalls      int64   `json:"total_calls"`
	AvgResponseTime float64 `json:"avg_response_time"`
	SuccessfulCalls int64   `json:"successful_calls"`
	ErrorCalls      int64   `json:"error_calls"`
}

type ErrorSummary struct {
	ErrorType      string    `json:"error_type"`
	ErrorCount     int64     `json:"error_count"`
	LastOccurrence time.Time `json:"last_occurrence"`
}
