package config

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var TelemetryDB *gorm.DB

// InitTelemetrySQLite opens (creating if needed) the local telemetry database.
func InitTelemetrySQLite(cfg *TelemetrySettings) error {
	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	TelemetryDB = db
	return nil
}
