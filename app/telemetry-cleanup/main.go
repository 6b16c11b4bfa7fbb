package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yootravel/config"
	"github.com/yoockh/yootravel/internal/logger"
	"github.com/yoockh/yootravel/internal/repositories"
	mongorepo "github.com/yoockh/yootravel/internal/repositories/mongo"
	sqliterepo "github.com/yoockh/yootravel/internal/repositories/sqlite"
	"github.com/yoockh/yootravel/internal/services"
)

func main() {
	days := flag.Int("days", services.DefaultRetentionDays, "keep telemetry newer than this many days")
	flag.Parse()

	cfg, err := config.LoadTelemetry()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	repo, err := open(&cfg.Telemetry)
	if err != nil {
		log.Fatalf("telemetry init error: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tel := services.NewTelemetryService(repo, nil, log)
	n, err := tel.Cleanup(ctx, *days)
	if err != nil {
		log.Fatalf("cleanup failed: %v", err)
	}
	log.WithFields(logrus.Fields{"deleted": n, "days": *days}).Info("telemetry cleanup done")
}

func open(cfg *config.TelemetrySettings) (repositories.TelemetryRepository, error) {
	if strings.EqualFold(cfg.Backend, "mongo") {
		if err := config.InitMongo(cfg); err != nil {
			return nil, err
		}
		return mongorepo.NewTelemetryRepo(config.MongoClient.Database(cfg.MongoDB)), nil
	}
	if err := config.InitTelemetrySQLite(cfg); err != nil {
		return nil, err
	}
	if err := sqliterepo.AutoMigrate(config.TelemetryDB); err != nil {
		return nil, err
	}
	return sqliterepo.NewTelemetryRepo(config.TelemetryDB), nil
}
