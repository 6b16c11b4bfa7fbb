package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yootravel/config"
	"github.com/yoockh/yootravel/internal/api/handlers"
	"github.com/yoockh/yootravel/internal/api/middleware"
	"github.com/yoockh/yootravel/internal/api/routes"
	"github.com/yoockh/yootravel/internal/cache"
	"github.com/yoockh/yootravel/internal/logger"
	"github.com/yoockh/yootravel/internal/prompts"
	"github.com/yoockh/yootravel/internal/providers/llm"
	"github.com/yoockh/yootravel/internal/repositories"
	mongorepo "github.com/yoockh/yootravel/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yootravel/internal/repositories/postgres"
	sqliterepo "github.com/yoockh/yootravel/internal/repositories/sqlite"
	"github.com/yoockh/yootravel/internal/services"
	"github.com/yoockh/yootravel/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	// Init PostgreSQL
	if err := config.InitPostgres(cfg); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := pgrepo.AutoMigrate(config.PostgresDB); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	log.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(cfg); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	log.Info("Redis connected")

	telRepo, err := openTelemetry(cfg)
	if err != nil {
		log.Fatalf("telemetry init error: %v", err)
	}
	defer telRepo.Close()
	log.WithField("backend", cfg.Telemetry.Backend).Info("telemetry store ready")

	var sink services.FileSink
	if fl, err := telemetry.OpenFileLog(cfg.Telemetry.LogFile); err != nil {
		log.WithError(err).Warn("file log disabled")
	} else {
		defer fl.Close()
		sink = fl
	}

	provider, err := openProvider(cfg)
	if err != nil {
		log.Fatalf("LLM init error: %v", err)
	}
	defer provider.Close()
	log.WithField("provider", provider.Name()).Info("LLM provider ready")

	key := []byte(cfg.Auth.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Fatalf("signing key: %v", err)
		}
		log.Warn("SESSION_SIGNING_KEY not set; sessions will not survive a restart")
	}

	db := config.PostgresDB
	convRepo := pgrepo.NewConversationRepo(db)
	store := cache.NewSessionStore(cache.NewRedisCache(config.RedisClient, "travel"), cfg.SessionTimeout())
	assembler := prompts.NewAssembler()

	auth := services.NewAuthService(cfg.Auth.AppPassword, key, cfg.SessionTimeout(), store)
	tel := services.NewTelemetryService(telRepo, sink, log)
	convos := services.NewConversationService(convRepo)
	sessions := services.NewSessionService(pgrepo.NewSessionRepo(db))
	chat := services.NewChatService(services.ChatDeps{
		Store:         store,
		Assembler:     assembler,
		Provider:      provider,
		Preferences:   services.NewPreferenceService(pgrepo.NewUserRepo(db), convRepo),
		Conversations: convos,
		Sessions:      sessions,
		Visits:        services.NewVisitService(pgrepo.NewUserSessionRepo(db)),
		Telemetry:     tel,
		Logger:        log,
	})
	dash := services.NewDashboardService(tel, convos, pgrepo.NewTableRepo(db))

	if cfg.Auth.AdminPasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH not set; dashboard is open to any chat session")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RequestLogger(log))

	secure := !strings.EqualFold(os.Getenv("GIN_MODE"), "debug")
	routes.RegisterRoutes(r, routes.Deps{
		Auth:     auth,
		AdminKey: cfg.Auth.AdminPasswordHash,
		AuthH:    handlers.NewAuthHandler(auth, chat, cfg.SessionTimeout(), secure),
		Chat:     handlers.NewChatHandler(chat, assembler),
		Sessions: handlers.NewSessionHandler(chat, sessions),
		Admin:    handlers.NewAdminHandler(dash),
		WS:       handlers.NewWSHandler(auth, chat, cfg.CORSAllowedOrigins, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func openTelemetry(cfg *config.Config) (repositories.TelemetryRepository, error) {
	if strings.EqualFold(cfg.Telemetry.Backend, "mongo") {
		if err := config.InitMongo(&cfg.Telemetry); err != nil {
			return nil, err
		}
		if err := config.EnsureMongoIndexes(&cfg.Telemetry); err != nil {
			return nil, err
		}
		return mongorepo.NewTelemetryRepo(config.MongoClient.Database(cfg.Telemetry.MongoDB)), nil
	}

	if err := config.InitTelemetrySQLite(&cfg.Telemetry); err != nil {
		return nil, err
	}
	if err := sqliterepo.AutoMigrate(config.TelemetryDB); err != nil {
		return nil, err
	}
	return sqliterepo.NewTelemetryRepo(config.TelemetryDB), nil
}

func openProvider(cfg *config.Config) (llm.Provider, error) {
	if strings.EqualFold(cfg.LLM.Provider, "vertex") {
		return llm.NewVertexGemini(context.Background(), cfg.LLM.VertexProject, cfg.LLM.VertexLocation, cfg.LLM.VertexModel, cfg.LLM.VertexCredFile)
	}
	return llm.NewGroq(cfg.LLM.GroqBaseURL, cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel)
}
