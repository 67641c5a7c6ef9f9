package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskwave-api/internal/auth"
	"github.com/yukikurage/taskwave-api/internal/cache"
	"github.com/yukikurage/taskwave-api/internal/config"
	"github.com/yukikurage/taskwave-api/internal/database"
	"github.com/yukikurage/taskwave-api/internal/handlers"
	"github.com/yukikurage/taskwave-api/internal/logging"
	"github.com/yukikurage/taskwave-api/internal/mailer"
	"github.com/yukikurage/taskwave-api/internal/repository"
	"github.com/yukikurage/taskwave-api/internal/services"
)

type repositories struct {
	users    repository.UserRepository
	tasks    repository.TaskRepository
	sessions repository.FocusSessionRepository
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthChecks := map[string]handlers.HealthCheck{}

	var repos repositories
	if cfg.Database.Driver == "mongo" {
		client, err := database.ConnectMongo(ctx, cfg.Database)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())

		db := client.Database(cfg.Database.Name)
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			logging.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
		}
		repos = repositories{
			users:    repository.NewMongoUserRepository(db),
			tasks:    repository.NewMongoTaskRepository(db),
			sessions: repository.NewMongoFocusSessionRepository(client, db),
		}
		healthChecks["database"] = func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}
	} else {
		// Connect to database
		if err := database.Connect(cfg); err != nil {
			logging.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close()

		// Run migrations
		if err := database.Migrate(); err != nil {
			logging.Fatal().Err(err).Msg("Failed to run migrations")
		}

		db := database.GetDB()
		repos = repositories{
			users:    repository.NewUserRepository(db),
			tasks:    repository.NewTaskRepository(db),
			sessions: repository.NewFocusSessionRepository(db),
		}
		healthChecks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	// Redis holds OTP codes and password-change grants
	pool := cache.NewPool(cfg)
	defer pool.Close()
	otpStore := cache.NewOTPStore(pool)
	healthChecks["redis"] = func(ctx context.Context) error {
		return cache.Ping(ctx, pool)
	}

	var sender mailer.Sender = mailer.LogSender{}
	if cfg.Email.ResendAPIKey != "" {
		breaker := mailer.NewBreakerSender(
			mailer.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From),
			mailer.DefaultBreakerConfig(),
		)
		healthChecks["email"] = breaker.Check
		sender = breaker
	} else {
		logging.Warn().Msg("RESEND_API_KEY not set, OTP emails will only be logged")
	}

	// Initialize AI service
	var suggester services.TaskSuggester
	if cfg.OpenAI.APIKey != "" {
		suggester = services.NewAIService(cfg.OpenAI.APIKey)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create token manager")
	}

	cal := services.NewCalendar(cfg.Location())

	router, err := handlers.NewRouter(handlers.RouterDeps{
		Tokens:        tokens,
		Users:         services.NewUserService(repos.users, tokens, otpStore),
		Tasks:         services.NewTaskService(repos.tasks, suggester, cal),
		FocusSessions: services.NewFocusSessionService(repos.sessions, repos.tasks, cal),
		OTP:           services.NewOTPService(otpStore, sender, repos.users),
		HealthChecks:  healthChecks,
		CORSOrigins:   cfg.Server.CORSOrigins,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Server forced to shutdown")
	}
}
