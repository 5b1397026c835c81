package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/homevalue/internal/api"
	"github.com/isdelr/homevalue/internal/auth"
	"github.com/isdelr/homevalue/internal/config"
	"github.com/isdelr/homevalue/internal/database"
	"github.com/isdelr/homevalue/internal/logger"
	"github.com/isdelr/homevalue/internal/monitoring"
	"github.com/isdelr/homevalue/internal/predictor"
	"github.com/isdelr/homevalue/internal/services"
	"github.com/isdelr/homevalue/internal/web"
	"github.com/isdelr/homevalue/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatal().Err(err).Msg("Failed to generate session secret")
		}
		log.Warn().Msg("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up the model client; option lists are fetched lazily if the model is still starting
	model := predictor.NewClient(cfg.PredictorURL, cfg.PredictorTimeout)
	warmupCtx, cancelWarmup := context.WithTimeout(context.Background(), cfg.PredictorTimeout)
	if err := model.Warmup(warmupCtx); err != nil {
		log.Warn().Err(err).Str("url", cfg.PredictorURL).Msg("Prediction model not reachable yet")
	}
	cancelWarmup()

	// Set up services
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db, cfg.BcryptCost)
	sessionService := services.NewSessionService(db, userService, eventService, auth.NewTokenSigner(secret), cfg.SessionTTL)
	predictionService := services.NewPredictionService(model)

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load page templates")
	}

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(cfg.StatsInterval)
	go statUpdater.Run()

	// Set up and run the expired-session pruner
	scheduler, err := monitoring.NewScheduler(cfg.SessionPruneSchedule, sessionService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up session pruner")
	}
	scheduler.Run()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Users:              userService,
		Sessions:           sessionService,
		Events:             eventService,
		Predictions:        predictionService,
		Hub:                hub,
		Stats:              statUpdater,
		Renderer:           renderer,
		SecureCookies:      cfg.IsProduction(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	hub.Broadcast(websocket.NewShutdownMessage())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	statUpdater.Stop()
	scheduler.Stop()
	hub.Stop()

	log.Info().Msg("Server exiting")
}
