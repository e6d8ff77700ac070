package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/ai"
	"github.com/feralgames/frontline/internal/auth"
	"github.com/feralgames/frontline/internal/config"
	"github.com/feralgames/frontline/internal/engine"
	"github.com/feralgames/frontline/internal/handler"
	"github.com/feralgames/frontline/internal/logger"
	"github.com/feralgames/frontline/internal/middleware"
	"github.com/feralgames/frontline/internal/repository/postgres"
	redisrepo "github.com/feralgames/frontline/internal/repository/redis"
	"github.com/feralgames/frontline/internal/service"
	"github.com/feralgames/frontline/internal/store"
	"github.com/feralgames/frontline/internal/tuning"
	"github.com/feralgames/frontline/pkg/territory"
)

const (
	snapshotInterval = 30 * time.Second
	eventRetention   = 7 * 24 * time.Hour
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	tun, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TuningPath).Msg("Tuning load failed")
	}

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Enable Redis keyspace notifications for decay timer expiry events.
	if err := redisClient.Underlying().ConfigSet(context.Background(), "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (decay falls back to polling)")
	}

	// Repos
	worldRepo := postgres.NewWorldRepo(db)
	influenceRepo := postgres.NewInfluenceRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)

	// World: persisted graph, or the configured world file on first boot.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	territories, factions, err := worldRepo.LoadWorld(bootCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("World load failed")
	}
	if len(territories) == 0 {
		if cfg.WorldPath != "" {
			territories, factions, err = territory.LoadWorldFile(cfg.WorldPath)
			if err != nil {
				log.Fatal().Err(err).Str("path", cfg.WorldPath).Msg("World file load failed")
			}
		} else {
			territories, factions = territory.FixtureWorld(), territory.FixtureFactions()
			log.Warn().Msg("No world configured, using the built-in fixture world")
		}
		if err := worldRepo.ReplaceWorld(bootCtx, territories, factions); err != nil {
			log.Fatal().Err(err).Msg("World persist failed")
		}
	}

	world, err := territory.NewWorldMap(territories)
	if err != nil {
		log.Fatal().Err(err).Msg("Persisted world is invalid")
	}
	thresholds := territory.Thresholds{Control: tun.ControlThreshold, Contest: tun.ContestThreshold}
	st := store.New(world, factions, thresholds)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	googleOAuth := auth.NewGoogleOAuth(
		os.Getenv("GOOGLE_CLIENT_ID"),
		os.Getenv("GOOGLE_CLIENT_SECRET"),
		os.Getenv("GOOGLE_REDIRECT_URL"),
	)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Engine: async journal sink, notifications into the hub.
	sink := service.NewAsyncEventSink(eventRepo, redisClient)
	syncSvc := service.NewSyncService(wsHub)
	eng := engine.New(st, tun, sink, syncSvc, time.Now().UnixNano())

	// Recover live state (Postgres snapshot + Redis overlay).
	if err := service.RecoverState(bootCtx, st, influenceRepo, redisClient); err != nil {
		log.Error().Err(err).Msg("State recovery failed (non-fatal, starting from empty influence)")
	}

	// Services
	actionSvc := service.NewActionService(eng)
	worldSvc := service.NewWorldService(eng, worldRepo, redisClient)
	persister := service.NewPersister(st, influenceRepo, eventRepo, snapshotInterval, eventRetention)
	decaySched := service.NewDecayScheduler(redisClient.Underlying(), redisClient, eng)
	runner := ai.NewRunner(st, tun, actionSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(googleOAuth, jwtMgr, sessionRepo)
	actionHandler := handler.NewActionHandler(actionSvc)
	statusHandler := handler.NewStatusHandler(st, eventRepo)
	adminHandler := handler.NewAdminHandler(worldSvc)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr, st, actionSvc)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", statusHandler.Health)

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /world", statusHandler.World)
	api.HandleFunc("GET /territories/{id}", statusHandler.Territory)
	api.HandleFunc("GET /territories/{id}/events", statusHandler.TerritoryEvents)
	api.HandleFunc("GET /factions", statusHandler.Factions)
	api.HandleFunc("POST /actions", actionHandler.Submit)
	api.HandleFunc("PUT /admin/world", adminHandler.ReplaceWorld)
	api.HandleFunc("PUT /admin/territories/{id}/influence", adminHandler.ForceInfluence)
	api.HandleFunc("POST /admin/decay", adminHandler.TriggerDecay)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background loops
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink.Start(ctx)
	go persister.Start(ctx)
	go decaySched.Start(ctx)
	go runner.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	// Drain the journal and take a final snapshot before exit.
	sink.Stop()
	persister.Flush(shutdownCtx)
	log.Info().Msg("Server stopped")
}
