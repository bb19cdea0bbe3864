package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/hridesh-bharati/jibzo-sub000/internal/config"
	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/graph"
	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/live"
	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/notification"
	"github.com/hridesh-bharati/jibzo-sub000/internal/middleware"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/database"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/jwt"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/logger"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/push"
	pkgresponse "github.com/hridesh-bharati/jibzo-sub000/internal/pkg/response"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/relstore"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting jibzo relation service")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	// ---------- Relation store ----------
	var store relstore.Store
	if redisClient != nil {
		store = relstore.NewRedisStore(redisClient)
	} else {
		store = relstore.NewMemoryStore()
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Directory, engine, hub ----------
	dir := directory.New(store, cfg.DirectoryTTL)

	notificationRepo := notification.NewRepository(db)
	var pusher notification.Pusher
	if cfg.FCMServerKey != "" && cfg.FCMProjectID != "" {
		pusher = push.NewFCMClient(push.FCMConfig{
			ServerKey: cfg.FCMServerKey,
			ProjectID: cfg.FCMProjectID,
		})
	}
	emitter := notification.NewEmitter(notificationRepo, dir, pusher)

	engine := graph.NewEngine(store, dir, emitter)

	hub := live.NewHub(store, engine)
	go hub.Run()
	defer hub.Shutdown()

	// ---------- Background jobs ----------
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	cleanup := notification.NewCleanupJob(notificationRepo, cfg.NotificationRetention)
	go cleanup.Start(jobCtx, time.Hour)

	// ---------- Handlers ----------
	graphHandler := graph.NewHandler(engine)
	liveHandler := live.NewHandler(hub)
	notificationHandler := notification.NewHandler(notificationRepo)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	// WebSocket endpoint (before Compress)
	r.Mount("/ws", liveHandler.Routes(authMiddleware))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Mount("/", graphHandler.Routes(authMiddleware))
		r.Mount("/inbox", notificationHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
