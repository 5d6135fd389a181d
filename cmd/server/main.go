package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"shortlink/internal/cache"
	"shortlink/internal/config"
	"shortlink/internal/handler"
	"shortlink/internal/logger"
	"shortlink/internal/repository"
	"shortlink/internal/service"
	"shortlink/internal/shortener"
)

func main() {
	logger.Initialize()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file loaded")
	}

	cfg := config.Load()
	if cfg.Database.DSN == "" {
		log.Fatal().Msg("DATABASE_DSN not set")
	}

	db, err := repository.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer db.Close()

	// Redis optional; the service degrades to store-only reads without it.
	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c, err = cache.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.TTL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without cache")
			c = nil
		} else {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
			defer c.Close()
		}
	}

	repo := repository.NewRepo(db)
	gen := shortener.New(cfg.Shortener.MaxCodeLength)

	var svcCache service.Cache
	if c != nil {
		svcCache = c
	}
	svc := service.New(repo, svcCache, gen, cfg.WebServer.BaseURL, cfg.Cache.TTL, cfg.Shortener.SuffixLength)

	auth := handler.NewAdminAuth(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	limiter := handler.NewSimpleRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	h := handler.NewHandler(svc, auth, limiter)

	allowed := handlers.AllowedOrigins([]string{"*"})
	allowedHeaders := handlers.AllowedHeaders([]string{"Content-Type", "Authorization"})
	allowedMethods := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	srv := &http.Server{
		Addr:         ":" + cfg.WebServer.Port,
		Handler:      handlers.CORS(allowed, allowedHeaders, allowedMethods)(h.Routes()),
		ReadTimeout:  cfg.WebServer.ReadTimeout,
		WriteTimeout: cfg.WebServer.WriteTimeout,
		IdleTimeout:  cfg.WebServer.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.WebServer.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}
