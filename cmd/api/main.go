package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nutritrack/nutritrack-go/internal/config"
	"github.com/nutritrack/nutritrack-go/internal/crypto"
	"github.com/nutritrack/nutritrack-go/internal/handler"
	"github.com/nutritrack/nutritrack-go/internal/logger"
	"github.com/nutritrack/nutritrack-go/internal/repository"
	"github.com/nutritrack/nutritrack-go/internal/service"
	"github.com/nutritrack/nutritrack-go/internal/validation"
	"github.com/rs/zerolog"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(zerolog.InfoLevel, "production")
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.Env)
	if envErr != nil {
		log.Warn().Msg("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// run serves until ctx is done. Every resource it opens is released before
// it returns.
func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	users, profiles, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store, err)
	}
	defer closeStore()

	v := validation.New()
	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	authService, err := service.NewAuthService(users, crypto.NewHasher(crypto.DefaultHashParams()), tokens, v)
	if err != nil {
		return fmt.Errorf("creating auth service: %w", err)
	}
	profileService := service.NewProfileService(profiles, v)

	r := handler.NewRouter(ctx, handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService),
		Profile:        handler.NewProfileHandler(profileService),
		Verifier:       tokens,
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Str("store", cfg.Store).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("serving http: %w", err)
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// openStore returns the user and profile stores selected by cfg.Store and a
// function that releases them.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (service.UserStore, service.ProfileStore, func(), error) {
	if cfg.Store == config.StoreMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		mem := repository.NewMemoryStore()
		return mem, mem.Profiles(), func() {}, nil
	}

	db, err := repository.NewDB(ctx, cfg.DatabaseDSN, repository.ConnectOptions{
		Retries: cfg.DBConnectRetries,
		Backoff: cfg.DBConnectBackoff,
	}, log)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := repository.Migrate(ctx, db, log); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	return repository.NewUserRepository(db), repository.NewProfileRepository(db), func() { db.Close() }, nil
}
