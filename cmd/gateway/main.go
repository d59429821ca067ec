package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mind-engage/eduverse/internal/account"
	api "github.com/mind-engage/eduverse/internal/api/http"
	auth "github.com/mind-engage/eduverse/internal/auth/middleware"
	"github.com/mind-engage/eduverse/internal/config"
	"github.com/mind-engage/eduverse/internal/course"
	"github.com/mind-engage/eduverse/internal/lesson"
	"github.com/mind-engage/eduverse/internal/logger"
	"github.com/mind-engage/eduverse/internal/progress"
	"github.com/mind-engage/eduverse/internal/quiz"
	"github.com/mind-engage/eduverse/internal/seed"
)

func main() {
	started := time.Now()
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("development")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Env)
	if dotenvErr != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	b, err := newBackends(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("init backends")
	}
	defer b.Close()

	authSvc := auth.NewAuthService(cfg.JWTSecret, cfg.SessionTTL)
	seeder, err := seed.NewService(b.identity, b.tables, log)
	if err != nil {
		log.Fatal().Err(err).Msg("load seed fixtures")
	}

	handler := api.NewRouter(cfg, api.Deps{
		Auth:     authSvc,
		Accounts: account.NewService(b.identity, b.tables, authSvc, log, cfg.ProfileRetryDelay),
		Courses:  course.NewService(b.tables, log),
		Lessons:  lesson.NewService(b.tables, b.signer, cfg.VideoBucket, cfg.SignedURLTTL),
		Quizzes:  quiz.NewService(b.tables),
		Progress: progress.NewService(b.tables, log),
		Seed:     seeder,
		Started:  started,
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("mode", string(cfg.Mode)).Str("storage", cfg.StorageDriver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
