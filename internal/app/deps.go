package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/filmorate/backend/internal/catalog"
	"github.com/filmorate/backend/internal/config"
	"github.com/filmorate/backend/internal/db"
	"github.com/filmorate/backend/internal/feed"
	"github.com/filmorate/backend/internal/films"
	"github.com/filmorate/backend/internal/handlers"
	"github.com/filmorate/backend/internal/middleware"
	"github.com/filmorate/backend/internal/repositories"
	"github.com/filmorate/backend/internal/reviews"
	"github.com/filmorate/backend/internal/social"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, cfg config.Config, logger *slog.Logger, events feed.Publisher) handlers.Dependencies {
	filmRepo := repositories.NewPostgresFilmRepository(pool)
	userRepo := repositories.NewPostgresUserRepository(pool)
	reviewRepo := repositories.NewPostgresReviewRepository(pool)
	genreRepo := repositories.NewPostgresGenreRepository(pool)
	mpaRepo := repositories.NewPostgresMpaRepository(pool)
	directorRepo := repositories.NewPostgresDirectorRepository(pool)

	return handlers.Dependencies{
		Films: films.NewService(films.Deps{
			Films:     filmRepo,
			Users:     userRepo,
			Genres:    genreRepo,
			Mpa:       mpaRepo,
			Directors: directorRepo,
			Events:    events,
		}),
		Users:   social.NewService(userRepo, events),
		Reviews: reviews.NewService(reviewRepo, userRepo, filmRepo, events),
		Catalog: catalog.NewService(genreRepo, mpaRepo, directorRepo),
		Feed:    feed.NewService(userRepo, repositories.NewPostgresFeedRepository(pool)),

		Logger:      logger,
		Limiter:     middleware.NewIPRateLimiter(cfg.RateLimit),
		CORSOrigins: cfg.CORSOrigins,
		HealthCheck: func(ctx context.Context) error {
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return fmt.Errorf("acquire connection: %w", err)
			}
			defer conn.Release()
			return conn.Ping(ctx)
		},
	}
}
