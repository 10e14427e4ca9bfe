package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/filmorate/backend/internal/catalog"
	"github.com/filmorate/backend/internal/feed"
	"github.com/filmorate/backend/internal/films"
	"github.com/filmorate/backend/internal/middleware"
	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/reviews"
	"github.com/filmorate/backend/internal/social"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Films   *films.Service
	Users   *social.Service
	Reviews *reviews.Service
	Catalog *catalog.Service
	Feed    *feed.Service

	Logger      *slog.Logger
	Limiter     middleware.RateLimiter
	CORSOrigins []string
	HealthCheck func(ctx context.Context) error
}

// NewRouter wires HTTP handlers and the middleware stack into a chi router.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	health := HealthHandler{Check: deps.HealthCheck}
	filmsHandler := FilmHandler{Films: deps.Films}
	users := UserHandler{Users: deps.Users, Films: deps.Films, Events: deps.Feed}
	reviewsHandler := ReviewHandler{Reviews: deps.Reviews}
	catalogHandler := CatalogHandler{Catalog: deps.Catalog}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Metrics)

	r.Get("/healthz", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.Limiter))

		r.Route("/films", func(r chi.Router) {
			r.Get("/", filmsHandler.List)
			r.Post("/", filmsHandler.Create)
			r.Put("/", filmsHandler.Update)
			r.Get("/popular", filmsHandler.Popular)
			r.Get("/common", filmsHandler.Common)
			r.Get("/search", filmsHandler.Search)
			r.Get("/director/{directorId}", filmsHandler.ByDirector)
			r.Get("/{id}", filmsHandler.Get)
			r.Delete("/{id}", filmsHandler.Delete)
			r.Put("/{id}/like/{userId}", filmsHandler.AddLike)
			r.Delete("/{id}/like/{userId}", filmsHandler.RemoveLike)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", users.List)
			r.Post("/", users.Create)
			r.Put("/", users.Update)
			r.Get("/{id}", users.Get)
			r.Delete("/{id}", users.Delete)
			r.Get("/{id}/friends", users.Friends)
			r.Put("/{id}/friends/{friendId}", users.AddFriend)
			r.Delete("/{id}/friends/{friendId}", users.RemoveFriend)
			r.Get("/{id}/friends/common/{otherId}", users.CommonFriends)
			r.Get("/{id}/recommendations", users.Recommendations)
			r.Get("/{id}/feed", users.Feed)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", reviewsHandler.List)
			r.Post("/", reviewsHandler.Create)
			r.Put("/", reviewsHandler.Update)
			r.Get("/{id}", reviewsHandler.Get)
			r.Delete("/{id}", reviewsHandler.Delete)
			r.Put("/{id}/like/{userId}", reviewsHandler.AddMark(models.MarkLike))
			r.Delete("/{id}/like/{userId}", reviewsHandler.RemoveMark(models.MarkLike))
			r.Put("/{id}/dislike/{userId}", reviewsHandler.AddMark(models.MarkDislike))
			r.Delete("/{id}/dislike/{userId}", reviewsHandler.RemoveMark(models.MarkDislike))
		})

		r.Get("/genres", catalogHandler.Genres)
		r.Get("/genres/{id}", catalogHandler.Genre)
		r.Get("/mpa", catalogHandler.Ratings)
		r.Get("/mpa/{id}", catalogHandler.Rating)

		r.Route("/directors", func(r chi.Router) {
			r.Get("/", catalogHandler.Directors)
			r.Post("/", catalogHandler.CreateDirector)
			r.Put("/", catalogHandler.UpdateDirector)
			r.Get("/{id}", catalogHandler.Director)
			r.Delete("/{id}", catalogHandler.DeleteDirector)
		})
	})

	return r
}
