// Package films implements the film catalog, the like ledger and the ranking
// queries built on it.
package films

import (
	"context"
	"errors"
	"fmt"

	"github.com/filmorate/backend/internal/feed"
	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/metrics"
	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
)

// Service coordinates film persistence with the user and dictionary stores
// it depends on.
type Service struct {
	films     repositories.FilmRepository
	users     repositories.UserRepository
	genres    repositories.GenreRepository
	mpa       repositories.MpaRepository
	directors repositories.DirectorRepository
	events    feed.Publisher
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Films     repositories.FilmRepository
	Users     repositories.UserRepository
	Genres    repositories.GenreRepository
	Mpa       repositories.MpaRepository
	Directors repositories.DirectorRepository
	Events    feed.Publisher
}

// NewService constructs a film service. A nil Events publisher discards events.
func NewService(deps Deps) *Service {
	events := deps.Events
	if events == nil {
		events = feed.Discard{}
	}
	return &Service{
		films:     deps.Films,
		users:     deps.Users,
		genres:    deps.Genres,
		mpa:       deps.Mpa,
		directors: deps.Directors,
		events:    events,
	}
}

// Create stores a new film after confirming its rating, genres and directors exist.
func (s *Service) Create(ctx context.Context, film models.Film) (models.Film, error) {
	ctx, span := logging.StartSpan(ctx, "films.Create")
	defer span.End()

	if err := s.checkReferences(ctx, film); err != nil {
		return models.Film{}, err
	}
	created, err := s.films.Create(ctx, film)
	if err != nil {
		return models.Film{}, fmt.Errorf("create film: %w", err)
	}
	return created, nil
}

// Update replaces an existing film's attributes. The like count is preserved.
func (s *Service) Update(ctx context.Context, film models.Film) (models.Film, error) {
	ctx, span := logging.StartSpan(ctx, "films.Update")
	defer span.End()

	if _, err := s.films.FindByID(ctx, film.ID); err != nil {
		return models.Film{}, fmt.Errorf("load film: %w", err)
	}
	if err := s.checkReferences(ctx, film); err != nil {
		return models.Film{}, err
	}
	updated, err := s.films.Update(ctx, film)
	if err != nil {
		return models.Film{}, fmt.Errorf("update film: %w", err)
	}
	return updated, nil
}

// Delete removes a film together with its likes and reviews.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := logging.StartSpan(ctx, "films.Delete")
	defer span.End()

	if err := s.films.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete film: %w", err)
	}
	return nil
}

// Get returns a single film with genres and directors attached.
func (s *Service) Get(ctx context.Context, id int64) (models.Film, error) {
	film, err := s.films.FindByID(ctx, id)
	if err != nil {
		return models.Film{}, fmt.Errorf("get film: %w", err)
	}
	return film, nil
}

// List returns every film ordered by id.
func (s *Service) List(ctx context.Context) ([]models.Film, error) {
	films, err := s.films.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	return films, nil
}

func (s *Service) checkReferences(ctx context.Context, film models.Film) error {
	if _, err := s.mpa.FindByID(ctx, film.Mpa.ID); err != nil {
		return fmt.Errorf("load mpa rating: %w", err)
	}
	for _, g := range film.Genres {
		if _, err := s.genres.FindByID(ctx, g.ID); err != nil {
			return fmt.Errorf("load genre: %w", err)
		}
	}
	for _, d := range film.Directors {
		if _, err := s.directors.FindByID(ctx, d.ID); err != nil {
			return fmt.Errorf("load director: %w", err)
		}
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, id int64) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	return nil
}

func (s *Service) requireFilm(ctx context.Context, id int64) error {
	if _, err := s.films.FindByID(ctx, id); err != nil {
		return fmt.Errorf("load film: %w", err)
	}
	return nil
}

// AddLike records userID's like on filmID and bumps the like count by one.
// A repeated like fails with repositories.ErrDuplicateMark and changes nothing.
func (s *Service) AddLike(ctx context.Context, filmID, userID int64) error {
	ctx, span := logging.StartSpan(ctx, "films.AddLike")
	defer span.End()

	if err := s.requireFilm(ctx, filmID); err != nil {
		return err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	event, err := s.films.AddLike(ctx, filmID, userID)
	switch {
	case errors.Is(err, repositories.ErrDuplicateMark):
		metrics.RecordLedger("film_like_add", metrics.OutcomeDuplicate)
		return fmt.Errorf("add like: %w", err)
	case err != nil:
		metrics.RecordLedger("film_like_add", metrics.OutcomeError)
		return fmt.Errorf("add like: %w", err)
	}

	metrics.RecordLedger("film_like_add", metrics.OutcomeApplied)
	s.events.Publish(ctx, event)
	return nil
}

// RemoveLike withdraws userID's like from filmID. Removing a like that does
// not exist is a no-op and records no event.
func (s *Service) RemoveLike(ctx context.Context, filmID, userID int64) error {
	ctx, span := logging.StartSpan(ctx, "films.RemoveLike")
	defer span.End()

	if err := s.requireFilm(ctx, filmID); err != nil {
		return err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	event, err := s.films.RemoveLike(ctx, filmID, userID)
	if err != nil {
		metrics.RecordLedger("film_like_remove", metrics.OutcomeError)
		return fmt.Errorf("remove like: %w", err)
	}
	if event == nil {
		metrics.RecordLedger("film_like_remove", metrics.OutcomeNoop)
		logging.FromContext(ctx).Debug("like already absent", "filmId", filmID, "userId", userID)
		return nil
	}

	metrics.RecordLedger("film_like_remove", metrics.OutcomeApplied)
	s.events.Publish(ctx, *event)
	return nil
}
