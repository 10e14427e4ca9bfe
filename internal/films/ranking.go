package films

import (
	"context"
	"fmt"

	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/models"
)

// Popular returns the most liked films, ties broken by ascending id.
// Invalid filters fail with models.ErrInvalidParameter before any store access.
func (s *Service) Popular(ctx context.Context, filter models.PopularFilter) ([]models.Film, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	ctx, span := logging.StartSpan(ctx, "films.Popular")
	defer span.End()

	films, err := s.films.Popular(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("popular films: %w", err)
	}
	return films, nil
}

// Recommendations returns films other users liked that userID has not.
func (s *Service) Recommendations(ctx context.Context, userID int64) ([]models.Film, error) {
	ctx, span := logging.StartSpan(ctx, "films.Recommendations")
	defer span.End()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	films, err := s.films.Recommendations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("recommend films: %w", err)
	}
	return films, nil
}

// Common returns films liked by both users, most liked first.
func (s *Service) Common(ctx context.Context, userID, friendID int64) ([]models.Film, error) {
	ctx, span := logging.StartSpan(ctx, "films.Common")
	defer span.End()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, friendID); err != nil {
		return nil, err
	}
	films, err := s.films.Common(ctx, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("common films: %w", err)
	}
	return films, nil
}

// ByDirector returns a director's films sorted by "year" or "likes".
func (s *Service) ByDirector(ctx context.Context, directorID int64, sortBy string) ([]models.Film, error) {
	sort, err := models.ParseDirectorSort(sortBy)
	if err != nil {
		return nil, err
	}

	ctx, span := logging.StartSpan(ctx, "films.ByDirector")
	defer span.End()

	if _, err := s.directors.FindByID(ctx, directorID); err != nil {
		return nil, fmt.Errorf("load director: %w", err)
	}
	films, err := s.films.ByDirector(ctx, directorID, sort)
	if err != nil {
		return nil, fmt.Errorf("director films: %w", err)
	}
	return films, nil
}

// Search finds films whose title and/or director name contains query.
// by is a comma separated list of "title" and "director".
func (s *Service) Search(ctx context.Context, query, by string) ([]models.Film, error) {
	scope, err := models.ParseSearchScope(by)
	if err != nil {
		return nil, err
	}

	ctx, span := logging.StartSpan(ctx, "films.Search")
	defer span.End()

	films, err := s.films.Search(ctx, query, scope)
	if err != nil {
		return nil, fmt.Errorf("search films: %w", err)
	}
	return films, nil
}
