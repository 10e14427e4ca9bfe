// Package catalog serves the fixed genre and MPA dictionaries and manages
// directors.
package catalog

import (
	"context"
	"fmt"

	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
)

// Service exposes dictionary lookups and director maintenance.
type Service struct {
	genres    repositories.GenreRepository
	mpa       repositories.MpaRepository
	directors repositories.DirectorRepository
}

// NewService constructs a catalog service.
func NewService(genres repositories.GenreRepository, mpa repositories.MpaRepository, directors repositories.DirectorRepository) *Service {
	return &Service{genres: genres, mpa: mpa, directors: directors}
}

func (s *Service) Genre(ctx context.Context, id int64) (models.Genre, error) {
	genre, err := s.genres.FindByID(ctx, id)
	if err != nil {
		return models.Genre{}, fmt.Errorf("get genre: %w", err)
	}
	return genre, nil
}

func (s *Service) Genres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.genres.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return genres, nil
}

func (s *Service) Rating(ctx context.Context, id int64) (models.Mpa, error) {
	rating, err := s.mpa.FindByID(ctx, id)
	if err != nil {
		return models.Mpa{}, fmt.Errorf("get mpa: %w", err)
	}
	return rating, nil
}

func (s *Service) Ratings(ctx context.Context) ([]models.Mpa, error) {
	ratings, err := s.mpa.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mpa: %w", err)
	}
	return ratings, nil
}

// CreateDirector stores a new director.
func (s *Service) CreateDirector(ctx context.Context, director models.Director) (models.Director, error) {
	created, err := s.directors.Create(ctx, director)
	if err != nil {
		return models.Director{}, fmt.Errorf("create director: %w", err)
	}
	return created, nil
}

// UpdateDirector renames an existing director.
func (s *Service) UpdateDirector(ctx context.Context, director models.Director) (models.Director, error) {
	updated, err := s.directors.Update(ctx, director)
	if err != nil {
		return models.Director{}, fmt.Errorf("update director: %w", err)
	}
	return updated, nil
}

// DeleteDirector removes a director. Films keep their other directors.
func (s *Service) DeleteDirector(ctx context.Context, id int64) error {
	if err := s.directors.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete director: %w", err)
	}
	return nil
}

func (s *Service) Director(ctx context.Context, id int64) (models.Director, error) {
	director, err := s.directors.FindByID(ctx, id)
	if err != nil {
		return models.Director{}, fmt.Errorf("get director: %w", err)
	}
	return director, nil
}

func (s *Service) Directors(ctx context.Context) ([]models.Director, error) {
	directors, err := s.directors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list directors: %w", err)
	}
	return directors, nil
}
