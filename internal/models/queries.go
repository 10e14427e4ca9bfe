package models

import (
	"fmt"
	"strings"
)

const (
	// MinGenreID and MaxGenreID bound the fixed genre dictionary.
	MinGenreID = 1
	MaxGenreID = 6

	// MaxYear bounds the release year filter.
	MaxYear = 9999
)

// PopularFilter selects the most liked films. Zero GenreID or Year means the
// filter is not applied.
type PopularFilter struct {
	Count   int
	GenreID int64
	Year    int
}

// Validate rejects non-positive counts, genre ids outside the dictionary and
// years outside 1..MaxYear.
func (f PopularFilter) Validate() error {
	if f.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidParameter, f.Count)
	}
	if f.GenreID != 0 && (f.GenreID < MinGenreID || f.GenreID > MaxGenreID) {
		return fmt.Errorf("%w: genreId must be between %d and %d, got %d", ErrInvalidParameter, MinGenreID, MaxGenreID, f.GenreID)
	}
	if f.Year < 0 || f.Year > MaxYear {
		return fmt.Errorf("%w: year must be between 1 and %d, got %d", ErrInvalidParameter, MaxYear, f.Year)
	}
	return nil
}

// DirectorSort orders a director's films.
type DirectorSort string

const (
	// SortByYear orders by release year ascending, then id ascending.
	SortByYear DirectorSort = "year"
	// SortByLikes orders by like count descending, then id ascending.
	SortByLikes DirectorSort = "likes"
)

// ParseDirectorSort accepts "year" or "likes" in any letter case.
func ParseDirectorSort(raw string) (DirectorSort, error) {
	switch DirectorSort(strings.ToLower(strings.TrimSpace(raw))) {
	case SortByYear:
		return SortByYear, nil
	case SortByLikes:
		return SortByLikes, nil
	default:
		return "", fmt.Errorf("%w: sortBy must be year or likes, got %q", ErrInvalidParameter, raw)
	}
}

// SearchScope selects which film attributes a search query is matched against.
type SearchScope struct {
	Title    bool
	Director bool
}

// ParseSearchScope parses a comma separated list of "title" and "director".
func ParseSearchScope(raw string) (SearchScope, error) {
	var scope SearchScope
	for _, part := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "title":
			scope.Title = true
		case "director":
			scope.Director = true
		default:
			return SearchScope{}, fmt.Errorf("%w: by must list title and/or director, got %q", ErrInvalidParameter, raw)
		}
	}
	return scope, nil
}

// ReviewFilter selects reviews, optionally for a single film.
type ReviewFilter struct {
	FilmID int64
	Count  int
}

// Validate rejects non-positive counts and negative film ids.
func (f ReviewFilter) Validate() error {
	if f.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidParameter, f.Count)
	}
	if f.FilmID < 0 {
		return fmt.Errorf("%w: filmId must be positive, got %d", ErrInvalidParameter, f.FilmID)
	}
	return nil
}
