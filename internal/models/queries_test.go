package models

import (
	"errors"
	"testing"
)

func TestPopularFilterValidate(t *testing.T) {
	cases := []struct {
		name   string
		filter PopularFilter
		ok     bool
	}{
		{name: "defaults", filter: PopularFilter{Count: 10}, ok: true},
		{name: "genre and year", filter: PopularFilter{Count: 1, GenreID: MaxGenreID, Year: 1999}, ok: true},
		{name: "largest year", filter: PopularFilter{Count: 1, Year: MaxYear}, ok: true},
		{name: "zero count", filter: PopularFilter{Count: 0}},
		{name: "negative count", filter: PopularFilter{Count: -3}},
		{name: "genre below range", filter: PopularFilter{Count: 1, GenreID: -1}},
		{name: "genre above range", filter: PopularFilter{Count: 1, GenreID: MaxGenreID + 1}},
		{name: "negative year", filter: PopularFilter{Count: 1, Year: -1}},
		{name: "year past the column range", filter: PopularFilter{Count: 1, Year: 3_000_000_000}},
		{name: "five digit year", filter: PopularFilter{Count: 1, Year: MaxYear + 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.filter.Validate()
			if tc.ok {
				if err != nil {
					t.Fatalf("expected filter to be valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestParseDirectorSort(t *testing.T) {
	for raw, want := range map[string]DirectorSort{"year": SortByYear, " Likes ": SortByLikes} {
		got, err := ParseDirectorSort(raw)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %q, %v", raw, got, err)
		}
	}
	if _, err := ParseDirectorSort("rating"); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestParseSearchScope(t *testing.T) {
	scope, err := ParseSearchScope("title,director")
	if err != nil || !scope.Title || !scope.Director {
		t.Fatalf("unexpected scope %+v, %v", scope, err)
	}
	if _, err := ParseSearchScope("title,year"); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}
