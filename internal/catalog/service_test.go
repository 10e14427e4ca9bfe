package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
	"github.com/filmorate/backend/internal/repositories/memstore"
)

func TestDictionaries(t *testing.T) {
	store := memstore.New()
	svc := NewService(store.Genres(), store.Mpa(), store.Directors())
	ctx := context.Background()

	genres, err := svc.Genres(ctx)
	if err != nil {
		t.Fatalf("genres: %v", err)
	}
	if len(genres) != models.MaxGenreID {
		t.Fatalf("expected %d genres, got %d", models.MaxGenreID, len(genres))
	}
	comedy, err := svc.Genre(ctx, 1)
	if err != nil {
		t.Fatalf("genre 1: %v", err)
	}
	if comedy.Name != "Comedy" {
		t.Fatalf("unexpected genre 1: %+v", comedy)
	}
	if _, err := svc.Genre(ctx, 99); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ratings, err := svc.Ratings(ctx)
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	var names []string
	for _, r := range ratings {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"G", "PG", "PG-13", "R", "NC-17"}, names); diff != "" {
		t.Fatalf("unexpected ratings (-want +got):\n%s", diff)
	}
	if _, err := svc.Rating(ctx, 0); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDirectorLifecycle(t *testing.T) {
	store := memstore.New()
	svc := NewService(store.Genres(), store.Mpa(), store.Directors())
	ctx := context.Background()

	mann, err := svc.CreateDirector(ctx, models.Director{Name: "Michael Mann"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	nolan, err := svc.CreateDirector(ctx, models.Director{Name: "Christopher Nolan"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	film, err := store.Films().Create(ctx, models.Film{
		Name:        "Collaboration",
		ReleaseDate: time.Date(2001, time.May, 1, 0, 0, 0, 0, time.UTC),
		Duration:    100,
		Mpa:         models.Mpa{ID: 1},
		Directors:   []models.Director{{ID: mann.ID}, {ID: nolan.ID}},
	})
	if err != nil {
		t.Fatalf("create film: %v", err)
	}

	if _, err := svc.UpdateDirector(ctx, models.Director{ID: mann.ID, Name: "M. Mann"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.UpdateDirector(ctx, models.Director{ID: 404, Name: "Nobody"}); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	if err := svc.DeleteDirector(ctx, nolan.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteDirector(ctx, nolan.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}

	reloaded, err := store.Films().FindByID(ctx, film.ID)
	if err != nil {
		t.Fatalf("reload film: %v", err)
	}
	want := []models.Director{{ID: mann.ID, Name: "M. Mann"}}
	if diff := cmp.Diff(want, reloaded.Directors); diff != "" {
		t.Fatalf("unexpected directors (-want +got):\n%s", diff)
	}

	directors, err := svc.Directors(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(want, directors); diff != "" {
		t.Fatalf("unexpected director list (-want +got):\n%s", diff)
	}
}
