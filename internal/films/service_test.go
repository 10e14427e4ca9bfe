package films

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
	"github.com/filmorate/backend/internal/repositories/memstore"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) operations() []models.Operation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Operation, len(p.events))
	for i, e := range p.events {
		out[i] = e.Operation
	}
	return out
}

type fixture struct {
	store     *memstore.Store
	service   *Service
	published *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memstore.New()
	published := &recordingPublisher{}
	return fixture{
		store:     store,
		published: published,
		service: NewService(Deps{
			Films:     store.Films(),
			Users:     store.Users(),
			Genres:    store.Genres(),
			Mpa:       store.Mpa(),
			Directors: store.Directors(),
			Events:    published,
		}),
	}
}

func (f fixture) user(t *testing.T, login string) models.User {
	t.Helper()
	user, err := f.store.Users().Create(context.Background(), models.User{Email: login + "@example.com", Login: login, Name: login})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (f fixture) film(t *testing.T, name string, year int, genres ...int64) models.Film {
	t.Helper()
	film := models.Film{
		Name:        name,
		ReleaseDate: time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC),
		Duration:    100,
		Mpa:         models.Mpa{ID: 1},
	}
	for _, id := range genres {
		film.Genres = append(film.Genres, models.Genre{ID: id})
	}
	created, err := f.service.Create(context.Background(), film)
	if err != nil {
		t.Fatalf("create film: %v", err)
	}
	return created
}

func ids(films []models.Film) []int64 {
	out := make([]int64, len(films))
	for i, f := range films {
		out[i] = f.ID
	}
	return out
}

func TestCreateResolvesReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, models.Film{
		Name:        "Heat",
		ReleaseDate: time.Date(1995, time.December, 15, 0, 0, 0, 0, time.UTC),
		Duration:    170,
		Mpa:         models.Mpa{ID: 4},
		Genres:      []models.Genre{{ID: 4}, {ID: 2}, {ID: 4}},
	})
	if err != nil {
		t.Fatalf("create film: %v", err)
	}
	if created.Mpa.Name != "R" {
		t.Fatalf("expected resolved mpa name, got %+v", created.Mpa)
	}
	want := []models.Genre{{ID: 2, Name: "Drama"}, {ID: 4, Name: "Thriller"}}
	if diff := cmp.Diff(want, created.Genres); diff != "" {
		t.Fatalf("unexpected genres (-want +got):\n%s", diff)
	}

	cases := []struct {
		name string
		film models.Film
	}{
		{name: "unknown mpa", film: models.Film{Name: "x", Mpa: models.Mpa{ID: 42}}},
		{name: "unknown genre", film: models.Film{Name: "x", Mpa: models.Mpa{ID: 1}, Genres: []models.Genre{{ID: 99}}}},
		{name: "unknown director", film: models.Film{Name: "x", Mpa: models.Mpa{ID: 1}, Directors: []models.Director{{ID: 5}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.service.Create(ctx, tc.film); !errors.Is(err, repositories.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestLikeCountTracksLikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	film := f.film(t, "Heat", 1995)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if err := f.service.AddLike(ctx, film.ID, alice.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	if err := f.service.AddLike(ctx, film.ID, alice.ID); !errors.Is(err, repositories.ErrDuplicateMark) {
		t.Fatalf("expected ErrDuplicateMark, got %v", err)
	}
	if err := f.service.AddLike(ctx, film.ID, bob.ID); err != nil {
		t.Fatalf("add second like: %v", err)
	}

	got, err := f.service.Get(ctx, film.ID)
	if err != nil {
		t.Fatalf("get film: %v", err)
	}
	if got.Likes != 2 {
		t.Fatalf("expected 2 likes, got %d", got.Likes)
	}

	if err := f.service.RemoveLike(ctx, film.ID, alice.ID); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	if err := f.service.RemoveLike(ctx, film.ID, alice.ID); err != nil {
		t.Fatalf("remove absent like: %v", err)
	}

	got, err = f.service.Get(ctx, film.ID)
	if err != nil {
		t.Fatalf("get film: %v", err)
	}
	if got.Likes != 1 {
		t.Fatalf("expected 1 like, got %d", got.Likes)
	}

	want := []models.Operation{models.OperationAdd, models.OperationAdd, models.OperationRemove}
	if diff := cmp.Diff(want, f.published.operations()); diff != "" {
		t.Fatalf("unexpected published events (-want +got):\n%s", diff)
	}
}

func TestLikeRequiresExistingFilmAndUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	film := f.film(t, "Heat", 1995)
	alice := f.user(t, "alice")

	if err := f.service.AddLike(ctx, film.ID+100, alice.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing film, got %v", err)
	}
	if err := f.service.AddLike(ctx, film.ID, alice.ID+100); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
	if err := f.service.RemoveLike(ctx, film.ID, alice.ID+100); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound removing for missing user, got %v", err)
	}
}

func TestConcurrentLikesKeepCountExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	film := f.film(t, "Heat", 1995)
	const users = 20
	var userIDs []int64
	for i := 0; i < users; i++ {
		userIDs = append(userIDs, f.user(t, "user"+string(rune('a'+i))).ID)
	}

	const attempts = 3
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for _, id := range userIDs {
		for attempt := 0; attempt < attempts; attempt++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				err := f.service.AddLike(ctx, film.ID, id)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
					return
				}
				failures = append(failures, err)
			}(id)
		}
	}
	wg.Wait()

	if succeeded != users {
		t.Fatalf("expected exactly %d likes to apply, got %d", users, succeeded)
	}
	if len(failures) != users*(attempts-1) {
		t.Fatalf("expected %d rejected repeats, got %d", users*(attempts-1), len(failures))
	}
	for _, err := range failures {
		if !errors.Is(err, repositories.ErrDuplicateMark) {
			t.Fatalf("expected repeats to fail with ErrDuplicateMark, got %v", err)
		}
	}

	got, err := f.service.Get(ctx, film.ID)
	if err != nil {
		t.Fatalf("get film: %v", err)
	}
	if got.Likes != users {
		t.Fatalf("expected %d likes, got %d", users, got.Likes)
	}
}

func TestPopularOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f1 := f.film(t, "One", 2001, 1)
	f2 := f.film(t, "Two", 2002, 2)
	f3 := f.film(t, "Three", 2002, 1, 2)
	alice := f.user(t, "alice")

	popular, err := f.service.Popular(ctx, models.PopularFilter{Count: 10})
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if diff := cmp.Diff([]int64{f1.ID, f2.ID, f3.ID}, ids(popular)); diff != "" {
		t.Fatalf("unexpected order with no likes (-want +got):\n%s", diff)
	}

	if err := f.service.AddLike(ctx, f2.ID, alice.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}

	popular, err = f.service.Popular(ctx, models.PopularFilter{Count: 10})
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if diff := cmp.Diff([]int64{f2.ID, f1.ID, f3.ID}, ids(popular)); diff != "" {
		t.Fatalf("unexpected order after like (-want +got):\n%s", diff)
	}

	cases := []struct {
		name   string
		filter models.PopularFilter
		want   []int64
	}{
		{name: "count caps", filter: models.PopularFilter{Count: 1}, want: []int64{f2.ID}},
		{name: "genre", filter: models.PopularFilter{Count: 10, GenreID: 1}, want: []int64{f1.ID, f3.ID}},
		{name: "year", filter: models.PopularFilter{Count: 10, Year: 2002}, want: []int64{f2.ID, f3.ID}},
		{name: "genre and year", filter: models.PopularFilter{Count: 10, GenreID: 1, Year: 2002}, want: []int64{f3.ID}},
		{name: "no match", filter: models.PopularFilter{Count: 10, Year: 1990}, want: []int64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.service.Popular(ctx, tc.filter)
			if err != nil {
				t.Fatalf("popular: %v", err)
			}
			if diff := cmp.Diff(tc.want, ids(got)); diff != "" {
				t.Fatalf("unexpected films (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvalidParametersRejectedBeforeStoreAccess(t *testing.T) {
	// A service without stores panics on any store access.
	service := NewService(Deps{})
	ctx := context.Background()

	for _, filter := range []models.PopularFilter{
		{Count: 0},
		{Count: -3},
		{Count: 10, GenreID: 7},
	} {
		if _, err := service.Popular(ctx, filter); !errors.Is(err, models.ErrInvalidParameter) {
			t.Fatalf("filter %+v: expected ErrInvalidParameter, got %v", filter, err)
		}
	}
	if _, err := service.ByDirector(ctx, 1, "rating"); !errors.Is(err, models.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for sort key, got %v", err)
	}
	if _, err := service.Search(ctx, "x", "title,genre"); !errors.Is(err, models.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for search scope, got %v", err)
	}
}

func TestRecommendationsExcludeOwnLikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	blockbuster := f.film(t, "Blockbuster", 2010)
	niche := f.film(t, "Niche", 2011)
	f.film(t, "Unseen", 2012)

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	for _, u := range []int64{alice.ID, bob.ID, carol.ID} {
		if err := f.service.AddLike(ctx, blockbuster.ID, u); err != nil {
			t.Fatalf("like blockbuster: %v", err)
		}
	}
	if err := f.service.AddLike(ctx, niche.ID, bob.ID); err != nil {
		t.Fatalf("like niche: %v", err)
	}

	got, err := f.service.Recommendations(ctx, alice.ID)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if diff := cmp.Diff([]int64{niche.ID}, ids(got)); diff != "" {
		t.Fatalf("unexpected recommendations (-want +got):\n%s", diff)
	}

	common, err := f.service.Common(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("common: %v", err)
	}
	if diff := cmp.Diff([]int64{blockbuster.ID}, ids(common)); diff != "" {
		t.Fatalf("unexpected common films (-want +got):\n%s", diff)
	}

	if _, err := f.service.Recommendations(ctx, carol.ID+100); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestDirectorFilmsAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nolan, err := f.store.Directors().Create(ctx, models.Director{Name: "Christopher Nolan"})
	if err != nil {
		t.Fatalf("create director: %v", err)
	}

	mk := func(name string, year int) models.Film {
		film, err := f.service.Create(ctx, models.Film{
			Name:        name,
			ReleaseDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			Duration:    120,
			Mpa:         models.Mpa{ID: 3},
			Directors:   []models.Director{{ID: nolan.ID}},
		})
		if err != nil {
			t.Fatalf("create film: %v", err)
		}
		return film
	}
	tenet := mk("Tenet", 2020)
	memento := mk("Memento", 2000)
	nolanDoc := f.film(t, "Nolan: A Portrait", 2015)

	alice := f.user(t, "alice")
	if err := f.service.AddLike(ctx, tenet.ID, alice.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}

	byYear, err := f.service.ByDirector(ctx, nolan.ID, "YEAR")
	if err != nil {
		t.Fatalf("by year: %v", err)
	}
	if diff := cmp.Diff([]int64{memento.ID, tenet.ID}, ids(byYear)); diff != "" {
		t.Fatalf("unexpected year order (-want +got):\n%s", diff)
	}

	byLikes, err := f.service.ByDirector(ctx, nolan.ID, "likes")
	if err != nil {
		t.Fatalf("by likes: %v", err)
	}
	if diff := cmp.Diff([]int64{tenet.ID, memento.ID}, ids(byLikes)); diff != "" {
		t.Fatalf("unexpected likes order (-want +got):\n%s", diff)
	}

	if _, err := f.service.ByDirector(ctx, nolan.ID+1, "year"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown director, got %v", err)
	}

	both, err := f.service.Search(ctx, "nolan", "director,title")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if diff := cmp.Diff([]int64{tenet.ID, memento.ID, nolanDoc.ID}, ids(both)); diff != "" {
		t.Fatalf("unexpected search results (-want +got):\n%s", diff)
	}
	for _, film := range both {
		if film.Genres == nil || film.Directors == nil {
			t.Fatalf("expected enriched film, got %+v", film)
		}
	}

	titles, err := f.service.Search(ctx, "nolan", "title")
	if err != nil {
		t.Fatalf("search titles: %v", err)
	}
	if diff := cmp.Diff([]int64{nolanDoc.ID}, ids(titles)); diff != "" {
		t.Fatalf("unexpected title results (-want +got):\n%s", diff)
	}
}

func TestUpdatePreservesLikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	film := f.film(t, "Heat", 1995)
	alice := f.user(t, "alice")
	if err := f.service.AddLike(ctx, film.ID, alice.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}

	film.Name = "Heat (Director's Cut)"
	film.Likes = 0
	updated, err := f.service.Update(ctx, film)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Likes != 1 || updated.Name != "Heat (Director's Cut)" {
		t.Fatalf("unexpected updated film: %+v", updated)
	}

	film.ID += 100
	if _, err := f.service.Update(ctx, film); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown film, got %v", err)
	}
}
