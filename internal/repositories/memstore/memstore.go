// Package memstore is an in-memory implementation of the repository
// interfaces. It mirrors the PostgreSQL semantics closely enough for service
// and handler tests: ids are assigned sequentially, missing references fail
// with repositories.ErrNotFound and every mutation is applied under one lock.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
)

type markKey struct {
	entityID int64
	userID   int64
}

// Store holds every table in memory.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	nextID map[string]int64

	users     map[int64]models.User
	films     map[int64]models.Film
	directors map[int64]models.Director
	genres    map[int64]models.Genre
	mpa       map[int64]models.Mpa
	reviews   map[int64]models.Review

	likes   map[markKey]struct{}
	marks   map[markKey]models.MarkValue
	friends map[markKey]struct{}
	events  []models.Event
}

// New returns a store seeded with the fixed genre and MPA dictionaries.
func New() *Store {
	s := &Store{
		now:       time.Now,
		nextID:    make(map[string]int64),
		users:     make(map[int64]models.User),
		films:     make(map[int64]models.Film),
		directors: make(map[int64]models.Director),
		genres:    make(map[int64]models.Genre),
		mpa:       make(map[int64]models.Mpa),
		reviews:   make(map[int64]models.Review),
		likes:     make(map[markKey]struct{}),
		marks:     make(map[markKey]models.MarkValue),
		friends:   make(map[markKey]struct{}),
	}
	for i, name := range []string{"Comedy", "Drama", "Animation", "Thriller", "Documentary", "Action"} {
		s.genres[int64(i+1)] = models.Genre{ID: int64(i + 1), Name: name}
	}
	for i, name := range []string{"G", "PG", "PG-13", "R", "NC-17"} {
		s.mpa[int64(i+1)] = models.Mpa{ID: int64(i + 1), Name: name}
	}
	return s
}

// Films returns a FilmRepository view of the store.
func (s *Store) Films() repositories.FilmRepository { return filmStore{s} }

// Users returns a UserRepository view of the store.
func (s *Store) Users() repositories.UserRepository { return userStore{s} }

// Reviews returns a ReviewRepository view of the store.
func (s *Store) Reviews() repositories.ReviewRepository { return reviewStore{s} }

// Feed returns a FeedRepository view of the store.
func (s *Store) Feed() repositories.FeedRepository { return feedStore{s} }

// Genres returns a GenreRepository view of the store.
func (s *Store) Genres() repositories.GenreRepository { return genreStore{s} }

// Mpa returns an MpaRepository view of the store.
func (s *Store) Mpa() repositories.MpaRepository { return mpaStore{s} }

// Directors returns a DirectorRepository view of the store.
func (s *Store) Directors() repositories.DirectorRepository { return directorStore{s} }

func (s *Store) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func (s *Store) appendEvent(e models.Event) models.Event {
	e.ID = s.id("events")
	e.Timestamp = s.now().UTC()
	s.events = append(s.events, e)
	return e
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, repositories.ErrNotFound)
}

// enrich returns a copy of f with its genre and director names resolved.
func (s *Store) enrich(f models.Film) models.Film {
	f.Mpa = s.mpa[f.Mpa.ID]

	genres := make([]models.Genre, 0, len(f.Genres))
	for _, g := range f.Genres {
		genres = append(genres, s.genres[g.ID])
	}
	f.Genres = genres

	directors := make([]models.Director, 0, len(f.Directors))
	for _, d := range f.Directors {
		if dir, ok := s.directors[d.ID]; ok {
			directors = append(directors, dir)
		}
	}
	f.Directors = directors
	return f
}

// normalise validates references and returns sorted, de-duplicated links.
func (s *Store) normalise(f models.Film) (models.Film, error) {
	if _, ok := s.mpa[f.Mpa.ID]; !ok {
		return models.Film{}, notFound("mpa", f.Mpa.ID)
	}

	seenGenre := make(map[int64]bool)
	var genres []models.Genre
	for _, g := range f.Genres {
		if _, ok := s.genres[g.ID]; !ok {
			return models.Film{}, notFound("genre", g.ID)
		}
		if !seenGenre[g.ID] {
			seenGenre[g.ID] = true
			genres = append(genres, models.Genre{ID: g.ID})
		}
	}
	slices.SortFunc(genres, func(a, b models.Genre) int { return cmp.Compare(a.ID, b.ID) })

	seenDirector := make(map[int64]bool)
	var directors []models.Director
	for _, d := range f.Directors {
		if _, ok := s.directors[d.ID]; !ok {
			return models.Film{}, notFound("director", d.ID)
		}
		if !seenDirector[d.ID] {
			seenDirector[d.ID] = true
			directors = append(directors, models.Director{ID: d.ID})
		}
	}
	slices.SortFunc(directors, func(a, b models.Director) int { return cmp.Compare(a.ID, b.ID) })

	f.Genres = genres
	f.Directors = directors
	return f, nil
}

func (s *Store) collectFilms(keep func(models.Film) bool) []models.Film {
	out := make([]models.Film, 0)
	for _, f := range s.films {
		if keep(f) {
			out = append(out, s.enrich(f))
		}
	}
	return out
}

func byID(a, b models.Film) int { return cmp.Compare(a.ID, b.ID) }

func byPopularity(a, b models.Film) int {
	if c := cmp.Compare(b.Likes, a.Likes); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (s *Store) likedBy(userID int64) map[int64]bool {
	liked := make(map[int64]bool)
	for k := range s.likes {
		if k.userID == userID {
			liked[k.entityID] = true
		}
	}
	return liked
}

type filmStore struct{ s *Store }

func (r filmStore) Create(_ context.Context, film models.Film) (models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	film, err := r.s.normalise(film)
	if err != nil {
		return models.Film{}, err
	}
	film.ID = r.s.id("films")
	film.Likes = 0
	r.s.films[film.ID] = film
	return r.s.enrich(film), nil
}

func (r filmStore) Update(_ context.Context, film models.Film) (models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.films[film.ID]
	if !ok {
		return models.Film{}, notFound("film", film.ID)
	}
	film, err := r.s.normalise(film)
	if err != nil {
		return models.Film{}, err
	}
	film.Likes = existing.Likes
	r.s.films[film.ID] = film
	return r.s.enrich(film), nil
}

func (r filmStore) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.films[id]; !ok {
		return notFound("film", id)
	}
	delete(r.s.films, id)
	for k := range r.s.likes {
		if k.entityID == id {
			delete(r.s.likes, k)
		}
	}
	for reviewID, review := range r.s.reviews {
		if review.FilmID == id {
			r.s.deleteReview(reviewID)
		}
	}
	return nil
}

func (r filmStore) FindByID(_ context.Context, id int64) (models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	film, ok := r.s.films[id]
	if !ok {
		return models.Film{}, notFound("film", id)
	}
	return r.s.enrich(film), nil
}

func (r filmStore) List(context.Context) ([]models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	films := r.s.collectFilms(func(models.Film) bool { return true })
	slices.SortFunc(films, byID)
	return films, nil
}

func (r filmStore) AddLike(_ context.Context, filmID, userID int64) (models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	film, ok := r.s.films[filmID]
	if !ok {
		return models.Event{}, notFound("film", filmID)
	}
	if _, ok := r.s.users[userID]; !ok {
		return models.Event{}, notFound("user", userID)
	}
	key := markKey{entityID: filmID, userID: userID}
	if _, ok := r.s.likes[key]; ok {
		return models.Event{}, fmt.Errorf("like film %d by user %d: %w", filmID, userID, repositories.ErrDuplicateMark)
	}

	r.s.likes[key] = struct{}{}
	film.Likes++
	r.s.films[filmID] = film
	return r.s.appendEvent(models.Event{
		UserID:    userID,
		EntityID:  filmID,
		Type:      models.EventLike,
		Operation: models.OperationAdd,
	}), nil
}

func (r filmStore) RemoveLike(_ context.Context, filmID, userID int64) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := markKey{entityID: filmID, userID: userID}
	if _, ok := r.s.likes[key]; !ok {
		return nil, nil
	}

	delete(r.s.likes, key)
	film := r.s.films[filmID]
	film.Likes--
	r.s.films[filmID] = film
	event := r.s.appendEvent(models.Event{
		UserID:    userID,
		EntityID:  filmID,
		Type:      models.EventLike,
		Operation: models.OperationRemove,
	})
	return &event, nil
}

func (r filmStore) Popular(_ context.Context, filter models.PopularFilter) ([]models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	films := r.s.collectFilms(func(f models.Film) bool {
		if filter.Year != 0 && f.ReleaseDate.Year() != filter.Year {
			return false
		}
		if filter.GenreID != 0 {
			return slices.ContainsFunc(f.Genres, func(g models.Genre) bool { return g.ID == filter.GenreID })
		}
		return true
	})
	slices.SortFunc(films, byPopularity)
	if len(films) > filter.Count {
		films = films[:filter.Count]
	}
	return films, nil
}

func (r filmStore) Recommendations(_ context.Context, userID int64) ([]models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	own := r.s.likedBy(userID)
	others := make(map[int64]bool)
	for k := range r.s.likes {
		if k.userID != userID {
			others[k.entityID] = true
		}
	}

	films := r.s.collectFilms(func(f models.Film) bool { return others[f.ID] && !own[f.ID] })
	slices.SortFunc(films, byID)
	return films, nil
}

func (r filmStore) Common(_ context.Context, userID, otherID int64) ([]models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, b := r.s.likedBy(userID), r.s.likedBy(otherID)
	films := r.s.collectFilms(func(f models.Film) bool { return a[f.ID] && b[f.ID] })
	slices.SortFunc(films, byPopularity)
	return films, nil
}

func (r filmStore) ByDirector(_ context.Context, directorID int64, sort models.DirectorSort) ([]models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	films := r.s.collectFilms(func(f models.Film) bool {
		return slices.ContainsFunc(f.Directors, func(d models.Director) bool { return d.ID == directorID })
	})
	if sort == models.SortByLikes {
		slices.SortFunc(films, byPopularity)
	} else {
		slices.SortFunc(films, func(a, b models.Film) int {
			if c := cmp.Compare(a.ReleaseDate.Year(), b.ReleaseDate.Year()); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	}
	return films, nil
}

func (r filmStore) Search(_ context.Context, query string, scope models.SearchScope) ([]models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	needle := strings.ToLower(query)
	films := r.s.collectFilms(func(f models.Film) bool {
		if scope.Title && strings.Contains(strings.ToLower(f.Name), needle) {
			return true
		}
		if scope.Director {
			for _, d := range f.Directors {
				if strings.Contains(strings.ToLower(r.s.directors[d.ID].Name), needle) {
					return true
				}
			}
		}
		return false
	})
	slices.SortFunc(films, byPopularity)
	return films, nil
}
