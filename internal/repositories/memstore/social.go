package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
)

type userStore struct{ s *Store }

func (r userStore) Create(_ context.Context, user models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.ID = r.s.id("users")
	r.s.users[user.ID] = user
	return user, nil
}

func (r userStore) Update(_ context.Context, user models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return models.User{}, notFound("user", user.ID)
	}
	r.s.users[user.ID] = user
	return user, nil
}

func (r userStore) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return notFound("user", id)
	}

	for k := range r.s.likes {
		if k.userID == id {
			film := r.s.films[k.entityID]
			film.Likes--
			r.s.films[k.entityID] = film
			delete(r.s.likes, k)
		}
	}
	for k, mark := range r.s.marks {
		if k.userID == id {
			review := r.s.reviews[k.entityID]
			review.Useful -= int64(mark)
			r.s.reviews[k.entityID] = review
			delete(r.s.marks, k)
		}
	}
	for reviewID, review := range r.s.reviews {
		if review.UserID == id {
			r.s.deleteReview(reviewID)
		}
	}
	for k := range r.s.friends {
		if k.userID == id || k.entityID == id {
			delete(r.s.friends, k)
		}
	}
	r.s.events = slices.DeleteFunc(r.s.events, func(e models.Event) bool { return e.UserID == id })
	delete(r.s.users, id)
	return nil
}

func (r userStore) FindByID(_ context.Context, id int64) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, notFound("user", id)
	}
	return user, nil
}

func (r userStore) List(context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.collectUsers(func(models.User) bool { return true }), nil
}

func (r userStore) AddFriend(_ context.Context, userID, friendID int64) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return nil, notFound("user", userID)
	}
	if _, ok := r.s.users[friendID]; !ok {
		return nil, notFound("user", friendID)
	}
	key := markKey{entityID: friendID, userID: userID}
	if _, ok := r.s.friends[key]; ok {
		return nil, nil
	}
	r.s.friends[key] = struct{}{}
	event := r.s.appendEvent(models.Event{
		UserID:    userID,
		EntityID:  friendID,
		Type:      models.EventFriend,
		Operation: models.OperationAdd,
	})
	return &event, nil
}

func (r userStore) RemoveFriend(_ context.Context, userID, friendID int64) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := markKey{entityID: friendID, userID: userID}
	if _, ok := r.s.friends[key]; !ok {
		return nil, nil
	}
	delete(r.s.friends, key)
	event := r.s.appendEvent(models.Event{
		UserID:    userID,
		EntityID:  friendID,
		Type:      models.EventFriend,
		Operation: models.OperationRemove,
	})
	return &event, nil
}

func (r userStore) Friends(_ context.Context, userID int64) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.collectUsers(func(u models.User) bool {
		_, ok := r.s.friends[markKey{entityID: u.ID, userID: userID}]
		return ok
	}), nil
}

func (r userStore) CommonFriends(_ context.Context, userID, otherID int64) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.collectUsers(func(u models.User) bool {
		_, a := r.s.friends[markKey{entityID: u.ID, userID: userID}]
		_, b := r.s.friends[markKey{entityID: u.ID, userID: otherID}]
		return a && b
	}), nil
}

func (s *Store) collectUsers(keep func(models.User) bool) []models.User {
	out := make([]models.User, 0)
	for _, u := range s.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// deleteReview drops a review and its marks. Callers hold the lock.
func (s *Store) deleteReview(id int64) {
	delete(s.reviews, id)
	for k := range s.marks {
		if k.entityID == id {
			delete(s.marks, k)
		}
	}
}

type reviewStore struct{ s *Store }

func (r reviewStore) Create(_ context.Context, review models.Review) (models.Review, models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[review.UserID]; !ok {
		return models.Review{}, models.Event{}, notFound("user", review.UserID)
	}
	if _, ok := r.s.films[review.FilmID]; !ok {
		return models.Review{}, models.Event{}, notFound("film", review.FilmID)
	}
	review.ID = r.s.id("reviews")
	review.Useful = 0
	r.s.reviews[review.ID] = review
	event := r.s.appendEvent(models.Event{
		UserID:    review.UserID,
		EntityID:  review.ID,
		Type:      models.EventReview,
		Operation: models.OperationAdd,
	})
	return review, event, nil
}

func (r reviewStore) Update(_ context.Context, review models.Review) (models.Review, models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.reviews[review.ID]
	if !ok {
		return models.Review{}, models.Event{}, notFound("review", review.ID)
	}
	stored.Content = review.Content
	stored.IsPositive = review.IsPositive
	r.s.reviews[stored.ID] = stored
	event := r.s.appendEvent(models.Event{
		UserID:    stored.UserID,
		EntityID:  stored.ID,
		Type:      models.EventReview,
		Operation: models.OperationUpdate,
	})
	return stored, event, nil
}

func (r reviewStore) Delete(_ context.Context, id int64) (models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.reviews[id]
	if !ok {
		return models.Event{}, notFound("review", id)
	}
	r.s.deleteReview(id)
	return r.s.appendEvent(models.Event{
		UserID:    stored.UserID,
		EntityID:  id,
		Type:      models.EventReview,
		Operation: models.OperationRemove,
	}), nil
}

func (r reviewStore) FindByID(_ context.Context, id int64) (models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	review, ok := r.s.reviews[id]
	if !ok {
		return models.Review{}, notFound("review", id)
	}
	return review, nil
}

func (r reviewStore) List(_ context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Review, 0)
	for _, review := range r.s.reviews {
		if filter.FilmID == 0 || review.FilmID == filter.FilmID {
			out = append(out, review)
		}
	}
	slices.SortFunc(out, func(a, b models.Review) int {
		if c := cmp.Compare(b.Useful, a.Useful); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > filter.Count {
		out = out[:filter.Count]
	}
	return out, nil
}

func (r reviewStore) AddMark(_ context.Context, reviewID, userID int64, value models.MarkValue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	review, ok := r.s.reviews[reviewID]
	if !ok {
		return notFound("review", reviewID)
	}
	if _, ok := r.s.users[userID]; !ok {
		return notFound("user", userID)
	}

	key := markKey{entityID: reviewID, userID: userID}
	current, ok := r.s.marks[key]
	switch {
	case !ok:
		review.Useful += int64(value)
	case current == value:
		return fmt.Errorf("%s review %d by user %d: %w", value, reviewID, userID, repositories.ErrDuplicateMark)
	default:
		review.Useful += 2 * int64(value)
	}
	r.s.marks[key] = value
	r.s.reviews[reviewID] = review
	return nil
}

func (r reviewStore) RemoveMark(_ context.Context, reviewID, userID int64, value models.MarkValue) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := markKey{entityID: reviewID, userID: userID}
	if current, ok := r.s.marks[key]; !ok || current != value {
		return false, nil
	}
	delete(r.s.marks, key)
	review := r.s.reviews[reviewID]
	review.Useful -= int64(value)
	r.s.reviews[reviewID] = review
	return true, nil
}

type feedStore struct{ s *Store }

func (r feedStore) ListForUser(_ context.Context, userID int64) ([]models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Event, 0)
	for _, e := range r.s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type genreStore struct{ s *Store }

func (r genreStore) FindByID(_ context.Context, id int64) (models.Genre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	genre, ok := r.s.genres[id]
	if !ok {
		return models.Genre{}, notFound("genre", id)
	}
	return genre, nil
}

func (r genreStore) List(context.Context) ([]models.Genre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return sortedValues(r.s.genres, func(g models.Genre) int64 { return g.ID }), nil
}

type mpaStore struct{ s *Store }

func (r mpaStore) FindByID(_ context.Context, id int64) (models.Mpa, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rating, ok := r.s.mpa[id]
	if !ok {
		return models.Mpa{}, notFound("mpa", id)
	}
	return rating, nil
}

func (r mpaStore) List(context.Context) ([]models.Mpa, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return sortedValues(r.s.mpa, func(m models.Mpa) int64 { return m.ID }), nil
}

type directorStore struct{ s *Store }

func (r directorStore) Create(_ context.Context, director models.Director) (models.Director, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	director.ID = r.s.id("directors")
	r.s.directors[director.ID] = director
	return director, nil
}

func (r directorStore) Update(_ context.Context, director models.Director) (models.Director, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.directors[director.ID]; !ok {
		return models.Director{}, notFound("director", director.ID)
	}
	r.s.directors[director.ID] = director
	return director, nil
}

func (r directorStore) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.directors[id]; !ok {
		return notFound("director", id)
	}
	delete(r.s.directors, id)
	for filmID, film := range r.s.films {
		film.Directors = slices.DeleteFunc(film.Directors, func(d models.Director) bool { return d.ID == id })
		r.s.films[filmID] = film
	}
	return nil
}

func (r directorStore) FindByID(_ context.Context, id int64) (models.Director, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	director, ok := r.s.directors[id]
	if !ok {
		return models.Director{}, notFound("director", id)
	}
	return director, nil
}

func (r directorStore) List(context.Context) ([]models.Director, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return sortedValues(r.s.directors, func(d models.Director) int64 { return d.ID }), nil
}

func sortedValues[T any](m map[int64]T, key func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(key(a), key(b)) })
	return out
}
