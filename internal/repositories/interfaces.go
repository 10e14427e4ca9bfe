package repositories

import (
	"context"

	"github.com/filmorate/backend/internal/models"
)

// FilmRepository defines data access for films, their like ledger and rankings.
type FilmRepository interface {
	Create(ctx context.Context, film models.Film) (models.Film, error)
	Update(ctx context.Context, film models.Film) (models.Film, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (models.Film, error)
	List(ctx context.Context) ([]models.Film, error)

	// AddLike records the like and increments the film's counter atomically.
	// A repeated like fails with ErrDuplicateMark.
	AddLike(ctx context.Context, filmID, userID int64) (models.Event, error)
	// RemoveLike deletes the like and decrements the counter atomically. It
	// returns a nil event when there was no like to remove.
	RemoveLike(ctx context.Context, filmID, userID int64) (*models.Event, error)

	Popular(ctx context.Context, filter models.PopularFilter) ([]models.Film, error)
	Recommendations(ctx context.Context, userID int64) ([]models.Film, error)
	Common(ctx context.Context, userID, otherID int64) ([]models.Film, error)
	ByDirector(ctx context.Context, directorID int64, sort models.DirectorSort) ([]models.Film, error)
	Search(ctx context.Context, query string, scope models.SearchScope) ([]models.Film, error)
}

// UserRepository defines the data access contract for users and their friend edges.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	Update(ctx context.Context, user models.User) (models.User, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (models.User, error)
	List(ctx context.Context) ([]models.User, error)

	// AddFriend and RemoveFriend return a nil event when the edge was already
	// in the requested state.
	AddFriend(ctx context.Context, userID, friendID int64) (*models.Event, error)
	RemoveFriend(ctx context.Context, userID, friendID int64) (*models.Event, error)
	Friends(ctx context.Context, userID int64) ([]models.User, error)
	CommonFriends(ctx context.Context, userID, otherID int64) ([]models.User, error)
}

// ReviewRepository defines data access for reviews and the review mark ledger.
type ReviewRepository interface {
	Create(ctx context.Context, review models.Review) (models.Review, models.Event, error)
	Update(ctx context.Context, review models.Review) (models.Review, models.Event, error)
	Delete(ctx context.Context, id int64) (models.Event, error)
	FindByID(ctx context.Context, id int64) (models.Review, error)
	List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error)

	// AddMark inserts or flips the user's mark and adjusts usefulness in the
	// same transaction. Re-marking with the same polarity fails with
	// ErrDuplicateMark.
	AddMark(ctx context.Context, reviewID, userID int64, value models.MarkValue) error
	// RemoveMark deletes the mark only when it holds value. It reports whether
	// a mark was removed.
	RemoveMark(ctx context.Context, reviewID, userID int64, value models.MarkValue) (bool, error)
}

// FeedRepository exposes the read side of the activity log.
type FeedRepository interface {
	ListForUser(ctx context.Context, userID int64) ([]models.Event, error)
}

// GenreRepository reads the fixed genre dictionary.
type GenreRepository interface {
	FindByID(ctx context.Context, id int64) (models.Genre, error)
	List(ctx context.Context) ([]models.Genre, error)
}

// MpaRepository reads the fixed MPA rating dictionary.
type MpaRepository interface {
	FindByID(ctx context.Context, id int64) (models.Mpa, error)
	List(ctx context.Context) ([]models.Mpa, error)
}

// DirectorRepository defines data access for directors.
type DirectorRepository interface {
	Create(ctx context.Context, director models.Director) (models.Director, error)
	Update(ctx context.Context, director models.Director) (models.Director, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (models.Director, error)
	List(ctx context.Context) ([]models.Director, error)
}
