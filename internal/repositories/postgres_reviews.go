package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/filmorate/backend/internal/db"
	"github.com/filmorate/backend/internal/models"
)

const reviewColumns = `id, content, is_positive, user_id, film_id, useful`

func scanReview(row pgx.CollectableRow) (models.Review, error) {
	var review models.Review
	err := row.Scan(&review.ID, &review.Content, &review.IsPositive, &review.UserID, &review.FilmID, &review.Useful)
	return review, err
}

func queryReviews(ctx context.Context, q querier, action, sql string, args ...any) ([]models.Review, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	reviews, err := pgx.CollectRows(rows, scanReview)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return reviews, nil
}

// PostgresReviewRepository provides PostgreSQL-backed persistence for reviews
// and their usefulness marks.
type PostgresReviewRepository struct {
	pool db.Pool
}

// NewPostgresReviewRepository constructs a review repository backed by PostgreSQL.
func NewPostgresReviewRepository(pool db.Pool) *PostgresReviewRepository {
	return &PostgresReviewRepository{pool: pool}
}

// Create stores a review with zero usefulness and appends REVIEW/ADD.
func (r *PostgresReviewRepository) Create(ctx context.Context, review models.Review) (models.Review, models.Event, error) {
	var event models.Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
            INSERT INTO reviews (content, is_positive, user_id, film_id)
            VALUES ($1, $2, $3, $4)
            RETURNING id, useful
        `, review.Content, review.IsPositive, review.UserID, review.FilmID).Scan(&review.ID, &review.Useful)
		if err != nil {
			return translate(err, ErrConflict, "insert review")
		}

		event, err = insertEvent(ctx, tx, models.Event{
			UserID:    review.UserID,
			EntityID:  review.ID,
			Type:      models.EventReview,
			Operation: models.OperationAdd,
		})
		return err
	})
	if err != nil {
		return models.Review{}, models.Event{}, err
	}
	return review, event, nil
}

// Update changes the content and polarity of a review. Author, film and
// usefulness are preserved, and the REVIEW/UPDATE event is attributed to the
// stored author.
func (r *PostgresReviewRepository) Update(ctx context.Context, review models.Review) (models.Review, models.Event, error) {
	var (
		updated models.Review
		event   models.Event
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		reviews, err := queryReviews(ctx, tx, "update review", `
            UPDATE reviews
            SET content = $2, is_positive = $3
            WHERE id = $1
            RETURNING `+reviewColumns, review.ID, review.Content, review.IsPositive)
		if err != nil {
			return err
		}
		updated, err = exactlyOne(reviews, fmt.Sprintf("review %d", review.ID))
		if err != nil {
			return err
		}

		event, err = insertEvent(ctx, tx, models.Event{
			UserID:    updated.UserID,
			EntityID:  updated.ID,
			Type:      models.EventReview,
			Operation: models.OperationUpdate,
		})
		return err
	})
	if err != nil {
		return models.Review{}, models.Event{}, err
	}
	return updated, event, nil
}

// Delete removes a review and its marks and appends REVIEW/REMOVE for the author.
func (r *PostgresReviewRepository) Delete(ctx context.Context, id int64) (models.Event, error) {
	var event models.Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var authorID int64
		err := tx.QueryRow(ctx, `DELETE FROM reviews WHERE id = $1 RETURNING user_id`, id).Scan(&authorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("delete review %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("delete review: %w", err)
		}

		event, err = insertEvent(ctx, tx, models.Event{
			UserID:    authorID,
			EntityID:  id,
			Type:      models.EventReview,
			Operation: models.OperationRemove,
		})
		return err
	})
	if err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// FindByID fetches a single review.
func (r *PostgresReviewRepository) FindByID(ctx context.Context, id int64) (models.Review, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Review{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	reviews, err := queryReviews(ctx, conn, "select review by id", `
        SELECT `+reviewColumns+`
        FROM reviews
        WHERE id = $1
    `, id)
	if err != nil {
		return models.Review{}, err
	}
	return exactlyOne(reviews, fmt.Sprintf("review %d", id))
}

// List returns up to filter.Count reviews, most useful first, optionally
// restricted to one film.
func (r *PostgresReviewRepository) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryReviews(ctx, conn, "list reviews", `
        SELECT `+reviewColumns+`
        FROM reviews
        WHERE $1::INT8 = 0 OR film_id = $1
        ORDER BY useful DESC, id ASC
        LIMIT $2
    `, filter.FilmID, filter.Count)
}

// AddMark applies the user's mark and the usefulness delta: +/-1 for a new
// mark, +/-2 for a flip. The insert uses ON CONFLICT DO NOTHING so a mark
// committed concurrently by the same user is read back and flipped rather
// than reported as a duplicate.
func (r *PostgresReviewRepository) AddMark(ctx context.Context, reviewID, userID int64, value models.MarkValue) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		delta, err := applyMark(ctx, tx, reviewID, userID, value)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `UPDATE reviews SET useful = useful + $2 WHERE id = $1`, reviewID, delta)
		if err != nil {
			return fmt.Errorf("adjust usefulness: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("adjust usefulness of review %d: %w", reviewID, ErrNotFound)
		}
		return nil
	})
}

// RemoveMark deletes the user's mark only when it has the given polarity and
// withdraws its contribution to usefulness.
func (r *PostgresReviewRepository) RemoveMark(ctx context.Context, reviewID, userID int64, value models.MarkValue) (bool, error) {
	var removed bool
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM review_marks
            WHERE review_id = $1 AND user_id = $2 AND mark = $3
        `, reviewID, userID, int16(value))
		if err != nil {
			return fmt.Errorf("delete review mark: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, `UPDATE reviews SET useful = useful - $2 WHERE id = $1`, reviewID, int64(value)); err != nil {
			return fmt.Errorf("adjust usefulness: %w", err)
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

const markAttempts = 2

// applyMark returns the usefulness delta of setting the mark. A mark deleted
// between the insert and the locking read is retried once.
func applyMark(ctx context.Context, tx pgx.Tx, reviewID, userID int64, value models.MarkValue) (int64, error) {
	for attempt := 0; attempt < markAttempts; attempt++ {
		tag, err := tx.Exec(ctx, `
            INSERT INTO review_marks (review_id, user_id, mark)
            VALUES ($1, $2, $3)
            ON CONFLICT (review_id, user_id) DO NOTHING
        `, reviewID, userID, int16(value))
		if err != nil {
			return 0, translate(err, ErrDuplicateMark, "insert review mark")
		}
		if tag.RowsAffected() == 1 {
			return int64(value), nil
		}

		var current int16
		err = tx.QueryRow(ctx, `
            SELECT mark
            FROM review_marks
            WHERE review_id = $1 AND user_id = $2
            FOR UPDATE
        `, reviewID, userID).Scan(&current)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			continue
		case err != nil:
			return 0, fmt.Errorf("select review mark: %w", err)
		case models.MarkValue(current) == value:
			return 0, fmt.Errorf("%s review %d by user %d: %w", value, reviewID, userID, ErrDuplicateMark)
		}

		if _, err := tx.Exec(ctx, `
            UPDATE review_marks
            SET mark = $3
            WHERE review_id = $1 AND user_id = $2
        `, reviewID, userID, int16(value)); err != nil {
			return 0, fmt.Errorf("flip review mark: %w", err)
		}
		return 2 * int64(value), nil
	}
	return 0, fmt.Errorf("mark review %d by user %d: concurrent removal after %d attempts", reviewID, userID, markAttempts)
}
