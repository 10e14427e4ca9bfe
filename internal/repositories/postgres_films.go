package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/filmorate/backend/internal/db"
	"github.com/filmorate/backend/internal/models"
)

const filmSelect = `
        SELECT f.id, f.name, f.description, f.release_date, f.duration, f.likes, m.id, m.name
        FROM films f
        JOIN mpa m ON m.id = f.mpa_id`

func scanFilm(row pgx.CollectableRow) (models.Film, error) {
	var film models.Film
	err := row.Scan(
		&film.ID,
		&film.Name,
		&film.Description,
		&film.ReleaseDate,
		&film.Duration,
		&film.Likes,
		&film.Mpa.ID,
		&film.Mpa.Name,
	)
	return film, err
}

// queryFilms runs a film select and attaches genres and directors to every row.
func queryFilms(ctx context.Context, q querier, action, sql string, args ...any) ([]models.Film, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	films, err := pgx.CollectRows(rows, scanFilm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	if err := attachRelations(ctx, q, films); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return films, nil
}

// attachRelations loads genres and directors for films with one query each.
func attachRelations(ctx context.Context, q querier, films []models.Film) error {
	if len(films) == 0 {
		return nil
	}

	ids := make([]int64, len(films))
	index := make(map[int64]int, len(films))
	for i := range films {
		ids[i] = films[i].ID
		index[films[i].ID] = i
		films[i].Genres = []models.Genre{}
		films[i].Directors = []models.Director{}
	}

	rows, err := q.Query(ctx, `
        SELECT fg.film_id, g.id, g.name
        FROM film_genres fg
        JOIN genres g ON g.id = fg.genre_id
        WHERE fg.film_id = ANY($1)
        ORDER BY fg.film_id, g.id
    `, ids)
	if err != nil {
		return fmt.Errorf("select film genres: %w", err)
	}
	var filmID int64
	var genre models.Genre
	_, err = pgx.ForEachRow(rows, []any{&filmID, &genre.ID, &genre.Name}, func() error {
		i := index[filmID]
		films[i].Genres = append(films[i].Genres, genre)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan film genres: %w", err)
	}

	rows, err = q.Query(ctx, `
        SELECT fd.film_id, d.id, d.name
        FROM film_directors fd
        JOIN directors d ON d.id = fd.director_id
        WHERE fd.film_id = ANY($1)
        ORDER BY fd.film_id, d.id
    `, ids)
	if err != nil {
		return fmt.Errorf("select film directors: %w", err)
	}
	var director models.Director
	_, err = pgx.ForEachRow(rows, []any{&filmID, &director.ID, &director.Name}, func() error {
		i := index[filmID]
		films[i].Directors = append(films[i].Directors, director)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan film directors: %w", err)
	}

	return nil
}

// replaceRelations rewrites the genre and director links of a film.
func replaceRelations(ctx context.Context, tx pgx.Tx, film models.Film) error {
	if _, err := tx.Exec(ctx, `DELETE FROM film_genres WHERE film_id = $1`, film.ID); err != nil {
		return fmt.Errorf("clear film genres: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM film_directors WHERE film_id = $1`, film.ID); err != nil {
		return fmt.Errorf("clear film directors: %w", err)
	}

	if len(film.Genres) > 0 {
		ids := make([]int64, len(film.Genres))
		for i, g := range film.Genres {
			ids[i] = g.ID
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO film_genres (film_id, genre_id)
            SELECT $1, unnest($2::INT8[])
            ON CONFLICT DO NOTHING
        `, film.ID, ids); err != nil {
			return translate(err, ErrConflict, "insert film genres")
		}
	}

	if len(film.Directors) > 0 {
		ids := make([]int64, len(film.Directors))
		for i, d := range film.Directors {
			ids[i] = d.ID
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO film_directors (film_id, director_id)
            SELECT $1, unnest($2::INT8[])
            ON CONFLICT DO NOTHING
        `, film.ID, ids); err != nil {
			return translate(err, ErrConflict, "insert film directors")
		}
	}

	return nil
}

func findFilm(ctx context.Context, q querier, id int64) (models.Film, error) {
	films, err := queryFilms(ctx, q, "select film by id", filmSelect+`
        WHERE f.id = $1
    `, id)
	if err != nil {
		return models.Film{}, err
	}
	return exactlyOne(films, fmt.Sprintf("film %d", id))
}

// PostgresFilmRepository provides PostgreSQL-backed persistence for films and
// the like ledger.
type PostgresFilmRepository struct {
	pool db.Pool
}

// NewPostgresFilmRepository constructs a film repository backed by PostgreSQL.
func NewPostgresFilmRepository(pool db.Pool) *PostgresFilmRepository {
	return &PostgresFilmRepository{pool: pool}
}

// Create persists a film together with its genre and director links.
func (r *PostgresFilmRepository) Create(ctx context.Context, film models.Film) (models.Film, error) {
	var created models.Film
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
            INSERT INTO films (name, description, release_date, duration, mpa_id)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id
        `, film.Name, film.Description, film.ReleaseDate, film.Duration, film.Mpa.ID).Scan(&film.ID)
		if err != nil {
			return translate(err, ErrConflict, "insert film")
		}
		if err := replaceRelations(ctx, tx, film); err != nil {
			return err
		}
		created, err = findFilm(ctx, tx, film.ID)
		return err
	})
	if err != nil {
		return models.Film{}, err
	}
	return created, nil
}

// Update overwrites the film's attributes and links. The like counter is
// left untouched.
func (r *PostgresFilmRepository) Update(ctx context.Context, film models.Film) (models.Film, error) {
	var updated models.Film
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE films
            SET name = $2, description = $3, release_date = $4, duration = $5, mpa_id = $6
            WHERE id = $1
        `, film.ID, film.Name, film.Description, film.ReleaseDate, film.Duration, film.Mpa.ID)
		if err != nil {
			return translate(err, ErrConflict, "update film")
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("update film %d: %w", film.ID, ErrNotFound)
		}
		if err := replaceRelations(ctx, tx, film); err != nil {
			return err
		}
		updated, err = findFilm(ctx, tx, film.ID)
		return err
	})
	if err != nil {
		return models.Film{}, err
	}
	return updated, nil
}

// Delete removes a film and, through cascades, its likes and reviews.
func (r *PostgresFilmRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM films WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete film: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete film %d: %w", id, ErrNotFound)
	}
	return nil
}

// FindByID fetches a single enriched film.
func (r *PostgresFilmRepository) FindByID(ctx context.Context, id int64) (models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Film{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return findFilm(ctx, conn, id)
}

// List returns every film ordered by id.
func (r *PostgresFilmRepository) List(ctx context.Context) ([]models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryFilms(ctx, conn, "list films", filmSelect+`
        ORDER BY f.id
    `)
}

// AddLike inserts the like mark, increments the counter and appends the
// LIKE/ADD event in one transaction.
func (r *PostgresFilmRepository) AddLike(ctx context.Context, filmID, userID int64) (models.Event, error) {
	var event models.Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            INSERT INTO film_likes (film_id, user_id)
            VALUES ($1, $2)
        `, filmID, userID); err != nil {
			return translate(err, ErrDuplicateMark, "insert like")
		}

		if _, err := tx.Exec(ctx, `UPDATE films SET likes = likes + 1 WHERE id = $1`, filmID); err != nil {
			return fmt.Errorf("increment likes: %w", err)
		}

		var err error
		event, err = insertEvent(ctx, tx, models.Event{
			UserID:    userID,
			EntityID:  filmID,
			Type:      models.EventLike,
			Operation: models.OperationAdd,
		})
		return err
	})
	if err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// RemoveLike deletes the like mark, decrements the counter and appends the
// LIKE/REMOVE event in one transaction. Nothing changes when no like exists.
func (r *PostgresFilmRepository) RemoveLike(ctx context.Context, filmID, userID int64) (*models.Event, error) {
	var event *models.Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM film_likes
            WHERE film_id = $1 AND user_id = $2
        `, filmID, userID)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, `UPDATE films SET likes = likes - 1 WHERE id = $1`, filmID); err != nil {
			return fmt.Errorf("decrement likes: %w", err)
		}

		recorded, err := insertEvent(ctx, tx, models.Event{
			UserID:    userID,
			EntityID:  filmID,
			Type:      models.EventLike,
			Operation: models.OperationRemove,
		})
		if err != nil {
			return err
		}
		event = &recorded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Popular returns up to filter.Count films ordered by likes descending with
// ties broken by ascending id.
func (r *PostgresFilmRepository) Popular(ctx context.Context, filter models.PopularFilter) ([]models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryFilms(ctx, conn, "select popular films", filmSelect+`
        WHERE ($1::INT8 = 0 OR EXISTS (
                SELECT 1 FROM film_genres fg WHERE fg.film_id = f.id AND fg.genre_id = $1
            ))
          AND ($2::INT4 = 0 OR EXTRACT(YEAR FROM f.release_date)::INT4 = $2)
        ORDER BY f.likes DESC, f.id ASC
        LIMIT $3
    `, filter.GenreID, filter.Year, filter.Count)
}

// Recommendations returns films liked by anyone other than userID that userID
// has not liked, ordered by id.
func (r *PostgresFilmRepository) Recommendations(ctx context.Context, userID int64) ([]models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryFilms(ctx, conn, "select recommendations", filmSelect+`
        WHERE EXISTS (SELECT 1 FROM film_likes l WHERE l.film_id = f.id AND l.user_id <> $1)
          AND NOT EXISTS (SELECT 1 FROM film_likes l WHERE l.film_id = f.id AND l.user_id = $1)
        ORDER BY f.id
    `, userID)
}

// Common returns films liked by both users ordered by popularity.
func (r *PostgresFilmRepository) Common(ctx context.Context, userID, otherID int64) ([]models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryFilms(ctx, conn, "select common films", filmSelect+`
        WHERE EXISTS (SELECT 1 FROM film_likes l WHERE l.film_id = f.id AND l.user_id = $1)
          AND EXISTS (SELECT 1 FROM film_likes l WHERE l.film_id = f.id AND l.user_id = $2)
        ORDER BY f.likes DESC, f.id ASC
    `, userID, otherID)
}

// ByDirector returns the director's films ordered by release year or likes.
func (r *PostgresFilmRepository) ByDirector(ctx context.Context, directorID int64, sort models.DirectorSort) ([]models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	order := `ORDER BY EXTRACT(YEAR FROM f.release_date) ASC, f.id ASC`
	if sort == models.SortByLikes {
		order = `ORDER BY f.likes DESC, f.id ASC`
	}

	return queryFilms(ctx, conn, "select director films", filmSelect+`
        WHERE EXISTS (
            SELECT 1 FROM film_directors fd WHERE fd.film_id = f.id AND fd.director_id = $1
        )
        `+order, directorID)
}

// Search matches query as a case-insensitive substring of the film title,
// a director name, or both. Each film appears once.
func (r *PostgresFilmRepository) Search(ctx context.Context, query string, scope models.SearchScope) ([]models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryFilms(ctx, conn, "search films", filmSelect+`
        WHERE ($2::BOOL AND f.name ILIKE $1)
           OR ($3::BOOL AND EXISTS (
                SELECT 1
                FROM film_directors fd
                JOIN directors d ON d.id = fd.director_id
                WHERE fd.film_id = f.id AND d.name ILIKE $1
            ))
        ORDER BY f.likes DESC, f.id ASC
    `, likePattern(query), scope.Title, scope.Director)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
