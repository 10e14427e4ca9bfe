package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/filmorate/backend/internal/db"
	"github.com/filmorate/backend/internal/models"
)

// PostgresGenreRepository reads the genre dictionary.
type PostgresGenreRepository struct {
	pool db.Pool
}

// NewPostgresGenreRepository constructs a genre repository backed by PostgreSQL.
func NewPostgresGenreRepository(pool db.Pool) *PostgresGenreRepository {
	return &PostgresGenreRepository{pool: pool}
}

func (r *PostgresGenreRepository) FindByID(ctx context.Context, id int64) (models.Genre, error) {
	genres, err := listNamed[models.Genre](ctx, r.pool, "select genre", `SELECT id, name FROM genres WHERE id = $1`, id)
	if err != nil {
		return models.Genre{}, err
	}
	return exactlyOne(genres, fmt.Sprintf("genre %d", id))
}

func (r *PostgresGenreRepository) List(ctx context.Context) ([]models.Genre, error) {
	return listNamed[models.Genre](ctx, r.pool, "list genres", `SELECT id, name FROM genres ORDER BY id`)
}

// PostgresMpaRepository reads the MPA rating dictionary.
type PostgresMpaRepository struct {
	pool db.Pool
}

// NewPostgresMpaRepository constructs an MPA repository backed by PostgreSQL.
func NewPostgresMpaRepository(pool db.Pool) *PostgresMpaRepository {
	return &PostgresMpaRepository{pool: pool}
}

func (r *PostgresMpaRepository) FindByID(ctx context.Context, id int64) (models.Mpa, error) {
	ratings, err := listNamed[models.Mpa](ctx, r.pool, "select mpa", `SELECT id, name FROM mpa WHERE id = $1`, id)
	if err != nil {
		return models.Mpa{}, err
	}
	return exactlyOne(ratings, fmt.Sprintf("mpa %d", id))
}

func (r *PostgresMpaRepository) List(ctx context.Context) ([]models.Mpa, error) {
	return listNamed[models.Mpa](ctx, r.pool, "list mpa", `SELECT id, name FROM mpa ORDER BY id`)
}

// PostgresDirectorRepository provides PostgreSQL-backed persistence for directors.
type PostgresDirectorRepository struct {
	pool db.Pool
}

// NewPostgresDirectorRepository constructs a director repository backed by PostgreSQL.
func NewPostgresDirectorRepository(pool db.Pool) *PostgresDirectorRepository {
	return &PostgresDirectorRepository{pool: pool}
}

// Create persists a director and returns it with its assigned id.
func (r *PostgresDirectorRepository) Create(ctx context.Context, director models.Director) (models.Director, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Director{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `INSERT INTO directors (name) VALUES ($1) RETURNING id`, director.Name).Scan(&director.ID)
	if err != nil {
		return models.Director{}, translate(err, ErrConflict, "insert director")
	}
	return director, nil
}

// Update renames a director.
func (r *PostgresDirectorRepository) Update(ctx context.Context, director models.Director) (models.Director, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Director{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE directors SET name = $2 WHERE id = $1`, director.ID, director.Name)
	if err != nil {
		return models.Director{}, translate(err, ErrConflict, "update director")
	}
	if tag.RowsAffected() == 0 {
		return models.Director{}, fmt.Errorf("update director %d: %w", director.ID, ErrNotFound)
	}
	return director, nil
}

// Delete removes a director and unlinks it from every film.
func (r *PostgresDirectorRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM directors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete director: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete director %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *PostgresDirectorRepository) FindByID(ctx context.Context, id int64) (models.Director, error) {
	directors, err := listNamed[models.Director](ctx, r.pool, "select director", `SELECT id, name FROM directors WHERE id = $1`, id)
	if err != nil {
		return models.Director{}, err
	}
	return exactlyOne(directors, fmt.Sprintf("director %d", id))
}

func (r *PostgresDirectorRepository) List(ctx context.Context) ([]models.Director, error) {
	return listNamed[models.Director](ctx, r.pool, "list directors", `SELECT id, name FROM directors ORDER BY id`)
}

// listNamed scans (id, name) rows into any of the dictionary types.
func listNamed[T models.Genre | models.Mpa | models.Director](ctx context.Context, pool db.Pool, action, sql string, args ...any) ([]T, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return items, nil
}
