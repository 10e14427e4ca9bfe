package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/filmorate/backend/internal/db"
	"github.com/filmorate/backend/internal/models"
)

// querier is satisfied by both pooled connections and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// insertEvent appends an activity event inside the caller's transaction and
// returns it with the store-assigned id and timestamp.
func insertEvent(ctx context.Context, q querier, event models.Event) (models.Event, error) {
	err := q.QueryRow(ctx, `
        INSERT INTO events (user_id, entity_id, event_type, operation)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `, event.UserID, event.EntityID, string(event.Type), string(event.Operation)).Scan(&event.ID, &event.Timestamp)
	if err != nil {
		return models.Event{}, translate(err, ErrConflict, "insert event")
	}
	return event, nil
}

const userColumns = `u.id, u.email, u.login, u.name, u.birthday`

func scanUser(row pgx.CollectableRow) (models.User, error) {
	var (
		user     models.User
		birthday *time.Time
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Login, &user.Name, &birthday); err != nil {
		return models.User{}, err
	}
	if birthday != nil {
		user.Birthday = *birthday
	}
	return user, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func queryUsers(ctx context.Context, q querier, action, sql string, args ...any) ([]models.User, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return users, nil
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users and
// their friend edges.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record and returns it with its assigned id.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
        INSERT INTO users (email, login, name, birthday)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, user.Email, user.Login, user.Name, nullableDate(user.Birthday)).Scan(&user.ID)
	if err != nil {
		return models.User{}, translate(err, ErrConflict, "insert user")
	}

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, login = $3, name = $4, birthday = $5
        WHERE id = $1
    `, user.ID, user.Email, user.Login, user.Name, nullableDate(user.Birthday))
	if err != nil {
		return models.User{}, translate(err, ErrConflict, "update user")
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, fmt.Errorf("update user %d: %w", user.ID, ErrNotFound)
	}

	return user, nil
}

// Delete removes the user. The user's likes and review marks are withdrawn
// from the film and review counters in the same transaction, before the
// cascading delete drops the ledger rows.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            UPDATE films
            SET likes = likes - 1
            WHERE id IN (SELECT film_id FROM film_likes WHERE user_id = $1)
        `, id); err != nil {
			return fmt.Errorf("withdraw user likes: %w", err)
		}

		if _, err := tx.Exec(ctx, `
            UPDATE reviews AS r
            SET useful = r.useful - m.mark
            FROM review_marks AS m
            WHERE m.review_id = r.id AND m.user_id = $1
        `, id); err != nil {
			return fmt.Errorf("withdraw user marks: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("delete user %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// FindByID fetches a single user.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	users, err := queryUsers(ctx, conn, "select user by id", `
        SELECT `+userColumns+`
        FROM users u
        WHERE u.id = $1
    `, id)
	if err != nil {
		return models.User{}, err
	}
	return exactlyOne(users, fmt.Sprintf("user %d", id))
}

// List returns every user ordered by id.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryUsers(ctx, conn, "list users", `
        SELECT `+userColumns+`
        FROM users u
        ORDER BY u.id
    `)
}

// AddFriend records the directed edge userID -> friendID.
func (r *PostgresUserRepository) AddFriend(ctx context.Context, userID, friendID int64) (*models.Event, error) {
	var event *models.Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            INSERT INTO friendships (user_id, friend_id)
            VALUES ($1, $2)
            ON CONFLICT (user_id, friend_id) DO NOTHING
        `, userID, friendID)
		if err != nil {
			return translate(err, ErrConflict, "insert friendship")
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		recorded, err := insertEvent(ctx, tx, models.Event{
			UserID:    userID,
			EntityID:  friendID,
			Type:      models.EventFriend,
			Operation: models.OperationAdd,
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

// RemoveFriend deletes only the directed edge userID -> friendID.
func (r *PostgresUserRepository) RemoveFriend(ctx context.Context, userID, friendID int64) (*models.Event, error) {
	var event *models.Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM friendships
            WHERE user_id = $1 AND friend_id = $2
        `, userID, friendID)
		if err != nil {
			return fmt.Errorf("delete friendship: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		recorded, err := insertEvent(ctx, tx, models.Event{
			UserID:    userID,
			EntityID:  friendID,
			Type:      models.EventFriend,
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

// Friends lists the targets of the user's outbound edges.
func (r *PostgresUserRepository) Friends(ctx context.Context, userID int64) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryUsers(ctx, conn, "list friends", `
        SELECT `+userColumns+`
        FROM users u
        JOIN friendships f ON f.friend_id = u.id
        WHERE f.user_id = $1
        ORDER BY u.id
    `, userID)
}

// CommonFriends lists users both userID and otherID have outbound edges to.
func (r *PostgresUserRepository) CommonFriends(ctx context.Context, userID, otherID int64) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryUsers(ctx, conn, "list common friends", `
        SELECT `+userColumns+`
        FROM users u
        JOIN friendships a ON a.friend_id = u.id AND a.user_id = $1
        JOIN friendships b ON b.friend_id = u.id AND b.user_id = $2
        ORDER BY u.id
    `, userID, otherID)
}

// PostgresFeedRepository reads the activity log.
type PostgresFeedRepository struct {
	pool db.Pool
}

// NewPostgresFeedRepository constructs a feed repository backed by PostgreSQL.
func NewPostgresFeedRepository(pool db.Pool) *PostgresFeedRepository {
	return &PostgresFeedRepository{pool: pool}
}

// ListForUser returns the events the user performed in append order.
func (r *PostgresFeedRepository) ListForUser(ctx context.Context, userID int64) ([]models.Event, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, entity_id, event_type, operation, created_at
        FROM events
        WHERE user_id = $1
        ORDER BY id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("select feed: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Event, error) {
		var (
			event     models.Event
			eventType string
			operation string
		)
		if err := row.Scan(&event.ID, &event.UserID, &event.EntityID, &eventType, &operation, &event.Timestamp); err != nil {
			return models.Event{}, err
		}
		event.Type = models.EventType(eventType)
		event.Operation = models.Operation(operation)
		return event, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	return events, nil
}
