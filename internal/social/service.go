// Package social manages user accounts and the directed friend graph.
package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/filmorate/backend/internal/feed"
	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
)

// Service exposes user CRUD and friend edge operations.
type Service struct {
	users  repositories.UserRepository
	events feed.Publisher
}

// NewService constructs a social service. A nil publisher discards events.
func NewService(users repositories.UserRepository, events feed.Publisher) *Service {
	if events == nil {
		events = feed.Discard{}
	}
	return &Service{users: users, events: events}
}

// withDisplayName falls back to the login when no name was given.
func withDisplayName(user models.User) models.User {
	if strings.TrimSpace(user.Name) == "" {
		user.Name = user.Login
	}
	return user
}

// Create registers a user.
func (s *Service) Create(ctx context.Context, user models.User) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "social.Create")
	defer span.End()

	created, err := s.users.Create(ctx, withDisplayName(user))
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Update replaces a user's profile.
func (s *Service) Update(ctx context.Context, user models.User) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "social.Update")
	defer span.End()

	updated, err := s.users.Update(ctx, withDisplayName(user))
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// Delete removes a user and withdraws their likes and review marks.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := logging.StartSpan(ctx, "social.Delete")
	defer span.End()

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id int64) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// List returns every user ordered by id.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) requireUsers(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		if _, err := s.users.FindByID(ctx, id); err != nil {
			return fmt.Errorf("load user: %w", err)
		}
	}
	return nil
}

// AddFriend creates the edge userID -> friendID. The reverse edge is not
// implied. Adding an existing edge changes nothing.
func (s *Service) AddFriend(ctx context.Context, userID, friendID int64) error {
	ctx, span := logging.StartSpan(ctx, "social.AddFriend")
	defer span.End()

	if err := s.requireUsers(ctx, userID, friendID); err != nil {
		return err
	}
	event, err := s.users.AddFriend(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("add friend: %w", err)
	}
	if event != nil {
		s.events.Publish(ctx, *event)
	}
	return nil
}

// RemoveFriend deletes only the edge userID -> friendID.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	ctx, span := logging.StartSpan(ctx, "social.RemoveFriend")
	defer span.End()

	if err := s.requireUsers(ctx, userID, friendID); err != nil {
		return err
	}
	event, err := s.users.RemoveFriend(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("remove friend: %w", err)
	}
	if event != nil {
		s.events.Publish(ctx, *event)
	}
	return nil
}

// Friends lists the users userID has an edge to.
func (s *Service) Friends(ctx context.Context, userID int64) ([]models.User, error) {
	if err := s.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	friends, err := s.users.Friends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// CommonFriends lists users both userID and otherID have an edge to.
func (s *Service) CommonFriends(ctx context.Context, userID, otherID int64) ([]models.User, error) {
	if err := s.requireUsers(ctx, userID, otherID); err != nil {
		return nil, err
	}
	common, err := s.users.CommonFriends(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("list common friends: %w", err)
	}
	return common, nil
}
