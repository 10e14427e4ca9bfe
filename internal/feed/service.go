package feed

import (
	"context"
	"fmt"

	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
)

// Service reads a user's activity feed.
type Service struct {
	users  repositories.UserRepository
	events repositories.FeedRepository
}

// NewService constructs a feed service.
func NewService(users repositories.UserRepository, events repositories.FeedRepository) *Service {
	return &Service{users: users, events: events}
}

// ForUser returns the events performed by userID in the order they were
// appended. Unknown users are reported as repositories.ErrNotFound.
func (s *Service) ForUser(ctx context.Context, userID int64) ([]models.Event, error) {
	ctx, span := logging.StartSpan(ctx, "feed.ForUser")
	defer span.End()

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("load feed owner: %w", err)
	}

	events, err := s.events.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return events, nil
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, models.Event) {}
