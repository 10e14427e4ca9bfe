// Package reviews manages film reviews and the like/dislike marks that drive
// their usefulness score.
package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/filmorate/backend/internal/feed"
	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/metrics"
	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
)

// DefaultCount is the number of reviews listed when no count is given.
const DefaultCount = 10

// Service coordinates reviews with the users and films they reference.
type Service struct {
	reviews repositories.ReviewRepository
	users   repositories.UserRepository
	films   repositories.FilmRepository
	events  feed.Publisher
}

// NewService constructs a review service. A nil publisher discards events.
func NewService(reviews repositories.ReviewRepository, users repositories.UserRepository, films repositories.FilmRepository, events feed.Publisher) *Service {
	if events == nil {
		events = feed.Discard{}
	}
	return &Service{reviews: reviews, users: users, films: films, events: events}
}

// Create stores a review by an existing user about an existing film.
func (s *Service) Create(ctx context.Context, review models.Review) (models.Review, error) {
	ctx, span := logging.StartSpan(ctx, "reviews.Create")
	defer span.End()

	if _, err := s.users.FindByID(ctx, review.UserID); err != nil {
		return models.Review{}, fmt.Errorf("load review author: %w", err)
	}
	if _, err := s.films.FindByID(ctx, review.FilmID); err != nil {
		return models.Review{}, fmt.Errorf("load reviewed film: %w", err)
	}

	created, event, err := s.reviews.Create(ctx, review)
	if err != nil {
		return models.Review{}, fmt.Errorf("create review: %w", err)
	}
	s.events.Publish(ctx, event)
	return created, nil
}

// Update changes a review's content and polarity. The author and film of the
// stored review are kept whatever the caller sent.
func (s *Service) Update(ctx context.Context, review models.Review) (models.Review, error) {
	ctx, span := logging.StartSpan(ctx, "reviews.Update")
	defer span.End()

	updated, event, err := s.reviews.Update(ctx, review)
	if err != nil {
		return models.Review{}, fmt.Errorf("update review: %w", err)
	}
	s.events.Publish(ctx, event)
	return updated, nil
}

// Delete removes a review and its marks.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := logging.StartSpan(ctx, "reviews.Delete")
	defer span.End()

	event, err := s.reviews.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	s.events.Publish(ctx, event)
	return nil
}

// Get returns a single review.
func (s *Service) Get(ctx context.Context, id int64) (models.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return models.Review{}, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// List returns the most useful reviews, optionally for one film.
func (s *Service) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *Service) requireParticipants(ctx context.Context, reviewID, userID int64) error {
	if _, err := s.reviews.FindByID(ctx, reviewID); err != nil {
		return fmt.Errorf("load review: %w", err)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	return nil
}

// AddMark records userID's like or dislike of a review. Repeating the same
// mark fails with repositories.ErrDuplicateMark; the opposite mark replaces it.
func (s *Service) AddMark(ctx context.Context, reviewID, userID int64, value models.MarkValue) error {
	ctx, span := logging.StartSpan(ctx, "reviews.AddMark")
	defer span.End()

	if !value.Valid() {
		return fmt.Errorf("%w: mark %d", models.ErrInvalidParameter, value)
	}
	if err := s.requireParticipants(ctx, reviewID, userID); err != nil {
		return err
	}

	operation := "review_" + value.String() + "_add"
	err := s.reviews.AddMark(ctx, reviewID, userID, value)
	switch {
	case errors.Is(err, repositories.ErrDuplicateMark):
		metrics.RecordLedger(operation, metrics.OutcomeDuplicate)
		return fmt.Errorf("add %s: %w", value, err)
	case err != nil:
		metrics.RecordLedger(operation, metrics.OutcomeError)
		return fmt.Errorf("add %s: %w", value, err)
	}
	metrics.RecordLedger(operation, metrics.OutcomeApplied)
	return nil
}

// RemoveMark withdraws userID's mark only if it has the given polarity.
func (s *Service) RemoveMark(ctx context.Context, reviewID, userID int64, value models.MarkValue) error {
	ctx, span := logging.StartSpan(ctx, "reviews.RemoveMark")
	defer span.End()

	if !value.Valid() {
		return fmt.Errorf("%w: mark %d", models.ErrInvalidParameter, value)
	}
	if err := s.requireParticipants(ctx, reviewID, userID); err != nil {
		return err
	}

	operation := "review_" + value.String() + "_remove"
	removed, err := s.reviews.RemoveMark(ctx, reviewID, userID, value)
	if err != nil {
		metrics.RecordLedger(operation, metrics.OutcomeError)
		return fmt.Errorf("remove %s: %w", value, err)
	}
	if !removed {
		metrics.RecordLedger(operation, metrics.OutcomeNoop)
		return nil
	}
	metrics.RecordLedger(operation, metrics.OutcomeApplied)
	return nil
}
