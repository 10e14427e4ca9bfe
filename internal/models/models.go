package models

import (
	"errors"
	"time"
)

// ErrInvalidParameter indicates a caller-supplied query parameter is out of range
// or unrecognised. It is raised before any store access.
var ErrInvalidParameter = errors.New("invalid parameter")

// Mpa is one of the fixed motion picture ratings.
type Mpa struct {
	ID   int64
	Name string
}

// Genre is one of the fixed film genres.
type Genre struct {
	ID   int64
	Name string
}

// Director is a film director.
type Director struct {
	ID   int64
	Name string
}

// Film is a catalogued film. Likes mirrors the number of like-marks currently
// stored for the film and is maintained by the store, never by callers.
type Film struct {
	ID          int64
	Name        string
	Description string
	ReleaseDate time.Time
	Duration    int
	Mpa         Mpa
	Genres      []Genre
	Directors   []Director
	Likes       int64
}

// User is an account that can like films, follow other users and write reviews.
type User struct {
	ID       int64
	Email    string
	Login    string
	Name     string
	Birthday time.Time
}

// Review is a user's written opinion of a film. Useful is the running sum of
// the review's marks.
type Review struct {
	ID         int64
	Content    string
	IsPositive bool
	UserID     int64
	FilmID     int64
	Useful     int64
}

// MarkValue is the signed polarity of a review mark.
type MarkValue int

const (
	MarkLike    MarkValue = 1
	MarkDislike MarkValue = -1
)

// Valid reports whether v is a known polarity.
func (v MarkValue) Valid() bool {
	return v == MarkLike || v == MarkDislike
}

func (v MarkValue) String() string {
	switch v {
	case MarkLike:
		return "like"
	case MarkDislike:
		return "dislike"
	default:
		return "unknown"
	}
}

// EventType names the kind of entity an activity event is about.
type EventType string

const (
	EventFriend EventType = "FRIEND"
	EventLike   EventType = "LIKE"
	EventReview EventType = "REVIEW"
)

// Operation names what happened to the entity.
type Operation string

const (
	OperationAdd    Operation = "ADD"
	OperationRemove Operation = "REMOVE"
	OperationUpdate Operation = "UPDATE"
)

// Event is an immutable activity record. UserID is the acting user, whose feed
// the event belongs to; EntityID is the subject of the action.
type Event struct {
	ID        int64
	UserID    int64
	EntityID  int64
	Type      EventType
	Operation Operation
	Timestamp time.Time
}
