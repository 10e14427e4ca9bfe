package handlers

import (
	"time"

	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/validation"
)

type namedResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type idRef struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type filmRequest struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name" validate:"required,notblank"`
	Description string  `json:"description" validate:"max=200"`
	ReleaseDate string  `json:"releaseDate" validate:"required,datetime=2006-01-02,cinemadate"`
	Duration    int     `json:"duration" validate:"gt=0"`
	Mpa         *idRef  `json:"mpa" validate:"required"`
	Genres      []idRef `json:"genres" validate:"dive"`
	Directors   []idRef `json:"directors" validate:"dive"`
}

func (req filmRequest) model() models.Film {
	released, _ := time.Parse(validation.DateLayout, req.ReleaseDate)
	film := models.Film{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		ReleaseDate: released,
		Duration:    req.Duration,
		Mpa:         models.Mpa{ID: req.Mpa.ID},
		Genres:      make([]models.Genre, 0, len(req.Genres)),
		Directors:   make([]models.Director, 0, len(req.Directors)),
	}
	for _, g := range req.Genres {
		film.Genres = append(film.Genres, models.Genre{ID: g.ID})
	}
	for _, d := range req.Directors {
		film.Directors = append(film.Directors, models.Director{ID: d.ID})
	}
	return film
}

type filmResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ReleaseDate string          `json:"releaseDate"`
	Duration    int             `json:"duration"`
	Mpa         namedResponse   `json:"mpa"`
	Genres      []namedResponse `json:"genres"`
	Directors   []namedResponse `json:"directors"`
	Likes       int64           `json:"likes"`
}

func newFilmResponse(f models.Film) filmResponse {
	resp := filmResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		ReleaseDate: f.ReleaseDate.Format(validation.DateLayout),
		Duration:    f.Duration,
		Mpa:         namedResponse{ID: f.Mpa.ID, Name: f.Mpa.Name},
		Genres:      make([]namedResponse, 0, len(f.Genres)),
		Directors:   make([]namedResponse, 0, len(f.Directors)),
		Likes:       f.Likes,
	}
	for _, g := range f.Genres {
		resp.Genres = append(resp.Genres, namedResponse{ID: g.ID, Name: g.Name})
	}
	for _, d := range f.Directors {
		resp.Directors = append(resp.Directors, namedResponse{ID: d.ID, Name: d.Name})
	}
	return resp
}

func newFilmResponses(films []models.Film) []filmResponse {
	out := make([]filmResponse, 0, len(films))
	for _, f := range films {
		out = append(out, newFilmResponse(f))
	}
	return out
}

type userRequest struct {
	ID       int64  `json:"id"`
	Email    string `json:"email" validate:"required,email"`
	Login    string `json:"login" validate:"required,notblank,nospaces"`
	Name     string `json:"name"`
	Birthday string `json:"birthday" validate:"omitempty,datetime=2006-01-02,notfuture"`
}

func (req userRequest) model() models.User {
	user := models.User{ID: req.ID, Email: req.Email, Login: req.Login, Name: req.Name}
	if req.Birthday != "" {
		user.Birthday, _ = time.Parse(validation.DateLayout, req.Birthday)
	}
	return user
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	Name     string `json:"name"`
	Birthday string `json:"birthday,omitempty"`
}

func newUserResponse(u models.User) userResponse {
	resp := userResponse{ID: u.ID, Email: u.Email, Login: u.Login, Name: u.Name}
	if !u.Birthday.IsZero() {
		resp.Birthday = u.Birthday.Format(validation.DateLayout)
	}
	return resp
}

func newUserResponses(users []models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

type reviewRequest struct {
	ReviewID   int64  `json:"reviewId"`
	Content    string `json:"content" validate:"required,notblank"`
	IsPositive *bool  `json:"isPositive" validate:"required"`
	UserID     *int64 `json:"userId" validate:"required"`
	FilmID     *int64 `json:"filmId" validate:"required"`
}

func (req reviewRequest) model() models.Review {
	return models.Review{
		ID:         req.ReviewID,
		Content:    req.Content,
		IsPositive: *req.IsPositive,
		UserID:     *req.UserID,
		FilmID:     *req.FilmID,
	}
}

type reviewResponse struct {
	ReviewID   int64  `json:"reviewId"`
	Content    string `json:"content"`
	IsPositive bool   `json:"isPositive"`
	UserID     int64  `json:"userId"`
	FilmID     int64  `json:"filmId"`
	Useful     int64  `json:"useful"`
}

func newReviewResponse(r models.Review) reviewResponse {
	return reviewResponse{
		ReviewID:   r.ID,
		Content:    r.Content,
		IsPositive: r.IsPositive,
		UserID:     r.UserID,
		FilmID:     r.FilmID,
		Useful:     r.Useful,
	}
}

func newReviewResponses(reviews []models.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, newReviewResponse(r))
	}
	return out
}

type directorRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required,notblank"`
}

// eventResponse carries the timestamp as epoch milliseconds.
type eventResponse struct {
	EventID   int64  `json:"eventId"`
	UserID    int64  `json:"userId"`
	EntityID  int64  `json:"entityId"`
	EventType string `json:"eventType"`
	Operation string `json:"operation"`
	Timestamp int64  `json:"timestamp"`
}

func newEventResponses(events []models.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			EventID:   e.ID,
			UserID:    e.UserID,
			EntityID:  e.EntityID,
			EventType: string(e.Type),
			Operation: string(e.Operation),
			Timestamp: e.Timestamp.UnixMilli(),
		})
	}
	return out
}
