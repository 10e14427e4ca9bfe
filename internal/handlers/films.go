package handlers

import (
	"fmt"
	"net/http"

	"github.com/filmorate/backend/internal/films"
	"github.com/filmorate/backend/internal/models"
)

// DefaultPopularCount is used when GET /films/popular omits count.
const DefaultPopularCount = 10

// FilmHandler serves the film catalog, likes and rankings.
type FilmHandler struct {
	Films *films.Service
}

// Create handles POST /films.
func (h FilmHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req filmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	film, err := h.Films.Create(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newFilmResponse(film))
}

// Update handles PUT /films.
func (h FilmHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req filmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.ID <= 0 {
		respondError(ctx, w, fmt.Errorf("%w: id is required", models.ErrInvalidParameter))
		return
	}

	film, err := h.Films.Update(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmResponse(film))
}

// Get handles GET /films/{id}.
func (h FilmHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	film, err := h.Films.Get(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmResponse(film))
}

// List handles GET /films.
func (h FilmHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	all, err := h.Films.List(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmResponses(all))
}

// Delete handles DELETE /films/{id}.
func (h FilmHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Films.Delete(ctx, id); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLike handles PUT /films/{id}/like/{userId}.
func (h FilmHandler) AddLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := pathIDs(r, "id", "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Films.AddLike(ctx, ids[0], ids[1]); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveLike handles DELETE /films/{id}/like/{userId}.
func (h FilmHandler) RemoveLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := pathIDs(r, "id", "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Films.RemoveLike(ctx, ids[0], ids[1]); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Popular handles GET /films/popular?count=&genreId=&year=.
func (h FilmHandler) Popular(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := queryInt(r, "count", DefaultPopularCount)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	genreID, err := queryInt(r, "genreId", 0)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	year, err := queryInt(r, "year", 0)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	popular, err := h.Films.Popular(ctx, models.PopularFilter{Count: int(count), GenreID: genreID, Year: int(year)})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmResponses(popular))
}

// Common handles GET /films/common?userId=&friendId=.
func (h FilmHandler) Common(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := queryInt(r, "userId", 0)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	friendID, err := queryInt(r, "friendId", 0)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	common, err := h.Films.Common(ctx, userID, friendID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmResponses(common))
}

// ByDirector handles GET /films/director/{directorId}?sortBy=year|likes.
func (h FilmHandler) ByDirector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	directorID, err := pathID(r, "directorId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	sortBy := r.URL.Query().Get("sortBy")
	if sortBy == "" {
		sortBy = string(models.SortByYear)
	}

	directed, err := h.Films.ByDirector(ctx, directorID, sortBy)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmResponses(directed))
}

// Search handles GET /films/search?query=&by=title,director.
func (h FilmHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	by := r.URL.Query().Get("by")
	if by == "" {
		by = "title"
	}

	found, err := h.Films.Search(ctx, r.URL.Query().Get("query"), by)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmResponses(found))
}
