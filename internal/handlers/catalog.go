package handlers

import (
	"fmt"
	"net/http"

	"github.com/filmorate/backend/internal/catalog"
	"github.com/filmorate/backend/internal/models"
)

// CatalogHandler serves genres, MPA ratings and directors.
type CatalogHandler struct {
	Catalog *catalog.Service
}

func (h CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	genres, err := h.Catalog.Genres(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	out := make([]namedResponse, 0, len(genres))
	for _, g := range genres {
		out = append(out, namedResponse{ID: g.ID, Name: g.Name})
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func (h CatalogHandler) Genre(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	genre, err := h.Catalog.Genre(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, namedResponse{ID: genre.ID, Name: genre.Name})
}

func (h CatalogHandler) Ratings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ratings, err := h.Catalog.Ratings(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	out := make([]namedResponse, 0, len(ratings))
	for _, m := range ratings {
		out = append(out, namedResponse{ID: m.ID, Name: m.Name})
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func (h CatalogHandler) Rating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	rating, err := h.Catalog.Rating(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, namedResponse{ID: rating.ID, Name: rating.Name})
}

// Directors handles GET /directors.
func (h CatalogHandler) Directors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	directors, err := h.Catalog.Directors(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	out := make([]namedResponse, 0, len(directors))
	for _, d := range directors {
		out = append(out, namedResponse{ID: d.ID, Name: d.Name})
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// Director handles GET /directors/{id}.
func (h CatalogHandler) Director(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	director, err := h.Catalog.Director(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, namedResponse{ID: director.ID, Name: director.Name})
}

// CreateDirector handles POST /directors.
func (h CatalogHandler) CreateDirector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req directorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	director, err := h.Catalog.CreateDirector(ctx, models.Director{Name: req.Name})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, namedResponse{ID: director.ID, Name: director.Name})
}

// UpdateDirector handles PUT /directors.
func (h CatalogHandler) UpdateDirector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req directorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.ID <= 0 {
		respondError(ctx, w, fmt.Errorf("%w: id is required", models.ErrInvalidParameter))
		return
	}
	director, err := h.Catalog.UpdateDirector(ctx, models.Director{ID: req.ID, Name: req.Name})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, namedResponse{ID: director.ID, Name: director.Name})
}

// DeleteDirector handles DELETE /directors/{id}.
func (h CatalogHandler) DeleteDirector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Catalog.DeleteDirector(ctx, id); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
