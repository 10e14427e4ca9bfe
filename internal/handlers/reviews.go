package handlers

import (
	"fmt"
	"net/http"

	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/reviews"
)

// ReviewHandler serves reviews and their like/dislike marks.
type ReviewHandler struct {
	Reviews *reviews.Service
}

// Create handles POST /reviews.
func (h ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	review, err := h.Reviews.Create(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newReviewResponse(review))
}

// Update handles PUT /reviews. Only content and polarity change.
func (h ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.ReviewID <= 0 {
		respondError(ctx, w, fmt.Errorf("%w: reviewId is required", models.ErrInvalidParameter))
		return
	}

	review, err := h.Reviews.Update(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newReviewResponse(review))
}

// Get handles GET /reviews/{id}.
func (h ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	review, err := h.Reviews.Get(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newReviewResponse(review))
}

// List handles GET /reviews?filmId=&count=.
func (h ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filmID, err := queryInt(r, "filmId", 0)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	count, err := queryInt(r, "count", reviews.DefaultCount)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	listed, err := h.Reviews.List(ctx, models.ReviewFilter{FilmID: filmID, Count: int(count)})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newReviewResponses(listed))
}

// Delete handles DELETE /reviews/{id}.
func (h ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Reviews.Delete(ctx, id); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMark returns the handler for PUT /reviews/{id}/like/{userId} or
// /reviews/{id}/dislike/{userId}, depending on value.
func (h ReviewHandler) AddMark(value models.MarkValue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ids, err := pathIDs(r, "id", "userId")
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		if err := h.Reviews.AddMark(ctx, ids[0], ids[1], value); err != nil {
			respondError(ctx, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RemoveMark is the DELETE counterpart of AddMark.
func (h ReviewHandler) RemoveMark(value models.MarkValue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ids, err := pathIDs(r, "id", "userId")
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		if err := h.Reviews.RemoveMark(ctx, ids[0], ids[1], value); err != nil {
			respondError(ctx, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
