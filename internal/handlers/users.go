package handlers

import (
	"fmt"
	"net/http"

	"github.com/filmorate/backend/internal/feed"
	"github.com/filmorate/backend/internal/films"
	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/social"
)

// UserHandler serves user accounts, the friend graph and per-user views.
type UserHandler struct {
	Users  *social.Service
	Films  *films.Service
	Events *feed.Service
}

// Create handles POST /users.
func (h UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.Create(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newUserResponse(user))
}

// Update handles PUT /users.
func (h UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.ID <= 0 {
		respondError(ctx, w, fmt.Errorf("%w: id is required", models.ErrInvalidParameter))
		return
	}

	user, err := h.Users.Update(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponse(user))
}

// Get handles GET /users/{id}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	user, err := h.Users.Get(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponse(user))
}

// List handles GET /users.
func (h UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.Users.List(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponses(users))
}

// Delete handles DELETE /users/{id}.
func (h UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddFriend handles PUT /users/{id}/friends/{friendId}.
func (h UserHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := pathIDs(r, "id", "friendId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Users.AddFriend(ctx, ids[0], ids[1]); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFriend handles DELETE /users/{id}/friends/{friendId}.
func (h UserHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := pathIDs(r, "id", "friendId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Users.RemoveFriend(ctx, ids[0], ids[1]); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Friends handles GET /users/{id}/friends.
func (h UserHandler) Friends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	friends, err := h.Users.Friends(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponses(friends))
}

// CommonFriends handles GET /users/{id}/friends/common/{otherId}.
func (h UserHandler) CommonFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := pathIDs(r, "id", "otherId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	common, err := h.Users.CommonFriends(ctx, ids[0], ids[1])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponses(common))
}

// Recommendations handles GET /users/{id}/recommendations.
func (h UserHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	recommended, err := h.Films.Recommendations(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmResponses(recommended))
}

// Feed handles GET /users/{id}/feed.
func (h UserHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	events, err := h.Events.ForUser(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newEventResponses(events))
}
