package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/filmorate/backend/internal/catalog"
	"github.com/filmorate/backend/internal/feed"
	"github.com/filmorate/backend/internal/films"
	"github.com/filmorate/backend/internal/repositories/memstore"
	"github.com/filmorate/backend/internal/reviews"
	"github.com/filmorate/backend/internal/social"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memstore.New()

	return NewRouter(Dependencies{
		Films: films.NewService(films.Deps{
			Films:     store.Films(),
			Users:     store.Users(),
			Genres:    store.Genres(),
			Mpa:       store.Mpa(),
			Directors: store.Directors(),
		}),
		Users:   social.NewService(store.Users(), nil),
		Reviews: reviews.NewService(store.Reviews(), store.Users(), store.Films(), nil),
		Catalog: catalog.NewService(store.Genres(), store.Mpa(), store.Directors()),
		Feed:    feed.NewService(store.Users(), store.Feed()),
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func createUser(t *testing.T, h http.Handler, login string) userResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/users", map[string]any{
		"email":    login + "@example.com",
		"login":    login,
		"birthday": "1990-01-01",
	})
	expectStatus(t, rec, http.StatusCreated)
	return decode[userResponse](t, rec)
}

func createFilm(t *testing.T, h http.Handler, name string) filmResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/films", map[string]any{
		"name":        name,
		"description": "A film",
		"releaseDate": "2000-01-01",
		"duration":    100,
		"mpa":         map[string]any{"id": 1},
	})
	expectStatus(t, rec, http.StatusCreated)
	return decode[filmResponse](t, rec)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func filmIDs(films []filmResponse) []int64 {
	ids := make([]int64, 0, len(films))
	for _, f := range films {
		ids = append(ids, f.ID)
	}
	return ids
}

func TestFilmValidation(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{
			name:  "blank name",
			body:  map[string]any{"name": "  ", "releaseDate": "2000-01-01", "duration": 90, "mpa": map[string]any{"id": 1}},
			field: "name",
		},
		{
			name:  "before first screening",
			body:  map[string]any{"name": "Old", "releaseDate": "1895-12-27", "duration": 90, "mpa": map[string]any{"id": 1}},
			field: "releaseDate",
		},
		{
			name:  "non-positive duration",
			body:  map[string]any{"name": "Short", "releaseDate": "2000-01-01", "duration": 0, "mpa": map[string]any{"id": 1}},
			field: "duration",
		},
		{
			name:  "missing rating",
			body:  map[string]any{"name": "Unrated", "releaseDate": "2000-01-01", "duration": 90},
			field: "mpa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/films", tt.body)
			expectStatus(t, rec, http.StatusBadRequest)
			resp := decode[errorResponse](t, rec)
			if _, ok := resp.Fields[tt.field]; !ok {
				t.Fatalf("expected %s to be rejected, got %+v", tt.field, resp)
			}
		})
	}

	rec := do(t, h, http.MethodPost, "/films", map[string]any{
		"name": "Ghost rating", "releaseDate": "2000-01-01", "duration": 90, "mpa": map[string]any{"id": 42},
	})
	expectStatus(t, rec, http.StatusNotFound)

	rec = do(t, h, http.MethodPut, "/films", map[string]any{
		"id": 77, "name": "Missing", "releaseDate": "2000-01-01", "duration": 90, "mpa": map[string]any{"id": 1},
	})
	expectStatus(t, rec, http.StatusNotFound)
}

func TestLikesAndPopular(t *testing.T) {
	h := newTestRouter(t)

	user := createUser(t, h, "viewer")
	first := createFilm(t, h, "First")
	second := createFilm(t, h, "Second")
	third := createFilm(t, h, "Third")

	rec := do(t, h, http.MethodGet, "/films/popular?count=10", nil)
	expectStatus(t, rec, http.StatusOK)
	if diff := cmp.Diff([]int64{first.ID, second.ID, third.ID}, filmIDs(decode[[]filmResponse](t, rec))); diff != "" {
		t.Fatalf("unexpected popular order (-want +got):\n%s", diff)
	}

	like := "/films/" + itoa(second.ID) + "/like/" + itoa(user.ID)
	expectStatus(t, do(t, h, http.MethodPut, like, nil), http.StatusNoContent)

	rec = do(t, h, http.MethodPut, like, nil)
	expectStatus(t, rec, http.StatusOK)
	if resp := decode[errorResponse](t, rec); resp.Error == "" {
		t.Fatal("expected informational error body for duplicate like")
	}

	rec = do(t, h, http.MethodGet, "/films/popular", nil)
	expectStatus(t, rec, http.StatusOK)
	popular := decode[[]filmResponse](t, rec)
	if diff := cmp.Diff([]int64{second.ID, first.ID, third.ID}, filmIDs(popular)); diff != "" {
		t.Fatalf("unexpected popular order (-want +got):\n%s", diff)
	}
	if popular[0].Likes != 1 {
		t.Fatalf("expected one like, got %d", popular[0].Likes)
	}

	for _, path := range []string{"/films/popular?count=0", "/films/popular?genreId=7", "/films/popular?count=abc", "/films/popular?year=3000000000", "/films/popular?year=-1"} {
		expectStatus(t, do(t, h, http.MethodGet, path, nil), http.StatusBadRequest)
	}

	expectStatus(t, do(t, h, http.MethodDelete, like, nil), http.StatusNoContent)
	expectStatus(t, do(t, h, http.MethodDelete, like, nil), http.StatusNoContent)
	expectStatus(t, do(t, h, http.MethodPut, "/films/999/like/"+itoa(user.ID), nil), http.StatusNotFound)
}

func TestUsersFriendsAndFeed(t *testing.T) {
	h := newTestRouter(t)

	alice := createUser(t, h, "alice")
	bob := createUser(t, h, "bob")
	if alice.Name != "alice" {
		t.Fatalf("expected display name to default to login, got %q", alice.Name)
	}

	rec := do(t, h, http.MethodPost, "/users", map[string]any{"email": "bad", "login": "has space"})
	expectStatus(t, rec, http.StatusBadRequest)
	fields := decode[errorResponse](t, rec).Fields
	if _, ok := fields["email"]; !ok {
		t.Fatalf("expected email to be rejected, got %+v", fields)
	}
	if _, ok := fields["login"]; !ok {
		t.Fatalf("expected login to be rejected, got %+v", fields)
	}

	friend := "/users/" + itoa(alice.ID) + "/friends/" + itoa(bob.ID)
	expectStatus(t, do(t, h, http.MethodPut, friend, nil), http.StatusNoContent)

	rec = do(t, h, http.MethodGet, "/users/"+itoa(bob.ID)+"/friends", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]userResponse](t, rec); len(got) != 0 {
		t.Fatalf("expected friendship to be one-directional, got %+v", got)
	}

	expectStatus(t, do(t, h, http.MethodDelete, friend, nil), http.StatusNoContent)

	rec = do(t, h, http.MethodGet, "/users/"+itoa(alice.ID)+"/feed", nil)
	expectStatus(t, rec, http.StatusOK)
	events := decode[[]eventResponse](t, rec)
	var got []string
	for _, e := range events {
		if e.Timestamp <= 0 {
			t.Fatalf("expected epoch millisecond timestamp, got %d", e.Timestamp)
		}
		got = append(got, e.EventType+"/"+e.Operation)
	}
	if diff := cmp.Diff([]string{"FRIEND/ADD", "FRIEND/REMOVE"}, got); diff != "" {
		t.Fatalf("unexpected feed (-want +got):\n%s", diff)
	}

	expectStatus(t, do(t, h, http.MethodGet, "/users/999/feed", nil), http.StatusNotFound)
	expectStatus(t, do(t, h, http.MethodGet, "/users/abc", nil), http.StatusBadRequest)
}

func TestReviewMarks(t *testing.T) {
	h := newTestRouter(t)

	author := createUser(t, h, "author")
	reader := createUser(t, h, "reader")
	film := createFilm(t, h, "Reviewed")

	rec := do(t, h, http.MethodPost, "/reviews", map[string]any{
		"content": "Worth it", "isPositive": true, "userId": author.ID, "filmId": film.ID,
	})
	expectStatus(t, rec, http.StatusCreated)
	review := decode[reviewResponse](t, rec)

	base := "/reviews/" + itoa(review.ReviewID)
	expectStatus(t, do(t, h, http.MethodPut, base+"/like/"+itoa(reader.ID), nil), http.StatusNoContent)
	expectStatus(t, do(t, h, http.MethodPut, base+"/dislike/"+itoa(reader.ID), nil), http.StatusNoContent)

	rec = do(t, h, http.MethodGet, base, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[reviewResponse](t, rec).Useful; got != -1 {
		t.Fatalf("expected usefulness -1 after flip, got %d", got)
	}

	rec = do(t, h, http.MethodPost, "/reviews", map[string]any{"content": "No polarity", "userId": author.ID, "filmId": film.ID})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, h, http.MethodGet, "/reviews?filmId="+itoa(film.ID)+"&count=5", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]reviewResponse](t, rec); len(got) != 1 {
		t.Fatalf("expected one review, got %d", len(got))
	}
	expectStatus(t, do(t, h, http.MethodGet, "/reviews?count=0", nil), http.StatusBadRequest)
}

func TestCatalogAndDirectorFilms(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/mpa/3", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[namedResponse](t, rec); got.Name != "PG-13" {
		t.Fatalf("unexpected rating: %+v", got)
	}
	expectStatus(t, do(t, h, http.MethodGet, "/genres/9", nil), http.StatusNotFound)

	rec = do(t, h, http.MethodPost, "/directors", map[string]any{"name": "Agnès Varda"})
	expectStatus(t, rec, http.StatusCreated)
	director := decode[namedResponse](t, rec)

	expectStatus(t, do(t, h, http.MethodPost, "/directors", map[string]any{"name": " "}), http.StatusBadRequest)

	rec = do(t, h, http.MethodPost, "/films", map[string]any{
		"name": "Cléo from 5 to 7", "releaseDate": "1962-04-11", "duration": 90,
		"mpa": map[string]any{"id": 2}, "directors": []map[string]any{{"id": director.ID}},
	})
	expectStatus(t, rec, http.StatusCreated)

	rec = do(t, h, http.MethodGet, "/films/director/"+itoa(director.ID)+"?sortBy=likes", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]filmResponse](t, rec); len(got) != 1 || got[0].Directors[0].Name != "Agnès Varda" {
		t.Fatalf("unexpected director films: %+v", got)
	}

	expectStatus(t, do(t, h, http.MethodGet, "/films/director/"+itoa(director.ID)+"?sortBy=rating", nil), http.StatusBadRequest)
	expectStatus(t, do(t, h, http.MethodGet, "/films/search?query=cl%C3%A9o&by=title,director", nil), http.StatusOK)
	expectStatus(t, do(t, h, http.MethodGet, "/films/search?query=x&by=genre", nil), http.StatusBadRequest)
	expectStatus(t, do(t, h, http.MethodPost, "/healthz", nil), http.StatusMethodNotAllowed)
}
