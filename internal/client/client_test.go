package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	gmux "github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/recipen/internal/convert"
)

// fakeAPI mimics the session endpoints: login hands out "a1" and refresh
// cookie "r1"; refresh trades "r1" for "a2"; only "a2" passes protected calls.
type fakeAPI struct {
	refreshOK  atomic.Bool
	refreshes  atomic.Int32
	protected  atomic.Int32
	lastBodies chan string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{lastBodies: make(chan string, 8)}
	f.refreshOK.Store(true)

	mux := gmux.NewRouter()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "jwt", Value: "r1", Path: "/", HttpOnly: true, Secure: true, MaxAge: 3600})
		writeTestJSON(w, http.StatusOK, map[string]string{"accessToken": "a1"})
	}).Methods(http.MethodPost)
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		ck, err := r.Cookie("jwt")
		if err != nil || ck.Value != "r1" || !f.refreshOK.Load() {
			writeTestJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		writeTestJSON(w, http.StatusOK, map[string]string{"accessToken": "a2"})
	}).Methods(http.MethodGet)
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "jwt", Value: "", Path: "/", MaxAge: -1, Secure: true})
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	mux.HandleFunc("/api/recipes", func(w http.ResponseWriter, r *http.Request) {
		f.protected.Add(1)
		b, _ := io.ReadAll(r.Body)
		f.lastBodies <- string(b)
		if r.Header.Get("Authorization") != "Bearer a2" {
			writeTestJSON(w, http.StatusForbidden, map[string]string{"message": ExpiredMessage})
			return
		}
		writeTestJSON(w, http.StatusCreated, map[string]string{"success": "Recipe added successfully"})
	}).Methods(http.MethodPost)
	mux.HandleFunc("/api/recipes", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, []convert.Recipe{{ID: "r-1", Title: "Soup"}})
	}).Methods(http.MethodGet)
	mux.HandleFunc("/api/recipes/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.protected.Add(1)
		writeTestJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
	}).Methods(http.MethodDelete)
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		f.protected.Add(1)
		writeTestJSON(w, http.StatusForbidden, map[string]string{"message": ExpiredMessage})
	}).Methods(http.MethodGet)
	mux.HandleFunc("/api/recipes/{id}/favorite", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]string{"accessToken": "a3"})
	}).Methods(http.MethodPut)

	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func writeTestJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL+"/api", WithHTTPClient(srv.Client()), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	t.Parallel()

	_, err := New("/api")
	require.Error(t, err)
	_, err = New("::bad")
	require.Error(t, err)

	c, err := New("https://api.example.com/api/")
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com/api", c.base.String())
}

func TestLogin_StoresTokenAndCookie(t *testing.T) {
	t.Parallel()

	_, srv := newFakeAPI(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "a@example.com", "pw"))
	require.Equal(t, "a1", c.Token())
	require.Equal(t, "r1", c.RefreshCookie())

	require.NoError(t, c.Logout(ctx))
	require.Empty(t, c.Token())
	require.Empty(t, c.RefreshCookie())
}

func TestDo_ExpiredRefreshesOnceAndReplays(t *testing.T) {
	t.Parallel()

	f, srv := newFakeAPI(t)
	c := newTestClient(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "a@example.com", "pw"))

	in := convert.RecipeRequest{Title: "Soup", Ingredients: []string{"water"}}
	require.NoError(t, c.CreateRecipe(ctx, in))

	require.EqualValues(t, 1, f.refreshes.Load())
	require.EqualValues(t, 2, f.protected.Load())
	require.Equal(t, "a2", c.Token())

	first, second := <-f.lastBodies, <-f.lastBodies
	require.Equal(t, first, second, "replay must resend the same body")
	require.Contains(t, second, `"title":"Soup"`)
}

func TestDo_RefreshRejectedEndsSession(t *testing.T) {
	t.Parallel()

	f, srv := newFakeAPI(t)
	f.refreshOK.Store(false)
	c := newTestClient(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "a@example.com", "pw"))

	err := c.CreateRecipe(ctx, convert.RecipeRequest{Title: "Soup"})
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Empty(t, c.Token())
	require.EqualValues(t, 1, f.refreshes.Load())
	require.EqualValues(t, 1, f.protected.Load(), "no replay after a failed refresh")
}

func TestDo_OtherForbiddenIsNotRetried(t *testing.T) {
	t.Parallel()

	f, srv := newFakeAPI(t)
	c := newTestClient(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "a@example.com", "pw"))

	err := c.DeleteRecipe(ctx, "r-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusForbidden, apiErr.Status)
	require.Equal(t, "Forbidden", apiErr.Message)
	require.Zero(t, f.refreshes.Load())
	require.EqualValues(t, 1, f.protected.Load())
}

func TestDo_SecondExpiryIsReturned(t *testing.T) {
	t.Parallel()

	f, srv := newFakeAPI(t)
	c := newTestClient(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "a@example.com", "pw"))

	_, err := c.Users(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, ExpiredMessage, apiErr.Message)
	require.EqualValues(t, 1, f.refreshes.Load(), "exactly one refresh per call")
	require.EqualValues(t, 2, f.protected.Load(), "exactly one replay per call")
}

func TestTypedCalls(t *testing.T) {
	t.Parallel()

	_, srv := newFakeAPI(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	list, err := c.Recipes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Soup", list[0].Title)

	require.NoError(t, c.ToggleFavorite(ctx, "r-1"))
	require.Equal(t, "a3", c.Token(), "reissued token replaces the held one")
}

func TestSeededSession(t *testing.T) {
	t.Parallel()

	f, srv := newFakeAPI(t)
	c, err := New(srv.URL+"/api", WithHTTPClient(srv.Client()), WithToken("stale"))
	require.NoError(t, err)
	c.SetRefreshCookie("r1")
	require.Equal(t, "r1", c.RefreshCookie())

	require.NoError(t, c.CreateRecipe(context.Background(), convert.RecipeRequest{Title: "Soup"}))
	require.Equal(t, "a2", c.Token())
	require.EqualValues(t, 1, f.refreshes.Load())
}

func TestAPIError_Message(t *testing.T) {
	t.Parallel()

	require.Equal(t, "api: 404 Not found", (&APIError{Status: 404, Message: "Not found"}).Error())
	require.Equal(t, "api: 500 Internal Server Error", (&APIError{Status: 500}).Error())
}
