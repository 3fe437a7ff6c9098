package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes-dashboard/internal/models"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	ReqID  string
	Body   []byte
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recorded
	handler  http.HandlerFunc
}

func newFakeBackend(t *testing.T, h http.HandlerFunc) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{handler: h}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			ReqID:  r.Header.Get("X-Request-ID"),
			Body:   body,
		})
		fb.mu.Unlock()
		fb.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (f *fakeBackend) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, baseURL string, store TokenStore) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: baseURL, Store: store})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_LoadsStoredToken(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.Save(Identity{AccessToken: "stored"}))

	c := newTestClient(t, "http://backend.test/api/", store)
	assert.Equal(t, "stored", c.Token())
	assert.True(t, c.IsAuthenticated())
	assert.Equal(t, "http://backend.test/api", c.BaseURL())
}

func TestLogin_StoresTokenAndSendsBearer(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "tok-1",
				"refresh_token": "ref-1",
				"token_type":    "bearer",
			})
		case "/users/me":
			writeJSON(w, http.StatusOK, map[string]any{"id": "u1", "email": "a@b.c", "full_name": "Ada"})
		default:
			http.NotFound(w, r)
		}
	})

	store := &MemoryStore{}
	c := newTestClient(t, srv.URL, store)

	_, err := c.Login(context.Background(), models.LoginRequest{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, fb.last().Auth)

	u, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FullName)

	req := fb.last()
	assert.Equal(t, "Bearer tok-1", req.Auth)
	assert.NotEmpty(t, req.ReqID)

	stored, _ := store.Load()
	assert.Equal(t, "tok-1", stored.AccessToken)
	assert.Equal(t, "ref-1", stored.RefreshToken)
	require.NotNil(t, stored.User)
	assert.Equal(t, "u1", stored.User.ID)
}

func TestUnauthorizedClearsToken(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, status, map[string]string{"detail": "Could not validate credentials"})
			})

			store := &MemoryStore{}
			require.NoError(t, store.Save(Identity{AccessToken: "expired"}))
			c := newTestClient(t, srv.URL, store)

			_, err := c.GetNote(context.Background(), "n1")
			require.Error(t, err)
			assert.True(t, IsAuthError(err))
			assert.False(t, c.IsAuthenticated())

			stored, _ := store.Load()
			assert.Empty(t, stored.AccessToken)
		})
	}
}

func TestErrorBodies(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{"envelope", 409, `{"error":{"code":"CONFLICT","message":"already exists"}}`, "CONFLICT", "already exists"},
		{"detail string", 400, `{"detail":"Invalid YouTube URL"}`, "", "Invalid YouTube URL"},
		{"detail list", 422, `{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, "", "field required; too short"},
		{"plain message", 500, `{"message":"boom"}`, "", "boom"},
		{"html", 502, `<html>bad gateway</html>`, "", "request failed: bad gateway"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			c := newTestClient(t, srv.URL, nil)

			err := c.DeleteNote(context.Background(), "n1")
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.wantCode, apiErr.Code)
			assert.Equal(t, tc.wantMsg, apiErr.Message)
			assert.NotEmpty(t, apiErr.RequestID)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Note not found"})
	})
	c := newTestClient(t, srv.URL, nil)

	_, err := c.GetNote(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAuthError(err))
}

func TestNoRetryOnFailure(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := newTestClient(t, srv.URL, nil)

	_, err := c.CreateNote(context.Background(), models.CreateNoteRequest{Video: models.Video{ID: "dQw4w9WgXcQ"}})
	require.Error(t, err)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Len(t, fb.requests, 1)
}

func TestLogout_ClearsTokenEvenOnFailure(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	store := &MemoryStore{}
	require.NoError(t, store.Save(Identity{AccessToken: "tok"}))
	c := newTestClient(t, srv.URL, store)

	err := c.Logout(context.Background())
	assert.Error(t, err)
	assert.False(t, c.IsAuthenticated())
}

func TestFileStore_RoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store := NewFileStore(path)

	empty, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, empty.AccessToken)

	require.NoError(t, store.Save(Identity{
		AccessToken: "tok",
		User:        &models.User{ID: "u1", Email: "a@b.c"},
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"access_token"`)
	assert.Contains(t, string(raw), `"user_data"`)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", loaded.AccessToken)
	assert.Equal(t, "a@b.c", loaded.User.Email)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWithToken_DoesNotTouchParentStore(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "u2"})
	})
	store := &MemoryStore{}
	c := newTestClient(t, srv.URL, store)

	scoped := c.WithToken("session-token")
	_, err := scoped.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer session-token", fb.last().Auth)
	assert.False(t, c.IsAuthenticated())

	stored, _ := store.Load()
	assert.Empty(t, stored.AccessToken)
}
