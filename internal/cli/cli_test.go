package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/config"
	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/poller"
)

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, rawURL, title string) (models.Video, error) {
	return models.Video{ID: "dQw4w9WgXcQ", Title: "Intro to Go"}, nil
}

func newTestApp(t *testing.T, mux *http.ServeMux, signedIn bool) (*App, *api.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := &api.MemoryStore{}
	if signedIn {
		require.NoError(t, store.Save(api.Identity{
			AccessToken: "tok-1",
			User:        &models.User{ID: "u1", FullName: "Ada Lovelace", Email: "ada@example.com"},
		}))
	}

	fast := poller.Options{Interval: time.Millisecond}
	app := &App{
		Config:      &config.ClientConfig{BackendURL: srv.URL, Timeout: 5 * time.Second},
		Store:       store,
		Resolver:    stubResolver{},
		NoteOptions: fast,
		AidOptions:  poller.Options{Interval: time.Millisecond, MaxDuration: 20 * time.Millisecond},
		PlanOptions: fast,
	}
	return app, store
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(app)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func jsonReply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestLogin_StoresSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", jsonReply(`{"access_token":"tok-new","user":{"id":"u1","full_name":"Ada Lovelace","email":"ada@example.com"}}`))
	app, store := newTestApp(t, mux, false)

	out, err := run(t, app, "login", "--email", "ada@example.com", "--password", "hunter22")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ada Lovelace")

	id, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-new", id.AccessToken)
}

func TestWhoami_UsesCachedIdentity(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		jsonReply(`{"id":"u1","full_name":"Ada L.","email":"ada@example.com"}`)(w, r)
	})
	app, _ := newTestApp(t, mux, true)

	out, err := run(t, app, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace <ada@example.com>")
	assert.Zero(t, calls.Load())

	out, err = run(t, app, "whoami", "--refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada L.")
	assert.EqualValues(t, 1, calls.Load())
}

func TestCommandsRequireSignIn(t *testing.T) {
	app, _ := newTestApp(t, http.NewServeMux(), false)

	_, err := run(t, app, "note", "show", "n1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestLogout_ClearsStoreWhenBackendFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	app, store := newTestApp(t, mux, true)

	out, err := run(t, app, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	id, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, id.AccessToken)
}

func TestNoteCreate_WaitsUntilReady(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /notes", jsonReply(`{"note_id":"n1","status":"pending"}`))
	mux.HandleFunc("GET /notes/n1", func(w http.ResponseWriter, r *http.Request) {
		switch polls.Add(1) {
		case 1:
			jsonReply(`{"id":"n1","video_title":"Intro to Go","content":{"status":"processing","stage":"fetching_transcript"}}`)(w, r)
		case 2:
			jsonReply(`{"id":"n1","video_title":"Intro to Go","content":{"status":"processing","stage":"generating_notes"}}`)(w, r)
		default:
			jsonReply(`{"id":"n1","video_title":"Intro to Go","content":{"sections":[{"id":"s1","title":"Basics"}]}}`)(w, r)
		}
	})
	app, _ := newTestApp(t, mux, true)

	out, err := run(t, app, "note", "create", "https://youtu.be/dQw4w9WgXcQ", "--wait")
	require.NoError(t, err)
	assert.Contains(t, out, "Note n1 queued (pending)")
	assert.Contains(t, out, " 60%  fetching_transcript")
	assert.Contains(t, out, " 80%  generating_notes")
	assert.Contains(t, out, "Note n1 ready: Intro to Go")
	assert.EqualValues(t, 3, polls.Load())
}

func TestNoteWatch_ReportsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notes/n1", jsonReply(`{"id":"n1","content":{"status":"failed","error":"Transcript unavailable"}}`))
	app, _ := newTestApp(t, mux, true)

	_, err := run(t, app, "note", "watch", "n1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transcript unavailable")
}

func TestAidsGenerate_TimesOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /learning-aids/notes/n1/generate", jsonReply(`{"status":"queued"}`))
	mux.HandleFunc("GET /learning-aids/flashcards", jsonReply(`[]`))
	mux.HandleFunc("GET /learning-aids/notes/n1/quizzes", jsonReply(`[]`))
	app, _ := newTestApp(t, mux, true)

	out, err := run(t, app, "aids", "generate", "n1", "--wait")
	require.Error(t, err)
	assert.Contains(t, out, "Learning aids for n1: queued")
	assert.Contains(t, err.Error(), "still generating")
}

func TestFlashcardsRate_SendsComputedEase(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /learning-aids/flashcards/c1/progress", jsonReply(`{}`))
	app, _ := newTestApp(t, mux, true)

	out, err := run(t, app, "flashcards", "rate", "c1", "hard", "--ease", "2.5", "--reps", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "ease 2.30, 0 repetitions")
}

func TestPlanCreate_ValidatesDays(t *testing.T) {
	app, _ := newTestApp(t, http.NewServeMux(), true)

	_, err := run(t, app, "plan", "create", "Learn Go", "--days", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration_days")
}

func TestPlanCreate_Waits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /learning-journeys/study-plans", jsonReply(`{"id":"p1","goal":"Learn Go","duration_days":14,"status":"generating"}`))
	mux.HandleFunc("GET /learning-journeys/study-plans/p1", jsonReply(`{"id":"p1","goal":"Learn Go","duration_days":14,"status":"active",
		"modules":[{"id":"m1","title":"Syntax","type":"reading","completed":true},{"id":"m2","title":"Concurrency","type":"practice"}]}`))
	app, _ := newTestApp(t, mux, true)

	out, err := run(t, app, "plan", "create", "Learn Go", "--days", "14", "--wait")
	require.NoError(t, err)
	assert.Contains(t, out, "Learn Go (14 days, 50% done)")
	assert.Contains(t, out, "[x] Syntax (reading)")
	assert.Contains(t, out, "[ ] Concurrency (practice)")
}

func TestExport_WritesFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /export/notes/n1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Basics\n"))
	})
	app, _ := newTestApp(t, mux, true)

	path := filepath.Join(t.TempDir(), "notes.md")
	out, err := run(t, app, "export", "n1", "--format", "markdown", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Basics\n", string(data))
}
