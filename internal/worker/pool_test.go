package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/models"
)

type fakeBroker struct {
	mu        sync.Mutex
	jobs      chan models.WatchJob
	locks     map[string]string
	published []models.WSMessage
	cached    map[string]any
	// listeners maps a user to its subscriber count; absent users have one.
	listeners map[string]int64
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		jobs:      make(chan models.WatchJob, 16),
		locks:     make(map[string]string),
		cached:    make(map[string]any),
		listeners: make(map[string]int64),
	}
}

func (b *fakeBroker) Enqueue(_ context.Context, job models.WatchJob) error {
	b.jobs <- job
	return nil
}

func (b *fakeBroker) Dequeue(ctx context.Context, timeout time.Duration) (*models.WatchJob, error) {
	select {
	case job := <-b.jobs:
		return &job, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *fakeBroker) Lock(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, held := b.locks[key]; held {
		return false, nil
	}
	b.locks[key] = token
	return true, nil
}

func (b *fakeBroker) Unlock(_ context.Context, key, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.locks[key] == token {
		delete(b.locks, key)
	}
}

func (b *fakeBroker) Publish(_ context.Context, userKey string, msg models.WSMessage) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, msg)
	if n, ok := b.listeners[userKey]; ok {
		return n, nil
	}
	return 1, nil
}

func (b *fakeBroker) CacheView(_ context.Context, userKey, noteID string, view any, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cached[userKey+"/"+noteID] = view
	return nil
}

func (b *fakeBroker) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.published))
	for i, m := range b.published {
		out[i] = m.Type
	}
	return out
}

func (b *fakeBroker) last() models.WSMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published[len(b.published)-1]
}

type fakeBackend struct {
	calls   atomic.Int32
	note    func(n int) (*models.Note, error)
	plan    func(n int) (*models.StudyPlan, error)
	aidsErr error
}

func (f *fakeBackend) CreateNote(context.Context, models.CreateNoteRequest) (*models.CreateNoteResponse, error) {
	return nil, errors.New("unexpected")
}

func (f *fakeBackend) GetNote(context.Context, string) (*models.Note, error) {
	return f.note(int(f.calls.Add(1)))
}

func (f *fakeBackend) UpdateNote(context.Context, string, models.UpdateNoteRequest) (*models.Note, error) {
	return nil, errors.New("unexpected")
}

func (f *fakeBackend) DeleteNote(context.Context, string) error { return errors.New("unexpected") }

func (f *fakeBackend) GenerateLearningAids(context.Context, string) (*models.GenerationJob, error) {
	return nil, errors.New("unexpected")
}

func (f *fakeBackend) ListFlashcards(context.Context, string) ([]models.Flashcard, error) {
	f.calls.Add(1)
	return nil, f.aidsErr
}

func (f *fakeBackend) GetNoteQuizzes(context.Context, string) ([]models.Quiz, error) {
	return nil, f.aidsErr
}

func (f *fakeBackend) UpdateFlashcardProgress(context.Context, string, models.FlashcardProgressUpdate) (*models.FlashcardProgress, error) {
	return nil, errors.New("unexpected")
}

func (f *fakeBackend) SubmitQuizAttempt(context.Context, string, map[string]string) (*models.QuizAttemptResult, error) {
	return nil, errors.New("unexpected")
}

func (f *fakeBackend) CreateStudyPlan(context.Context, models.CreateStudyPlanRequest) (*models.StudyPlan, error) {
	return nil, errors.New("unexpected")
}

func (f *fakeBackend) GetStudyPlan(context.Context, string) (*models.StudyPlan, error) {
	return f.plan(int(f.calls.Add(1)))
}

func (f *fakeBackend) ListStudyPlans(context.Context) ([]models.StudyPlan, error) { return nil, nil }

func (f *fakeBackend) SetModuleCompleted(context.Context, string, string, bool) error { return nil }

type instantClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *instantClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *instantClock) NewTimer(d time.Duration) (<-chan time.Time, func() bool) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch, func() bool { return false }
}

func newTestPool(broker *fakeBroker, backend *fakeBackend) *Pool {
	p := NewPool(broker, func(string) Backend { return backend }, 1, time.Minute)
	clock := &instantClock{now: time.Unix(0, 0)}
	p.noteOpts.Clock = clock
	p.aidOpts.Clock = clock
	p.planOpts.Clock = clock
	return p
}

func contentNote(raw string) *models.Note {
	return &models.Note{ID: "n1", Content: json.RawMessage(raw)}
}

func TestProcess_NoteLifecycle(t *testing.T) {
	samples := []string{
		`{"status":"pending","stage":"initializing"}`,
		`{"status":"processing","stage":"generating_notes"}`,
		`{"sections":[{"id":"s1","title":"Intro"}]}`,
	}
	backend := &fakeBackend{note: func(n int) (*models.Note, error) {
		return contentNote(samples[n-1]), nil
	}}
	broker := newFakeBroker()
	p := newTestPool(broker, backend)

	p.process(context.Background(), &models.WatchJob{Kind: models.WatchNote, ResourceID: "n1", UserKey: "u1"})

	assert.Equal(t, []string{"status_update", "status_update", "status_update", "completed"}, broker.types())

	second := broker.published[1].Payload.(models.StatusUpdate)
	assert.Equal(t, "processing", second.Status)
	assert.Equal(t, 80, second.Progress)
	assert.Equal(t, 2, second.Attempt)

	third := broker.published[2].Payload.(models.StatusUpdate)
	assert.Equal(t, "completed", third.Status)
	assert.Equal(t, 100, third.Progress)

	assert.Contains(t, broker.cached, "u1/n1")
	assert.Empty(t, broker.locks, "lock released")
}

func TestProcess_NoteFailed(t *testing.T) {
	backend := &fakeBackend{note: func(int) (*models.Note, error) {
		return contentNote(`{"status":"failed","error":"No captions","error_type":"transcript-unavailable"}`), nil
	}}
	broker := newFakeBroker()
	newTestPool(broker, backend).process(context.Background(), &models.WatchJob{Kind: models.WatchNote, ResourceID: "n1", UserKey: "u1"})

	ev := broker.last()
	require.Equal(t, "error", ev.Type)
	payload := ev.Payload.(models.ErrorEvent)
	assert.Equal(t, "TRANSCRIPT_UNAVAILABLE", payload.ErrorCode)
	assert.Equal(t, "No captions", payload.ErrorMessage)
	assert.Empty(t, broker.cached)
}

func TestProcess_SkipsWhenAlreadyWatched(t *testing.T) {
	backend := &fakeBackend{note: func(int) (*models.Note, error) { return contentNote(`null`), nil }}
	broker := newFakeBroker()
	job := &models.WatchJob{Kind: models.WatchNote, ResourceID: "n1", UserKey: "u1"}
	broker.locks[lockKey(job)] = "other-job"

	newTestPool(broker, backend).process(context.Background(), job)
	assert.Zero(t, backend.calls.Load())
	assert.Empty(t, broker.types())
}

func TestProcess_AidsTimeout(t *testing.T) {
	backend := &fakeBackend{}
	broker := newFakeBroker()
	newTestPool(broker, backend).process(context.Background(), &models.WatchJob{Kind: models.WatchLearningAids, ResourceID: "n1", UserKey: "u1"})

	ev := broker.last()
	require.Equal(t, "error", ev.Type)
	assert.Equal(t, "TIMEOUT", ev.Payload.(models.ErrorEvent).ErrorCode)
	assert.EqualValues(t, 41, backend.calls.Load())
}

func TestProcess_StudyPlan(t *testing.T) {
	backend := &fakeBackend{plan: func(n int) (*models.StudyPlan, error) {
		if n < 3 {
			return &models.StudyPlan{ID: "p1", Status: "generating"}, nil
		}
		return &models.StudyPlan{ID: "p1", Status: "active", Modules: []models.StudyPlanModule{{ID: "m1"}}}, nil
	}}
	broker := newFakeBroker()
	newTestPool(broker, backend).process(context.Background(), &models.WatchJob{Kind: models.WatchStudyPlan, ResourceID: "p1", UserKey: "u1"})

	assert.Equal(t, []string{"status_update", "status_update", "status_update", "completed"}, broker.types())
}

func TestProcess_UnauthorizedToken(t *testing.T) {
	backend := &fakeBackend{note: func(int) (*models.Note, error) {
		return nil, &api.Error{StatusCode: 401, Message: "expired"}
	}}
	broker := newFakeBroker()
	newTestPool(broker, backend).process(context.Background(), &models.WatchJob{Kind: models.WatchNote, ResourceID: "n1", UserKey: "u1"})

	ev := broker.last()
	require.Equal(t, "error", ev.Type)
	assert.Equal(t, "UNAUTHORIZED", ev.Payload.(models.ErrorEvent).ErrorCode)
}

func TestPool_StopCancelsRunningPoll(t *testing.T) {
	fetched := make(chan struct{}, 100)
	backend := &fakeBackend{note: func(int) (*models.Note, error) {
		fetched <- struct{}{}
		return contentNote(`{"status":"processing"}`), nil
	}}
	broker := newFakeBroker()
	p := NewPool(broker, func(string) Backend { return backend }, 2, 0)
	p.noteOpts.Interval = 20 * time.Millisecond
	p.dequeueIn = 50 * time.Millisecond

	p.Start()
	require.NoError(t, p.Watch(context.Background(), models.WatchNote, "n1", "u1", "tok"))

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never polled")
	}

	p.Stop()
	after := backend.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, backend.calls.Load(), "no fetch after Stop")

	broker.mu.Lock()
	defer broker.mu.Unlock()
	assert.Empty(t, broker.locks)
	for _, m := range broker.published {
		assert.NotEqual(t, "error", m.Type)
	}
}

func TestProcess_LockHeldByJobID(t *testing.T) {
	job := &models.WatchJob{ID: "job-1", Kind: models.WatchNote, ResourceID: "n1", UserKey: "u1"}
	broker := newFakeBroker()
	backend := &fakeBackend{note: func(int) (*models.Note, error) {
		broker.mu.Lock()
		defer broker.mu.Unlock()
		assert.Equal(t, "job-1", broker.locks[lockKey(job)])
		return contentNote(`{"sections":[]}`), nil
	}}

	newTestPool(broker, backend).process(context.Background(), job)
	assert.Empty(t, broker.locks)
}

func TestProcess_UnlockLeavesNewerHolder(t *testing.T) {
	job := &models.WatchJob{ID: "job-1", Kind: models.WatchNote, ResourceID: "n1", UserKey: "u1"}
	broker := newFakeBroker()
	backend := &fakeBackend{note: func(int) (*models.Note, error) {
		// The lock expired mid-watch and another job claimed it.
		broker.mu.Lock()
		broker.locks[lockKey(job)] = "job-2"
		broker.mu.Unlock()
		return contentNote(`{"sections":[]}`), nil
	}}

	newTestPool(broker, backend).process(context.Background(), job)
	assert.Equal(t, "job-2", broker.locks[lockKey(job)])
}

func TestProcess_NoteStopsWithoutListeners(t *testing.T) {
	backend := &fakeBackend{note: func(int) (*models.Note, error) {
		return contentNote(`{"status":"processing"}`), nil
	}}
	broker := newFakeBroker()
	broker.listeners["u1"] = 0

	newTestPool(broker, backend).process(context.Background(), &models.WatchJob{ID: "j1", Kind: models.WatchNote, ResourceID: "n1", UserKey: "u1"})

	assert.EqualValues(t, idleSamples, backend.calls.Load())
	assert.Equal(t, []string{"status_update", "status_update", "status_update"}, broker.types())
	assert.Empty(t, broker.locks)
}

func TestProcess_NoteWatchCapped(t *testing.T) {
	backend := &fakeBackend{note: func(int) (*models.Note, error) {
		return contentNote(`{"status":"processing"}`), nil
	}}
	broker := newFakeBroker()
	p := newTestPool(broker, backend)
	require.Equal(t, maxWatch, p.noteOpts.MaxDuration)
	require.Less(t, maxWatch, lockTTL)

	p.process(context.Background(), &models.WatchJob{ID: "j1", Kind: models.WatchNote, ResourceID: "n1", UserKey: "u1"})

	ev := broker.last()
	require.Equal(t, "error", ev.Type)
	assert.Equal(t, "TIMEOUT", ev.Payload.(models.ErrorEvent).ErrorCode)
	// 14 minutes at the 5s note interval, plus the first fetch.
	assert.EqualValues(t, 169, backend.calls.Load())
}

func TestPool_StuckNoteDoesNotStarveOtherUsers(t *testing.T) {
	backend := &fakeBackend{
		note: func(int) (*models.Note, error) {
			return contentNote(`{"status":"processing"}`), nil
		},
		plan: func(int) (*models.StudyPlan, error) {
			return &models.StudyPlan{ID: "p1", Status: "active"}, nil
		},
	}
	broker := newFakeBroker()
	broker.listeners["u1"] = 0
	p := NewPool(broker, func(string) Backend { return backend }, 1, 0)
	p.noteOpts.Interval = 5 * time.Millisecond
	p.dequeueIn = 20 * time.Millisecond

	p.Start()
	defer p.Stop()
	require.NoError(t, p.Watch(context.Background(), models.WatchNote, "n1", "u1", "tok"))
	require.NoError(t, p.Watch(context.Background(), models.WatchStudyPlan, "p1", "u2", "tok"))

	assert.Eventually(t, func() bool {
		types := broker.types()
		return len(types) > 0 && types[len(types)-1] == "completed"
	}, 2*time.Second, 10*time.Millisecond)
}
