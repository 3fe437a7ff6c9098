package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/models"
)

// stubBackend implements every backend interface; unset funcs panic so a
// test notices calls it did not expect.
type stubBackend struct {
	calls atomic.Int32

	register   func(models.RegisterRequest) (*models.AuthTokens, error)
	login      func(models.LoginRequest) (*models.AuthTokens, error)
	createNote func(models.CreateNoteRequest) (*models.CreateNoteResponse, error)
	getNote    func(string) (*models.Note, error)
	updateNote func(string, models.UpdateNoteRequest) (*models.Note, error)
	generate   func(string) (*models.GenerationJob, error)
	flashcards func(string) ([]models.Flashcard, error)
	quizzes    func(string) ([]models.Quiz, error)
	progress   func(string, models.FlashcardProgressUpdate) (*models.FlashcardProgress, error)
	createPlan func(models.CreateStudyPlanRequest) (*models.StudyPlan, error)
	getPlan    func(string) (*models.StudyPlan, error)
	setModule  func(string, string, bool) error
	publicList func(string, int) ([]models.CommunityNote, error)
	like       func(string, bool) (*models.LikeResult, error)
	stats      func() (*models.CommunityStats, error)
	achieve    func() ([]models.Achievement, error)
	export     func(string, models.ExportFormat) (*api.Export, error)
}

func (s *stubBackend) hit() { s.calls.Add(1) }

func (s *stubBackend) Register(_ context.Context, req models.RegisterRequest) (*models.AuthTokens, error) {
	s.hit()
	return s.register(req)
}

func (s *stubBackend) Login(_ context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	s.hit()
	return s.login(req)
}

func (s *stubBackend) Logout(context.Context) error { s.hit(); return nil }

func (s *stubBackend) GetMe(context.Context) (*models.User, error) {
	s.hit()
	return &models.User{ID: "u1"}, nil
}

func (s *stubBackend) UpdateMe(_ context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	s.hit()
	return &models.User{ID: "u1", FullName: *req.FullName}, nil
}

func (s *stubBackend) DeleteMe(context.Context) error { s.hit(); return nil }

func (s *stubBackend) CreateNote(_ context.Context, req models.CreateNoteRequest) (*models.CreateNoteResponse, error) {
	s.hit()
	return s.createNote(req)
}

func (s *stubBackend) GetNote(_ context.Context, id string) (*models.Note, error) {
	s.hit()
	return s.getNote(id)
}

func (s *stubBackend) UpdateNote(_ context.Context, id string, req models.UpdateNoteRequest) (*models.Note, error) {
	s.hit()
	return s.updateNote(id, req)
}

func (s *stubBackend) DeleteNote(context.Context, string) error { s.hit(); return nil }

func (s *stubBackend) GenerateLearningAids(_ context.Context, id string) (*models.GenerationJob, error) {
	s.hit()
	return s.generate(id)
}

func (s *stubBackend) ListFlashcards(_ context.Context, id string) ([]models.Flashcard, error) {
	s.hit()
	return s.flashcards(id)
}

func (s *stubBackend) GetNoteQuizzes(_ context.Context, id string) ([]models.Quiz, error) {
	s.hit()
	return s.quizzes(id)
}

func (s *stubBackend) UpdateFlashcardProgress(_ context.Context, id string, u models.FlashcardProgressUpdate) (*models.FlashcardProgress, error) {
	s.hit()
	return s.progress(id, u)
}

func (s *stubBackend) SubmitQuizAttempt(_ context.Context, _ string, answers map[string]string) (*models.QuizAttemptResult, error) {
	s.hit()
	return &models.QuizAttemptResult{TotalQuestions: len(answers)}, nil
}

func (s *stubBackend) CreateStudyPlan(_ context.Context, req models.CreateStudyPlanRequest) (*models.StudyPlan, error) {
	s.hit()
	return s.createPlan(req)
}

func (s *stubBackend) GetStudyPlan(_ context.Context, id string) (*models.StudyPlan, error) {
	s.hit()
	return s.getPlan(id)
}

func (s *stubBackend) ListStudyPlans(context.Context) ([]models.StudyPlan, error) {
	s.hit()
	return nil, nil
}

func (s *stubBackend) SetModuleCompleted(_ context.Context, planID, moduleID string, completed bool) error {
	s.hit()
	return s.setModule(planID, moduleID, completed)
}

func (s *stubBackend) ListPublicNotes(_ context.Context, sort string, limit int) ([]models.CommunityNote, error) {
	s.hit()
	return s.publicList(sort, limit)
}

func (s *stubBackend) LikeNote(_ context.Context, id string) (*models.LikeResult, error) {
	s.hit()
	return s.like(id, true)
}

func (s *stubBackend) UnlikeNote(_ context.Context, id string) (*models.LikeResult, error) {
	s.hit()
	return s.like(id, false)
}

func (s *stubBackend) GetCommunityStats(context.Context) (*models.CommunityStats, error) {
	s.hit()
	return s.stats()
}

func (s *stubBackend) GetAchievements(context.Context) ([]models.Achievement, error) {
	s.hit()
	return s.achieve()
}

func (s *stubBackend) ExportNote(_ context.Context, id string, f models.ExportFormat) (*api.Export, error) {
	s.hit()
	return s.export(id, f)
}

type stubLookup struct {
	video *yt.Video
	err   error
}

func (l stubLookup) GetVideoContext(context.Context, string) (*yt.Video, error) {
	return l.video, l.err
}

// instantClock fires every timer at once and advances virtual time.
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
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch, func() bool { return false }
}
