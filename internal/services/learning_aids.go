package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"studynotes-dashboard/internal/content"
	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/poller"
	"studynotes-dashboard/internal/srs"
)

type LearningAidBackend interface {
	GenerateLearningAids(ctx context.Context, noteID string) (*models.GenerationJob, error)
	ListFlashcards(ctx context.Context, noteID string) ([]models.Flashcard, error)
	GetNoteQuizzes(ctx context.Context, noteID string) ([]models.Quiz, error)
	UpdateFlashcardProgress(ctx context.Context, cardID string, update models.FlashcardProgressUpdate) (*models.FlashcardProgress, error)
	SubmitQuizAttempt(ctx context.Context, quizID string, answers map[string]string) (*models.QuizAttemptResult, error)
}

type LearningAidService struct {
	backend LearningAidBackend
}

func NewLearningAidService(backend LearningAidBackend) *LearningAidService {
	return &LearningAidService{backend: backend}
}

func (s *LearningAidService) Generate(ctx context.Context, noteID string) (*models.GenerationJob, error) {
	if strings.TrimSpace(noteID) == "" {
		return nil, &ValidationError{Fields: map[string]string{"note_id": "Note id is required"}}
	}
	job, err := s.backend.GenerateLearningAids(ctx, noteID)
	return job, translate(err)
}

func (s *LearningAidService) Flashcards(ctx context.Context, noteID string) ([]models.Flashcard, error) {
	cards, err := s.backend.ListFlashcards(ctx, noteID)
	if cards == nil {
		cards = []models.Flashcard{}
	}
	return cards, translate(err)
}

func (s *LearningAidService) Quizzes(ctx context.Context, noteID string) ([]models.Quiz, error) {
	quizzes, err := s.backend.GetNoteQuizzes(ctx, noteID)
	if quizzes == nil {
		quizzes = []models.Quiz{}
	}
	return quizzes, translate(err)
}

// Snapshot fetches flashcards and quizzes for a note in parallel.
func (s *LearningAidService) Snapshot(ctx context.Context, noteID string) (*content.LearningAids, error) {
	aids, err := s.snapshot(ctx, noteID)
	return aids, translate(err)
}

func (s *LearningAidService) snapshot(ctx context.Context, noteID string) (*content.LearningAids, error) {
	aids := &content.LearningAids{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cards, err := s.backend.ListFlashcards(gctx, noteID)
		aids.Flashcards = cards
		return err
	})
	g.Go(func() error {
		quizzes, err := s.backend.GetNoteQuizzes(gctx, noteID)
		aids.Quizzes = quizzes
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return aids, nil
}

// WaitForAids polls until both flashcards and quizzes exist. With the aid
// preset this gives up after two minutes and returns poller.ErrTimeout
// together with whatever was generated so far.
func (s *LearningAidService) WaitForAids(ctx context.Context, noteID string, opts poller.Options) (*content.LearningAids, error) {
	aids, err := poller.Until(ctx, opts, func(ctx context.Context) (*content.LearningAids, error) {
		return s.snapshot(ctx, noteID)
	}, content.AidsAreTerminal)
	return aids, translate(err)
}

// RateFlashcard computes the new ease locally and sends it. When the
// backend answers with its own progress, that value wins.
func (s *LearningAidService) RateFlashcard(ctx context.Context, card models.Flashcard, difficulty string) (*models.FlashcardProgress, error) {
	d, err := srs.ParseDifficulty(difficulty)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"difficulty": "Difficulty must be easy, medium or hard"}}
	}

	var current srs.Progress
	if card.Progress != nil {
		current = srs.Progress{EaseFactor: card.Progress.EaseFactor, Repetitions: card.Progress.Repetitions}
	}
	next, err := srs.Apply(current, d)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"difficulty": err.Error()}}
	}

	update := models.FlashcardProgressUpdate{
		Difficulty:  string(d),
		EaseFactor:  next.EaseFactor,
		Repetitions: next.Repetitions,
	}
	returned, err := s.backend.UpdateFlashcardProgress(ctx, card.ID, update)
	if err != nil {
		return nil, translate(err)
	}
	if returned != nil {
		return returned, nil
	}
	return &models.FlashcardProgress{
		Difficulty:  update.Difficulty,
		EaseFactor:  update.EaseFactor,
		Repetitions: update.Repetitions,
	}, nil
}

func (s *LearningAidService) SubmitQuiz(ctx context.Context, quizID string, answers map[string]string) (*models.QuizAttemptResult, error) {
	if len(answers) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"answers": "Answer at least one question"}}
	}
	res, err := s.backend.SubmitQuizAttempt(ctx, quizID, answers)
	return res, translate(err)
}
