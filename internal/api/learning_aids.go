package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"studynotes-dashboard/internal/models"
)

// GenerateLearningAids starts flashcard and quiz generation for a note.
func (c *Client) GenerateLearningAids(ctx context.Context, noteID string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	path := "/learning-aids/notes/" + escape(noteID) + "/generate"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &job); err != nil {
		return nil, err
	}
	if job.NoteID == "" {
		job.NoteID = noteID
	}
	return &job, nil
}

func (c *Client) GetNoteQuizzes(ctx context.Context, noteID string) ([]models.Quiz, error) {
	raw, _, err := c.send(ctx, http.MethodGet, "/learning-aids/notes/"+escape(noteID)+"/quizzes", nil)
	if err != nil {
		return nil, err
	}
	var quizzes []models.Quiz
	if err := unmarshalList(raw, "quizzes", &quizzes); err != nil {
		return nil, fmt.Errorf("get quizzes: %w", err)
	}
	return quizzes, nil
}

func (c *Client) ListFlashcards(ctx context.Context, noteID string) ([]models.Flashcard, error) {
	path := "/learning-aids/flashcards"
	if noteID != "" {
		path += "?" + url.Values{"note_id": {noteID}}.Encode()
	}
	raw, _, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var cards []models.Flashcard
	if err := unmarshalList(raw, "flashcards", &cards); err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	return cards, nil
}

// UpdateFlashcardProgress sends a client-computed review result. The
// returned progress is nil when the backend replies without one.
func (c *Client) UpdateFlashcardProgress(ctx context.Context, cardID string, update models.FlashcardProgressUpdate) (*models.FlashcardProgress, error) {
	raw, _, err := c.send(ctx, http.MethodPut, "/learning-aids/flashcards/"+escape(cardID)+"/progress", update)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return nil, nil
	}
	if inner, ok := fields["progress"]; ok {
		raw = inner
		fields = nil
		if err := json.Unmarshal(inner, &fields); err != nil {
			return nil, nil
		}
	}
	if _, ok := fields["ease_factor"]; !ok {
		return nil, nil
	}

	var progress models.FlashcardProgress
	if err := json.Unmarshal(raw, &progress); err != nil {
		return nil, fmt.Errorf("update flashcard progress: failed to decode response: %w", err)
	}
	return &progress, nil
}

func (c *Client) SubmitQuizAttempt(ctx context.Context, quizID string, answers map[string]string) (*models.QuizAttemptResult, error) {
	var result models.QuizAttemptResult
	path := "/learning-aids/quizzes/" + escape(quizID) + "/submit"
	if err := c.do(ctx, http.MethodPost, path, models.QuizAttemptRequest{Answers: answers}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
