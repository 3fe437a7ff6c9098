package content

import (
	"strings"

	"studynotes-dashboard/internal/models"
)

// LearningAids is one poll sample of a note's generated study material.
type LearningAids struct {
	Flashcards []models.Flashcard `json:"flashcards"`
	Quizzes    []models.Quiz      `json:"quizzes"`
}

// Ready reports whether both kinds of aid have been generated.
func (a *LearningAids) Ready() bool {
	return a != nil && len(a.Flashcards) > 0 && len(a.Quizzes) > 0
}

func (a *LearningAids) Failed() bool {
	if a == nil {
		return false
	}
	for _, q := range a.Quizzes {
		if strings.EqualFold(q.Status, StatusFailed) {
			return true
		}
	}
	return false
}

// AidsAreTerminal stops learning-aid polling once the aids are ready or a
// generated quiz reports failure.
func AidsAreTerminal(a *LearningAids) bool {
	return a.Ready() || a.Failed()
}
