package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type Quiz struct {
	ID        string         `json:"id"`
	NoteID    string         `json:"note_id"`
	Title     string         `json:"title"`
	Status    string         `json:"status,omitempty"`
	Questions []QuizQuestion `json:"questions"`
	CreatedAt Timestamp      `json:"created_at"`
}

type QuizQuestion struct {
	ID            string      `json:"id"`
	Question      string      `json:"question"`
	Type          string      `json:"type"` // "multiple_choice" | "short_answer" | "true_false"
	Options       QuizOptions `json:"options,omitempty"`
	CorrectAnswer string      `json:"correct_answer,omitempty"`
	Explanation   string      `json:"explanation,omitempty"`
}

type QuizOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// QuizOptions decodes either a plain array of choices or an object keyed by
// choice letter, and always re-encodes as an ordered array of key/text pairs.
type QuizOptions []QuizOption

func (o *QuizOptions) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		out := make(QuizOptions, 0, len(raw))
		for i, item := range raw {
			var text string
			if err := json.Unmarshal(item, &text); err == nil {
				out = append(out, QuizOption{Key: optionKey(i), Text: text})
				continue
			}
			var opt QuizOption
			if err := json.Unmarshal(item, &opt); err != nil {
				return fmt.Errorf("option %d: %w", i, err)
			}
			if opt.Key == "" {
				opt.Key = optionKey(i)
			}
			out = append(out, opt)
		}
		*o = out
	case '{':
		var m map[string]string
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return err
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(QuizOptions, 0, len(keys))
		for _, k := range keys {
			out = append(out, QuizOption{Key: k, Text: m[k]})
		}
		*o = out
	default:
		return fmt.Errorf("options must be an array or object")
	}
	return nil
}

func optionKey(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%d", i)
}

type QuizList struct {
	Quizzes []Quiz `json:"quizzes"`
}

type QuizAttemptRequest struct {
	Answers map[string]string `json:"answers"` // question id -> answer
}

type QuestionResult struct {
	QuestionID    string `json:"question_id"`
	Correct       bool   `json:"correct"`
	UserAnswer    string `json:"user_answer,omitempty"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

type QuizAttemptResult struct {
	AttemptID      string           `json:"attempt_id,omitempty"`
	Score          float64          `json:"score"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	Results        []QuestionResult `json:"results"`
}
