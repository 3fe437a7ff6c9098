package models

type Flashcard struct {
	ID       string             `json:"id"`
	NoteID   string             `json:"note_id"`
	Front    string             `json:"front"`
	Back     string             `json:"back"`
	Progress *FlashcardProgress `json:"progress,omitempty"`
}

type FlashcardProgress struct {
	Difficulty     string     `json:"difficulty,omitempty"` // "easy" | "medium" | "hard"
	EaseFactor     float64    `json:"ease_factor,omitempty"`
	Repetitions    int        `json:"repetitions"`
	NextReviewDate *Timestamp `json:"next_review_date,omitempty"`
}

type FlashcardProgressUpdate struct {
	Difficulty  string  `json:"difficulty"`
	EaseFactor  float64 `json:"ease_factor"`
	Repetitions int     `json:"repetitions"`
}

type FlashcardList struct {
	Flashcards []Flashcard `json:"flashcards"`
}

// GenerationJob is returned by every asynchronous generation trigger.
type GenerationJob struct {
	JobID   string `json:"job_id,omitempty"`
	NoteID  string `json:"note_id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
