package content

import "studynotes-dashboard/internal/models"

// NoteView is a note with its content already normalized. The Content
// field shadows the raw models.Note content when encoded.
type NoteView struct {
	models.Note
	Content    Normalized       `json:"content"`
	Processing ProcessingStatus `json:"processing"`
	Progress   int              `json:"progress"`
}

func ViewOf(n *models.Note) NoteView {
	status := StatusOf(n.Content)
	return NoteView{
		Note:       *n,
		Content:    Normalize(n.Content),
		Processing: status,
		Progress:   status.Progress(),
	}
}
