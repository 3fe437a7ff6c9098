package models

import "encoding/json"

type Video struct {
	ID              string `json:"video_id"`
	Title           string `json:"video_title"`
	Creator         string `json:"video_creator,omitempty"`
	DurationSeconds int    `json:"video_duration,omitempty"`
	ThumbnailURL    string `json:"video_thumbnail,omitempty"`
}

type Note struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	VideoID        string          `json:"video_id"`
	VideoTitle     string          `json:"video_title"`
	VideoCreator   string          `json:"video_creator,omitempty"`
	VideoDuration  int             `json:"video_duration,omitempty"`
	VideoThumbnail string          `json:"video_thumbnail,omitempty"`
	Content        json.RawMessage `json:"content"` // shape depends on processing stage
	Summary        string          `json:"summary,omitempty"`
	IsPublic       bool            `json:"is_public"`
	ViewCount      int             `json:"view_count"`
	FolderID       *string         `json:"folder_id,omitempty"`
	IsCertified    bool            `json:"is_certified"`
	CreatedAt      Timestamp       `json:"created_at"`
	UpdatedAt      Timestamp       `json:"updated_at"`
}

func (n *Note) Video() Video {
	return Video{
		ID:              n.VideoID,
		Title:           n.VideoTitle,
		Creator:         n.VideoCreator,
		DurationSeconds: n.VideoDuration,
		ThumbnailURL:    n.VideoThumbnail,
	}
}

type CreateNoteRequest struct {
	Video
	FolderID *string `json:"folder_id,omitempty"`
	IsPublic bool    `json:"is_public"`
}

// CreateNoteResponse is the accepted reply to a creation request; content
// is never returned synchronously.
type CreateNoteResponse struct {
	NoteID string `json:"note_id"`
	Status string `json:"status"` // typically "pending"
}

type UpdateNoteRequest struct {
	IsPublic *bool   `json:"is_public,omitempty"`
	FolderID *string `json:"folder_id,omitempty"`
	Summary  *string `json:"summary,omitempty"`
}

type NoteList struct {
	Notes []Note `json:"notes"`
	Total int    `json:"total"`
}

type ExportFormat string

const (
	ExportJSON     ExportFormat = "json"
	ExportMarkdown ExportFormat = "markdown"
	ExportPDF      ExportFormat = "pdf"
)

func (f ExportFormat) Valid() bool {
	switch f {
	case ExportJSON, ExportMarkdown, ExportPDF:
		return true
	}
	return false
}
