package services

import (
	"context"
	"strings"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/content"
	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/poller"
)

type NoteBackend interface {
	CreateNote(ctx context.Context, req models.CreateNoteRequest) (*models.CreateNoteResponse, error)
	GetNote(ctx context.Context, noteID string) (*models.Note, error)
	UpdateNote(ctx context.Context, noteID string, req models.UpdateNoteRequest) (*models.Note, error)
	DeleteNote(ctx context.Context, noteID string) error
}

type NoteLister interface {
	ListNotes(ctx context.Context, p api.ListNotesParams) (*models.NoteList, error)
}

type Resolver interface {
	Resolve(ctx context.Context, rawURL, title string) (models.Video, error)
}

type NoteService struct {
	backend  NoteBackend
	resolver Resolver
}

func NewNoteService(backend NoteBackend, resolver Resolver) *NoteService {
	return &NoteService{backend: backend, resolver: resolver}
}

type CreateNoteInput struct {
	URL      string  `json:"url"`
	Title    string  `json:"title,omitempty"`
	FolderID *string `json:"folder_id,omitempty"`
	IsPublic bool    `json:"is_public"`
}

// Create resolves the video and triggers generation. Concurrent calls for
// the same video are not deduplicated.
func (s *NoteService) Create(ctx context.Context, in CreateNoteInput) (*models.CreateNoteResponse, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, &ValidationError{Fields: map[string]string{"url": "Video URL is required"}}
	}

	video, err := s.resolver.Resolve(ctx, in.URL, in.Title)
	if err != nil {
		return nil, err
	}

	resp, err := s.backend.CreateNote(ctx, models.CreateNoteRequest{
		Video:    video,
		FolderID: in.FolderID,
		IsPublic: in.IsPublic,
	})
	if err != nil {
		return nil, translate(err)
	}
	return resp, nil
}

func (s *NoteService) View(ctx context.Context, noteID string) (*content.NoteView, error) {
	n, err := s.backend.GetNote(ctx, noteID)
	if err != nil {
		return nil, translate(err)
	}
	v := content.ViewOf(n)
	return &v, nil
}

// Wait polls a note until its content leaves the pending/processing state.
// onUpdate sees every sample, including the terminal one.
func (s *NoteService) Wait(ctx context.Context, noteID string, opts poller.Options, onUpdate func(content.NoteView)) (*content.NoteView, error) {
	n, err := poller.Until(ctx, opts, func(ctx context.Context) (*models.Note, error) {
		n, err := s.backend.GetNote(ctx, noteID)
		if err != nil {
			return nil, err
		}
		if onUpdate != nil {
			onUpdate(content.ViewOf(n))
		}
		return n, nil
	}, content.NoteIsTerminal)
	if n == nil {
		return nil, translate(err)
	}
	v := content.ViewOf(n)
	return &v, translate(err)
}

// SetVisibility flips a note's public flag optimistically, restoring the
// previous value if the backend rejects the change.
func (s *NoteService) SetVisibility(ctx context.Context, note *models.Note, public bool) error {
	previous := note.IsPublic
	return Optimistic(ctx,
		func() { note.IsPublic = public },
		func() { note.IsPublic = previous },
		func(ctx context.Context) error {
			_, err := s.backend.UpdateNote(ctx, note.ID, models.UpdateNoteRequest{IsPublic: &public})
			return translate(err)
		},
	)
}

func (s *NoteService) Delete(ctx context.Context, noteID string) error {
	return translate(s.backend.DeleteNote(ctx, noteID))
}

// ListNotes pages through the user's library. Notes is never nil.
func ListNotes(ctx context.Context, lister NoteLister, p api.ListNotesParams) (*models.NoteList, error) {
	list, err := lister.ListNotes(ctx, p)
	if err != nil {
		return nil, translate(err)
	}
	if list.Notes == nil {
		list.Notes = []models.Note{}
	}
	return list, nil
}
