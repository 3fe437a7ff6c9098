package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"studynotes-dashboard/internal/models"
)

// CreateNote triggers note generation. The reply only acknowledges the
// request; content arrives later through GetNote.
func (c *Client) CreateNote(ctx context.Context, req models.CreateNoteRequest) (*models.CreateNoteResponse, error) {
	var resp models.CreateNoteResponse
	if err := c.do(ctx, http.MethodPost, "/notes", req, &resp); err != nil {
		return nil, err
	}
	if resp.NoteID == "" {
		return nil, fmt.Errorf("create note: backend returned no note id")
	}
	return &resp, nil
}

func (c *Client) GetNote(ctx context.Context, noteID string) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodGet, "/notes/"+escape(noteID), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

type ListNotesParams struct {
	FolderID string
	Limit    int
	Offset   int
}

func (c *Client) ListNotes(ctx context.Context, p ListNotesParams) (*models.NoteList, error) {
	q := url.Values{}
	if p.FolderID != "" {
		q.Set("folder_id", p.FolderID)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	path := "/notes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	raw, _, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	list := &models.NoteList{}
	if err := unmarshalList(raw, "notes", &list.Notes); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	list.Total = len(list.Notes)
	return list, nil
}

func (c *Client) UpdateNote(ctx context.Context, noteID string, req models.UpdateNoteRequest) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodPut, "/notes/"+escape(noteID), req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) DeleteNote(ctx context.Context, noteID string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+escape(noteID), nil, nil)
}
