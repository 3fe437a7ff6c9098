package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"studynotes-dashboard/internal/models"
)

// Export is a downloaded note in one of the supported formats.
type Export struct {
	Data        []byte
	ContentType string
	Filename    string
}

func (c *Client) ExportNote(ctx context.Context, noteID string, format models.ExportFormat) (*Export, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	path := "/export/notes/" + escape(noteID) + "?" + url.Values{"format": {string(format)}}.Encode()
	raw, header, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	exp := &Export{
		Data:        raw,
		ContentType: header.Get("Content-Type"),
		Filename:    exportFilename(header.Get("Content-Disposition"), noteID, format),
	}
	if exp.ContentType == "" {
		exp.ContentType = defaultContentType(format)
	}
	return exp, nil
}

func exportFilename(disposition, noteID string, format models.ExportFormat) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	ext := string(format)
	if format == models.ExportMarkdown {
		ext = "md"
	}
	return fmt.Sprintf("note-%s.%s", noteID, ext)
}

func defaultContentType(format models.ExportFormat) string {
	switch format {
	case models.ExportPDF:
		return "application/pdf"
	case models.ExportMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/json"
	}
}
