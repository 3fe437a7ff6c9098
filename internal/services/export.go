package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/models"
)

type ExportBackend interface {
	ExportNote(ctx context.Context, noteID string, format models.ExportFormat) (*api.Export, error)
}

type ExportService struct {
	backend ExportBackend
}

func NewExportService(backend ExportBackend) *ExportService {
	return &ExportService{backend: backend}
}

type ExportResult struct {
	*api.Export
	Pages int
}

// Export downloads a note. PDF downloads are opened before being handed
// on so a truncated or HTML error page is never saved as a .pdf.
func (s *ExportService) Export(ctx context.Context, noteID, format string) (*ExportResult, error) {
	f := models.ExportFormat(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		f = models.ExportPDF
	}
	if f == "md" {
		f = models.ExportMarkdown
	}
	if !f.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"format": "Format must be json, markdown or pdf"}}
	}

	exp, err := s.backend.ExportNote(ctx, noteID, f)
	if err != nil {
		return nil, translate(err)
	}

	res := &ExportResult{Export: exp}
	if f == models.ExportPDF {
		pages, err := countPDFPages(exp.Data)
		if err != nil {
			return nil, &UpstreamError{Message: "The exported PDF could not be read", Err: err}
		}
		res.Pages = pages
	}
	return res, nil
}

func countPDFPages(data []byte) (pages int, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	n := reader.NumPage()
	if n == 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return n, nil
}
