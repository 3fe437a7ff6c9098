package content

import (
	"bytes"
	"encoding/json"
	"strings"

	"studynotes-dashboard/internal/models"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ProcessingStatus is the projection of content.status/stage/error that
// drives polling and the processing view. It is only meaningful while the
// content is an object carrying a status field.
type ProcessingStatus struct {
	Status    string `json:"status,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

var stageProgress = map[string]int{
	"initializing":           20,
	"fetching_video_details": 40,
	"fetching_transcript":    60,
	"generating_notes":       80,
}

// StageProgress maps a backend stage name to a cosmetic percentage.
func StageProgress(stage string) int {
	if p, ok := stageProgress[strings.ToLower(strings.TrimSpace(stage))]; ok {
		return p
	}
	return 20
}

// StatusOf derives the processing status of a raw content payload. Content
// that is not an object, or an object without a status field, yields the
// zero value, which counts as fully generated.
func StatusOf(raw json.RawMessage) ProcessingStatus {
	obj, ok := decodeObject(raw)
	if !ok {
		return ProcessingStatus{}
	}
	return statusFromObject(obj)
}

func statusFromObject(obj map[string]any) ProcessingStatus {
	status, _ := stringOf(obj["status"])
	if status == "" {
		return ProcessingStatus{}
	}

	ps := ProcessingStatus{Status: strings.ToLower(status)}
	ps.Stage, _ = stringOf(obj["stage"])
	ps.Error, _ = stringOf(obj["error"])
	ps.ErrorType, _ = stringOf(obj["error_type"])
	return ps
}

func (s ProcessingStatus) IsActive() bool {
	return s.Status == StatusPending || s.Status == StatusProcessing
}

func (s ProcessingStatus) IsFailed() bool {
	return s.Status == StatusFailed
}

func (s ProcessingStatus) IsTerminal() bool {
	return !s.IsActive()
}

func (s ProcessingStatus) Progress() int {
	switch {
	case s.IsActive():
		return StageProgress(s.Stage)
	case s.IsFailed():
		return 0
	default:
		return 100
	}
}

// NoteIsTerminal reports whether polling for a note can stop.
func NoteIsTerminal(n *models.Note) bool {
	return n != nil && StatusOf(n.Content).IsTerminal()
}

// PlanIsTerminal reports whether a study plan has left the generating state.
func PlanIsTerminal(p *models.StudyPlan) bool {
	return p != nil && !strings.EqualFold(p.Status, "generating") && !strings.EqualFold(p.Status, StatusPending)
}

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	v, ok := decodeValue(raw)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func decodeValue(raw json.RawMessage) (any, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}
