package models

// WatchKind names the asynchronous resource a watcher polls.
type WatchKind string

const (
	WatchNote         WatchKind = "note"
	WatchLearningAids WatchKind = "learning_aids"
	WatchStudyPlan    WatchKind = "study_plan"
)

// WatchJob is queued by a generation trigger and consumed by the watch pool.
type WatchJob struct {
	ID         string    `json:"id"`
	Kind       WatchKind `json:"kind"`
	ResourceID string    `json:"resource_id"`
	UserKey    string    `json:"user_key"`
	Token      string    `json:"token"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	Kind       WatchKind `json:"kind"`
	ResourceID string    `json:"resource_id"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage,omitempty"`
	Progress   int       `json:"progress"`
	Attempt    int       `json:"attempt"`
}

type CompletedEvent struct {
	Kind       WatchKind `json:"kind"`
	ResourceID string    `json:"resource_id"`
}

type ErrorEvent struct {
	Kind         WatchKind `json:"kind"`
	ResourceID   string    `json:"resource_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
