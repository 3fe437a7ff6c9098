package content

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Kind string

const (
	KindEmpty      Kind = "empty"
	KindText       Kind = "text"
	KindProcessing Kind = "processing"
	KindFailed     Kind = "failed"
	KindStructured Kind = "structured"
)

// Section is the one canonical shape rendered for both the detailed and
// the plain backend schemas. Fields missing from the source stay empty.
type Section struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp,omitempty"`

	// plain schema
	Content string   `json:"content,omitempty"`
	Points  []string `json:"points,omitempty"`

	// detailed schema
	Summary             string            `json:"summary,omitempty"`
	KeyPoints           []string          `json:"key_points,omitempty"`
	Terminology         map[string]string `json:"terminology,omitempty"`
	DetailedContent     []string          `json:"detailed_content,omitempty"`
	LearningObjectives  []string          `json:"learning_objectives,omitempty"`
	ReflectionQuestions []string          `json:"reflection_questions,omitempty"`
	Examples            []string          `json:"examples,omitempty"`
}

type Normalized struct {
	Kind     Kind             `json:"kind"`
	Text     string           `json:"text,omitempty"`
	Status   ProcessingStatus `json:"status"`
	Detailed bool             `json:"detailed"`
	Sections []Section        `json:"sections"`

	KeyDefinitions     json.RawMessage `json:"key_definitions,omitempty"`
	StudyStrategies    json.RawMessage `json:"study_strategies,omitempty"`
	LearningTimestamps json.RawMessage `json:"learning_timestamps,omitempty"`
}

// Normalize maps a raw note content payload onto the canonical render
// shape. It is a pure function of its input.
func Normalize(raw json.RawMessage) Normalized {
	v, ok := decodeValue(raw)
	if !ok {
		return Normalized{Kind: KindEmpty, Sections: []Section{}}
	}

	obj, isObject := v.(map[string]any)
	if !isObject {
		text, ok := v.(string)
		if !ok {
			text = strings.TrimSpace(string(raw))
		}
		return Normalized{Kind: KindText, Text: text, Sections: []Section{}}
	}

	status := statusFromObject(obj)
	switch {
	case status.IsActive():
		return Normalized{Kind: KindProcessing, Status: status, Sections: []Section{}}
	case status.IsFailed():
		return Normalized{Kind: KindFailed, Status: status, Sections: []Section{}}
	}

	out := Normalized{Kind: KindStructured, Status: status, Sections: []Section{}}
	if detailed, ok := obj["detailed_sections"].([]any); ok {
		for i, item := range detailed {
			if m, ok := item.(map[string]any); ok {
				out.Sections = append(out.Sections, detailedSection(i, m))
			}
		}
		out.Detailed = len(out.Sections) > 0
	}
	if plain, ok := obj["sections"].([]any); ok && !out.Detailed {
		for i, item := range plain {
			if m, ok := item.(map[string]any); ok {
				out.Sections = append(out.Sections, plainSection(i, m))
			}
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		out.KeyDefinitions = passthrough(fields, "key_definitions")
		out.StudyStrategies = passthrough(fields, "study_strategies")
		out.LearningTimestamps = passthrough(fields, "learning_timestamps")
	}
	return out
}

func baseSection(index int, m map[string]any) Section {
	s := Section{ID: strconv.Itoa(index)}
	if id, ok := stringOf(m["id"]); ok && id != "" {
		s.ID = id
	}
	s.Title, _ = stringOf(m["title"])
	s.Timestamp, _ = stringOf(m["timestamp"])
	return s
}

func plainSection(index int, m map[string]any) Section {
	s := baseSection(index, m)
	switch c := m["content"].(type) {
	case []any:
		s.Content = strings.Join(stringsOf(c), "\n\n")
	default:
		s.Content, _ = stringOf(c)
	}
	s.Points = stringsOf(m["points"])
	return s
}

func detailedSection(index int, m map[string]any) Section {
	s := baseSection(index, m)
	s.Summary, _ = stringOf(m["summary"])
	s.KeyPoints = stringsOf(m["key_points"])
	s.Terminology = terminologyOf(m["terminology"])
	s.DetailedContent = stringsOf(m["detailed_content"])
	s.LearningObjectives = stringsOf(m["learning_objectives"])
	s.ReflectionQuestions = stringsOf(m["reflection_questions"])
	s.Examples = stringsOf(m["examples"])
	return s
}

// passthrough hands an auxiliary field on byte for byte.
func passthrough(fields map[string]json.RawMessage, key string) json.RawMessage {
	v, ok := fields[key]
	if !ok || string(v) == "null" {
		return nil
	}
	return v
}

func stringOf(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// stringsOf accepts a single string or an array of scalars.
func stringsOf(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := stringOf(item); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		if s, ok := stringOf(t); ok && strings.TrimSpace(s) != "" {
			return []string{s}
		}
		return nil
	}
}

// terminologyOf accepts {"term": "definition"} or
// [{"term": ..., "definition": ...}].
func terminologyOf(v any) map[string]string {
	out := map[string]string{}
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			if def, ok := stringOf(item); ok {
				out[k] = def
			}
		}
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			term, _ := stringOf(m["term"])
			if term == "" {
				continue
			}
			def, _ := stringOf(m["definition"])
			out[term] = def
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
