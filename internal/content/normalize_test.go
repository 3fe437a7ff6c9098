package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bothShapes = `{
	"status": "completed",
	"detailed_sections": [
		{
			"id": "intro",
			"title": "Introduction",
			"timestamp": "00:00",
			"summary": "What X is",
			"key_points": ["X is a thing", "X matters"],
			"terminology": {"X": "the thing"},
			"detailed_content": "One paragraph.",
			"learning_objectives": ["Define X"],
			"reflection_questions": ["Why X?"],
			"examples": ["X in practice"]
		},
		{"title": "Untagged"}
	],
	"sections": [
		{"id": "s1", "title": "Plain", "content": "plain body", "points": ["p"]}
	],
	"key_definitions": {"X": "the thing"},
	"study_strategies": ["spaced repetition"],
	"learning_timestamps": [{"time": "01:30", "topic": "X"}]
}`

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		bothShapes,
		`{"sections": [{"title": "a", "content": ["x", "y"]}]}`,
		`{"status": "processing", "stage": "generating_notes"}`,
		`"just text"`,
		`null`,
		`[1, 2, 3]`,
	}

	for _, in := range inputs {
		first := Normalize(json.RawMessage(in))
		second := Normalize(json.RawMessage(in))
		assert.Equal(t, first, second, in)
	}
}

func TestNormalize_PrefersDetailedSections(t *testing.T) {
	got := Normalize(json.RawMessage(bothShapes))

	require.Equal(t, KindStructured, got.Kind)
	assert.True(t, got.Detailed)
	require.Len(t, got.Sections, 2)

	intro := got.Sections[0]
	assert.Equal(t, "intro", intro.ID)
	assert.Equal(t, "Introduction", intro.Title)
	assert.Equal(t, "00:00", intro.Timestamp)
	assert.Equal(t, "What X is", intro.Summary)
	assert.Equal(t, []string{"X is a thing", "X matters"}, intro.KeyPoints)
	assert.Equal(t, map[string]string{"X": "the thing"}, intro.Terminology)
	assert.Equal(t, []string{"One paragraph."}, intro.DetailedContent)
	assert.Equal(t, []string{"Define X"}, intro.LearningObjectives)
	assert.Equal(t, []string{"Why X?"}, intro.ReflectionQuestions)
	assert.Equal(t, []string{"X in practice"}, intro.Examples)

	for _, s := range got.Sections {
		assert.NotEqual(t, "s1", s.ID, "plain sections must not leak into the output")
		assert.Empty(t, s.Content)
		assert.Empty(t, s.Points)
	}
}

func TestNormalize_PositionalIDAndNoFabrication(t *testing.T) {
	got := Normalize(json.RawMessage(bothShapes))
	require.Len(t, got.Sections, 2)

	untagged := got.Sections[1]
	assert.Equal(t, "1", untagged.ID)
	assert.Equal(t, "Untagged", untagged.Title)
	assert.Empty(t, untagged.Summary)
	assert.Nil(t, untagged.KeyPoints)
	assert.Nil(t, untagged.Terminology)
	assert.Nil(t, untagged.Examples)

	b, err := json.Marshal(untagged)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "1", "title": "Untagged"}`, string(b))
}

func TestNormalize_FallsBackToPlainSections(t *testing.T) {
	raw := `{"detailed_sections": [], "sections": [
		{"id": 7, "title": "Numbered", "content": "body", "points": ["a", "b"], "timestamp": 90},
		{"title": "Paragraphs", "content": ["first", "second"]}
	]}`

	got := Normalize(json.RawMessage(raw))
	require.Equal(t, KindStructured, got.Kind)
	assert.False(t, got.Detailed)
	require.Len(t, got.Sections, 2)

	assert.Equal(t, "7", got.Sections[0].ID)
	assert.Equal(t, "90", got.Sections[0].Timestamp)
	assert.Equal(t, "body", got.Sections[0].Content)
	assert.Equal(t, []string{"a", "b"}, got.Sections[0].Points)

	assert.Equal(t, "1", got.Sections[1].ID)
	assert.Equal(t, "first\n\nsecond", got.Sections[1].Content)
}

func TestNormalize_UnusableDetailedSectionsFallBack(t *testing.T) {
	raw := `{"detailed_sections":[1,"x",null],"sections":[{"id":"s1","title":"Intro","content":"body"}]}`

	got := Normalize(json.RawMessage(raw))
	require.Equal(t, KindStructured, got.Kind)
	assert.False(t, got.Detailed)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "s1", got.Sections[0].ID)
	assert.Equal(t, "body", got.Sections[0].Content)
}

func TestNormalize_StatusGating(t *testing.T) {
	for _, status := range []string{"pending", "processing", "failed"} {
		t.Run(status, func(t *testing.T) {
			raw := `{"status": "` + status + `", "stage": "generating_notes", "error": "boom",
				"detailed_sections": [{"title": "x"}], "sections": [{"title": "y"}],
				"key_definitions": {"a": "b"}}`

			got := Normalize(json.RawMessage(raw))
			assert.Empty(t, got.Sections)
			assert.NotNil(t, got.Sections)
			assert.Nil(t, got.KeyDefinitions)
			assert.Equal(t, status, got.Status.Status)
		})
	}

	failed := Normalize(json.RawMessage(`{"status": "failed", "error": "no transcript", "error_type": "transcript_unavailable"}`))
	assert.Equal(t, KindFailed, failed.Kind)
	assert.Equal(t, "no transcript", failed.Status.Error)
	assert.Equal(t, "transcript_unavailable", failed.Status.ErrorType)
}

func TestNormalize_AuxiliaryFieldsPassThroughUnchanged(t *testing.T) {
	got := Normalize(json.RawMessage(bothShapes))

	assert.JSONEq(t, `{"X": "the thing"}`, string(got.KeyDefinitions))
	assert.JSONEq(t, `["spaced repetition"]`, string(got.StudyStrategies))
	assert.JSONEq(t, `[{"time": "01:30", "topic": "X"}]`, string(got.LearningTimestamps))

	bare := Normalize(json.RawMessage(`{"sections": []}`))
	assert.Nil(t, bare.KeyDefinitions)
	assert.Nil(t, bare.StudyStrategies)
	assert.Nil(t, bare.LearningTimestamps)
}

func TestNormalize_NonObjectContent(t *testing.T) {
	text := Normalize(json.RawMessage(`"# Notes\nplain markdown"`))
	assert.Equal(t, KindText, text.Kind)
	assert.Equal(t, "# Notes\nplain markdown", text.Text)
	assert.Empty(t, text.Sections)

	arr := Normalize(json.RawMessage(`[1,2]`))
	assert.Equal(t, KindText, arr.Kind)
	assert.Equal(t, "[1,2]", arr.Text)

	empty := Normalize(nil)
	assert.Equal(t, KindEmpty, empty.Kind)
	assert.Empty(t, empty.Sections)
}

func TestNormalize_TerminologyList(t *testing.T) {
	raw := `{"detailed_sections": [{"title": "t", "terminology": [
		{"term": "API", "definition": "interface"},
		{"definition": "orphan"}
	]}]}`

	got := Normalize(json.RawMessage(raw))
	require.Len(t, got.Sections, 1)
	assert.Equal(t, map[string]string{"API": "interface"}, got.Sections[0].Terminology)
}
