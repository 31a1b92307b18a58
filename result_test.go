package pitch_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/pitch"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("summary wins over answer", func(t *testing.T) {
		t.Parallel()
		r := pitch.Normalize(pitch.RawResult{Summary: "primary", Answer: "alias"})
		assert.Equal(t, "primary", r.Summary)
	})

	t.Run("answer used when summary empty", func(t *testing.T) {
		t.Parallel()
		r := pitch.Normalize(pitch.RawResult{Answer: "alias"})
		assert.Equal(t, "alias", r.Summary)
	})

	t.Run("summary absent when neither present", func(t *testing.T) {
		t.Parallel()
		r := pitch.Normalize(pitch.RawResult{})
		assert.Empty(t, r.Summary)
	})

	t.Run("bare string highlights become titles", func(t *testing.T) {
		t.Parallel()
		r := pitch.Normalize(pitch.RawResult{
			Highlights: []any{"Goal highlight", pitch.Highlight{Title: "Save", URL: "https://v/1"}},
		})
		assert.Equal(t, []pitch.Highlight{
			{Title: "Goal highlight"},
			{Title: "Save", URL: "https://v/1"},
		}, r.Highlights)
	})

	t.Run("unsupported highlight elements are dropped", func(t *testing.T) {
		t.Parallel()
		r := pitch.Normalize(pitch.RawResult{Highlights: []any{42.0, nil, "kept"}})
		assert.Equal(t, []pitch.Highlight{{Title: "kept"}}, r.Highlights)
	})

	t.Run("non-array highlights and sources become empty", func(t *testing.T) {
		t.Parallel()
		r := pitch.Normalize(pitch.RawResult{
			Highlights: json.RawMessage(`{"title":"not a list"}`),
			Sources:    "https://example.com",
		})
		assert.NotNil(t, r.Highlights)
		assert.Empty(t, r.Highlights)
		assert.NotNil(t, r.Sources)
		assert.Empty(t, r.Sources)
	})

	t.Run("absent highlights and sources default to empty", func(t *testing.T) {
		t.Parallel()
		r := pitch.Normalize(pitch.RawResult{})
		assert.Equal(t, []pitch.Highlight{}, r.Highlights)
		assert.Equal(t, []string{}, r.Sources)
	})

	t.Run("sources keep string elements", func(t *testing.T) {
		t.Parallel()
		r := pitch.Normalize(pitch.RawResult{Sources: []any{"https://a", 1.0, "https://b"}})
		assert.Equal(t, []string{"https://a", "https://b"}, r.Sources)
	})

	t.Run("other fields pass through", func(t *testing.T) {
		t.Parallel()
		meta := &pitch.MatchMetadata{HomeTeam: "Arsenal", AwayTeam: "Chelsea", Score: "2-1"}
		analysis := &pitch.GameAnalysis{DeepAnalysis: "A tight game."}
		r := pitch.Normalize(pitch.RawResult{
			Success:       ptr(false),
			Intent:        "match_summary",
			MatchMetadata: meta,
			GameAnalysis:  analysis,
			Error:         "backend said no",
		})
		assert.Equal(t, ptr(false), r.Success)
		assert.Equal(t, "match_summary", r.Intent)
		assert.Same(t, meta, r.MatchMetadata)
		assert.Same(t, analysis, r.GameAnalysis)
		assert.Equal(t, "backend said no", r.Error)
		assert.True(t, r.Failed())
	})
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []pitch.RawResult{
		{},
		{Success: ptr(true), Summary: "Team A won 2-1", Highlights: []any{"Goal"}, Sources: []any{"https://example.com/a"}},
		{Answer: "alias only", Highlights: "garbage"},
		{
			Intent:        "analysis",
			Summary:       "s",
			MatchMetadata: &pitch.MatchMetadata{HomeTeam: "A", KeyMoments: []pitch.KeyMoment{{Minute: "45", Event: "goal"}}},
			Highlights:    []pitch.Highlight{{Title: "t", Confidence: ptr(0.9), IsOfficialClub: true}},
			Sources:       []string{"x"},
		},
	}
	for _, in := range inputs {
		once := pitch.Normalize(in)
		twice := pitch.Normalize(once.Raw())
		assert.Equal(t, once, twice)
	}
}

func TestResult_Failed(t *testing.T) {
	t.Parallel()
	assert.False(t, pitch.Result{}.Failed(), "absent success is not a failure")
	assert.False(t, pitch.Result{Success: ptr(true)}.Failed())
	assert.True(t, pitch.Result{Success: ptr(false)}.Failed())
}
