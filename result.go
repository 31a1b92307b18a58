package pitch

import (
	"encoding/json"
	"slices"
)

// Result is the canonical shape of a terminal result. It is the only result
// shape the rest of the application observes. Highlights and Sources are
// never nil after normalization.
type Result struct {
	Success       *bool
	Intent        string
	Summary       string
	MatchMetadata *MatchMetadata
	Highlights    []Highlight
	Sources       []string
	GameAnalysis  *GameAnalysis
	Error         string
}

// Failed reports whether the backend explicitly marked the result as failed.
func (r Result) Failed() bool {
	return r.Success != nil && !*r.Success
}

// Highlight is one video highlight attached to a result.
type Highlight struct {
	Title          string
	URL            string
	Duration       string
	SourceType     string
	IsNBCSports    bool
	IsOfficialClub bool
	Confidence     *float64
}

// MatchMetadata describes the match a result is about.
type MatchMetadata struct {
	HomeTeam      string
	AwayTeam      string
	MatchDate     string
	Score         string
	Competition   string
	KeyMoments    []KeyMoment
	ManOfTheMatch string
	MatchSummary  string
}

// KeyMoment is one notable event in a match.
type KeyMoment struct {
	Minute         string
	Event          string
	Description    string
	Team           string
	MomentumImpact string
	Reasoning      string
}

// GameAnalysis holds long-form analysis. The momentum and tactical sections
// have no fixed shape across backend versions and are kept as raw JSON.
type GameAnalysis struct {
	DeepAnalysis     string
	MomentumAnalysis []json.RawMessage
	TacticalAnalysis json.RawMessage
}

// RawResult is a result payload as decoded from the wire, before
// normalization. Its shape varies between backend versions:
//
//   - Summary and Answer are aliases; Summary wins when non-empty.
//   - Highlights holds whatever the backend sent: a []any of string and
//     Highlight elements when it sent an array, []Highlight or []string when
//     built in Go, or any other value (which normalizes to empty).
//   - Sources is a []string or []any when an array was sent, anything else
//     otherwise.
type RawResult struct {
	Success       *bool
	Intent        string
	Summary       string
	Answer        string
	MatchMetadata *MatchMetadata
	Highlights    any
	Sources       any
	GameAnalysis  *GameAnalysis
	Error         string
}

// Normalize maps a raw result onto the canonical Result shape.
func Normalize(raw RawResult) Result {
	r := Result{
		Success:       raw.Success,
		Intent:        raw.Intent,
		Summary:       raw.Summary,
		MatchMetadata: raw.MatchMetadata,
		Highlights:    normalizeHighlights(raw.Highlights),
		Sources:       normalizeSources(raw.Sources),
		GameAnalysis:  raw.GameAnalysis,
		Error:         raw.Error,
	}
	if r.Summary == "" {
		r.Summary = raw.Answer
	}
	return r
}

// Raw returns r as a RawResult. Normalize(r.Raw()) equals r for any
// normalized r.
func (r Result) Raw() RawResult {
	return RawResult{
		Success:       r.Success,
		Intent:        r.Intent,
		Summary:       r.Summary,
		MatchMetadata: r.MatchMetadata,
		Highlights:    slices.Clone(r.Highlights),
		Sources:       slices.Clone(r.Sources),
		GameAnalysis:  r.GameAnalysis,
		Error:         r.Error,
	}
}

func normalizeHighlights(v any) []Highlight {
	out := []Highlight{}
	switch hs := v.(type) {
	case []Highlight:
		out = append(out, hs...)
	case []string:
		for _, s := range hs {
			out = append(out, Highlight{Title: s})
		}
	case []any:
		for _, h := range hs {
			switch h := h.(type) {
			case string:
				out = append(out, Highlight{Title: h})
			case Highlight:
				out = append(out, h)
			case *Highlight:
				if h != nil {
					out = append(out, *h)
				}
			}
		}
	}
	return out
}

func normalizeSources(v any) []string {
	out := []string{}
	switch ss := v.(type) {
	case []string:
		out = append(out, ss...)
	case []any:
		for _, s := range ss {
			if s, ok := s.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
