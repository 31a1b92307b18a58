// Package backend implements [pitch.Client] for the match-analysis service.
//
// The service answers POST /query/stream with a newline-delimited stream in
// which every record is a line starting with "data:" followed by a JSON
// payload. Progress payloads precede a single result payload, and the
// sentinel payload "[DONE]" ends the stream logically. The Decoder turns raw
// byte chunks into records, Classify turns records into [pitch.Event]s, and
// the stream returned by Client.Stream drives both one read at a time.
package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
)

const (
	// DefaultBaseURL is the service address used without WithBaseURL.
	DefaultBaseURL = "http://localhost:8000"
	streamPath     = "/query/stream"

	// DataPrefix starts every line that carries a record.
	DataPrefix = "data:"

	// Sentinel is the payload that ends a stream logically.
	Sentinel = "[DONE]"

	// maxErrorBody caps how much of a failed response is read.
	maxErrorBody = 4 << 10
)

// apiRequest is the JSON body sent to the stream endpoint.
type apiRequest struct {
	Query             string `json:"query"`
	IncludeHighlights bool   `json:"include_highlights"`
	EmphasizeOrder    bool   `json:"emphasize_order"`
	Audience          string `json:"audience,omitempty"`
}

// apiErrorResponse is the JSON body some deployments return on non-2xx
// responses. Frameworks disagree on the field name.
type apiErrorResponse struct {
	Detail  flexString `json:"detail"`
	Error   flexString `json:"error"`
	Message flexString `json:"message"`
}

// Result payload types. Backend versions disagree on field types, so text
// fields use flexString and nested objects are decoded leniently.

type wireResult struct {
	Success       *bool           `json:"success"`
	Intent        flexString      `json:"intent"`
	Summary       flexString      `json:"summary"`
	Answer        flexString      `json:"answer"`
	MatchMetadata json.RawMessage `json:"match_metadata"`
	Highlights    json.RawMessage `json:"highlights"`
	Sources       json.RawMessage `json:"sources"`
	GameAnalysis  json.RawMessage `json:"game_analysis"`
	Error         flexString      `json:"error"`
}

type wireMatchMetadata struct {
	HomeTeam      flexString      `json:"home_team"`
	AwayTeam      flexString      `json:"away_team"`
	MatchDate     flexString      `json:"match_date"`
	Score         flexString      `json:"score"`
	Competition   flexString      `json:"competition"`
	KeyMoments    []wireKeyMoment `json:"key_moments"`
	ManOfTheMatch flexString      `json:"man_of_the_match"`
	MatchSummary  flexString      `json:"match_summary"`
}

type wireKeyMoment struct {
	Minute         flexString `json:"minute"`
	Event          flexString `json:"event"`
	Description    flexString `json:"description"`
	Team           flexString `json:"team"`
	MomentumImpact flexString `json:"momentum_impact"`
	Reasoning      flexString `json:"reasoning"`
}

type wireHighlight struct {
	Title          flexString      `json:"title"`
	URL            flexString      `json:"url"`
	Duration       flexString      `json:"duration"`
	SourceType     flexString      `json:"source_type"`
	IsNBCSports    bool            `json:"is_nbc_sports"`
	IsOfficialClub bool            `json:"is_official_club"`
	Confidence     json.RawMessage `json:"confidence"`
}

type wireGameAnalysis struct {
	DeepAnalysis     flexString        `json:"deep_analysis"`
	MomentumAnalysis []json.RawMessage `json:"momentum_analysis"`
	TacticalAnalysis json.RawMessage   `json:"tactical_analysis"`
}

// flexString decodes a JSON string, number or boolean as text. Strings are
// sanitized. Null, objects and arrays decode as the empty string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(Sanitize(s))
	case 't', 'f':
		*f = flexString(data)
	case 'n', '{', '[':
		*f = ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}

// parseConfidence accepts a number or a numeric string.
func parseConfidence(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
