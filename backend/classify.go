package backend

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/fwojciec/pitch"
)

// Classify parses a record payload into an event. It returns false for
// records that carry no event: empty records, the sentinel, and payloads
// that are not well-formed JSON objects. Malformed records are never an
// error; callers skip them and keep reading.
//
// The payload may carry its fields at the top level or nested under "data".
// A field is read from the top level first, then from the nested object,
// then a default applies. A "type" of "result" marks the terminal result;
// any other type, or a "stage" field when no type is given, marks progress.
func Classify(rec string) (pitch.Event, bool) {
	rec = strings.TrimSpace(rec)
	if rec == "" || rec == Sentinel {
		return nil, false
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec), &top); err != nil || top == nil {
		return nil, false
	}
	nested := object(top["data"])

	kind := field(top, nested, "type")
	switch {
	case kind == "result":
		body := json.RawMessage(rec)
		if nested != nil {
			body = top["data"]
		}
		raw, err := decodeResult(body)
		if err != nil {
			return nil, false
		}
		return pitch.EventResult{Raw: raw}, true

	case kind != "" || field(top, nested, "stage") != "":
		return pitch.EventProgress{Progress: pitch.ProgressEvent{
			Stage:   fieldOr(top, nested, "stage", pitch.DefaultStage),
			Message: fieldOr(top, nested, "message", pitch.DefaultMessage),
			Status:  fieldOr(top, nested, "status", pitch.DefaultStatus),
		}}, true
	}
	return nil, false
}

// IsSentinel reports whether rec is the end-of-stream sentinel.
func IsSentinel(rec string) bool {
	return strings.TrimSpace(rec) == Sentinel
}

// object decodes raw as a JSON object, or returns nil when it is not one.
func object(raw json.RawMessage) map[string]json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// field returns a non-empty string field, top level first. Non-string
// values count as absent.
func field(top, nested map[string]json.RawMessage, key string) string {
	if s := str(top[key]); s != "" {
		return s
	}
	return str(nested[key])
}

func fieldOr(top, nested map[string]json.RawMessage, key, def string) string {
	if s := field(top, nested, key); s != "" {
		return s
	}
	return def
}

func str(raw json.RawMessage) string {
	s, _ := text(raw)
	return s
}

// text decodes and sanitizes raw when it is a JSON string. Null is not a
// string.
func text(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return Sanitize(s), true
}

// decodeResult maps a result object onto a pitch.RawResult, keeping the
// polymorphic fields loosely typed for the normalizer.
func decodeResult(body json.RawMessage) (pitch.RawResult, error) {
	var w wireResult
	if err := json.Unmarshal(body, &w); err != nil {
		return pitch.RawResult{}, err
	}
	return pitch.RawResult{
		Success:       w.Success,
		Intent:        string(w.Intent),
		Summary:       string(w.Summary),
		Answer:        string(w.Answer),
		MatchMetadata: decodeMatchMetadata(w.MatchMetadata),
		Highlights:    decodeHighlights(w.Highlights),
		Sources:       decodeSources(w.Sources),
		GameAnalysis:  decodeGameAnalysis(w.GameAnalysis),
		Error:         string(w.Error),
	}, nil
}

func decodeMatchMetadata(raw json.RawMessage) *pitch.MatchMetadata {
	if object(raw) == nil {
		return nil
	}
	var w wireMatchMetadata
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}
	m := &pitch.MatchMetadata{
		HomeTeam:      string(w.HomeTeam),
		AwayTeam:      string(w.AwayTeam),
		MatchDate:     string(w.MatchDate),
		Score:         string(w.Score),
		Competition:   string(w.Competition),
		ManOfTheMatch: string(w.ManOfTheMatch),
		MatchSummary:  string(w.MatchSummary),
	}
	for _, k := range w.KeyMoments {
		m.KeyMoments = append(m.KeyMoments, pitch.KeyMoment{
			Minute:         string(k.Minute),
			Event:          string(k.Event),
			Description:    string(k.Description),
			Team:           string(k.Team),
			MomentumImpact: string(k.MomentumImpact),
			Reasoning:      string(k.Reasoning),
		})
	}
	return m
}

func decodeGameAnalysis(raw json.RawMessage) *pitch.GameAnalysis {
	if object(raw) == nil {
		return nil
	}
	var w wireGameAnalysis
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}
	return &pitch.GameAnalysis{
		DeepAnalysis:     string(w.DeepAnalysis),
		MomentumAnalysis: w.MomentumAnalysis,
		TacticalAnalysis: w.TacticalAnalysis,
	}
}

// decodeHighlights returns a []any of string and pitch.Highlight elements
// when raw is an array. Elements of other kinds are dropped. Anything that
// is not an array is returned as is, which the normalizer maps to empty.
func decodeHighlights(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return raw
	}
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		if s, ok := text(e); ok {
			out = append(out, s)
			continue
		}
		if object(e) == nil {
			continue
		}
		var w wireHighlight
		if err := json.Unmarshal(e, &w); err != nil {
			continue
		}
		out = append(out, pitch.Highlight{
			Title:          string(w.Title),
			URL:            string(w.URL),
			Duration:       string(w.Duration),
			SourceType:     string(w.SourceType),
			IsNBCSports:    w.IsNBCSports,
			IsOfficialClub: w.IsOfficialClub,
			Confidence:     parseConfidence(w.Confidence),
		})
	}
	return out
}

// decodeSources keeps the string elements of an array.
func decodeSources(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return raw
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if s, ok := text(e); ok {
			out = append(out, s)
		}
	}
	return out
}
