// Package json encodes analysis reports and normalized results as JSON.
//
// A report is the outcome of one session: the query, its final state, the
// progress log and the normalized result. Field names follow the service's
// snake_case schema. The DTOs also carry yaml tags so the same report can be
// written as YAML.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/pitch"
)

// reportVersion is the version of the report envelope.
const reportVersion = 1

// Report is the v1 wire format for a finished session.
type Report struct {
	Version       int           `json:"version" yaml:"version"`
	Query         QueryDTO      `json:"query" yaml:"query"`
	State         string        `json:"state" yaml:"state"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	Message       string        `json:"message,omitempty" yaml:"message,omitempty"`
	Progress      []ProgressDTO `json:"progress" yaml:"progress"`
	TotalProgress int           `json:"total_progress" yaml:"total_progress"`
	Result        *ResultDTO    `json:"result,omitempty" yaml:"result,omitempty"`
}

// QueryDTO is the JSON representation of a Query.
type QueryDTO struct {
	Text              string `json:"text" yaml:"text"`
	IncludeHighlights bool   `json:"include_highlights" yaml:"include_highlights"`
	EmphasizeOrder    bool   `json:"emphasize_order" yaml:"emphasize_order"`
	Audience          string `json:"audience,omitempty" yaml:"audience,omitempty"`
}

// ProgressDTO is the JSON representation of a ProgressEvent.
type ProgressDTO struct {
	Stage   string `json:"stage" yaml:"stage"`
	Message string `json:"message" yaml:"message"`
	Status  string `json:"status" yaml:"status"`
}

// ResultDTO is the JSON representation of a normalized Result. Highlights
// and Sources are always arrays.
type ResultDTO struct {
	Success       *bool             `json:"success,omitempty" yaml:"success,omitempty"`
	Intent        string            `json:"intent,omitempty" yaml:"intent,omitempty"`
	Summary       string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	MatchMetadata *MatchMetadataDTO `json:"match_metadata,omitempty" yaml:"match_metadata,omitempty"`
	Highlights    []HighlightDTO    `json:"highlights" yaml:"highlights"`
	Sources       []string          `json:"sources" yaml:"sources"`
	GameAnalysis  *GameAnalysisDTO  `json:"game_analysis,omitempty" yaml:"game_analysis,omitempty"`
	Error         string            `json:"error,omitempty" yaml:"error,omitempty"`
}

type MatchMetadataDTO struct {
	HomeTeam      string         `json:"home_team,omitempty" yaml:"home_team,omitempty"`
	AwayTeam      string         `json:"away_team,omitempty" yaml:"away_team,omitempty"`
	MatchDate     string         `json:"match_date,omitempty" yaml:"match_date,omitempty"`
	Score         string         `json:"score,omitempty" yaml:"score,omitempty"`
	Competition   string         `json:"competition,omitempty" yaml:"competition,omitempty"`
	KeyMoments    []KeyMomentDTO `json:"key_moments,omitempty" yaml:"key_moments,omitempty"`
	ManOfTheMatch string         `json:"man_of_the_match,omitempty" yaml:"man_of_the_match,omitempty"`
	MatchSummary  string         `json:"match_summary,omitempty" yaml:"match_summary,omitempty"`
}

type KeyMomentDTO struct {
	Minute         string `json:"minute,omitempty" yaml:"minute,omitempty"`
	Event          string `json:"event,omitempty" yaml:"event,omitempty"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	Team           string `json:"team,omitempty" yaml:"team,omitempty"`
	MomentumImpact string `json:"momentum_impact,omitempty" yaml:"momentum_impact,omitempty"`
	Reasoning      string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

type HighlightDTO struct {
	Title          string   `json:"title" yaml:"title"`
	URL            string   `json:"url,omitempty" yaml:"url,omitempty"`
	Duration       string   `json:"duration,omitempty" yaml:"duration,omitempty"`
	SourceType     string   `json:"source_type,omitempty" yaml:"source_type,omitempty"`
	IsNBCSports    bool     `json:"is_nbc_sports,omitempty" yaml:"is_nbc_sports,omitempty"`
	IsOfficialClub bool     `json:"is_official_club,omitempty" yaml:"is_official_club,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// GameAnalysisDTO keeps the free-form analysis parts as decoded JSON values
// so they survive both JSON and YAML encoding.
type GameAnalysisDTO struct {
	DeepAnalysis     string `json:"deep_analysis,omitempty" yaml:"deep_analysis,omitempty"`
	MomentumAnalysis []any  `json:"momentum_analysis,omitempty" yaml:"momentum_analysis,omitempty"`
	TacticalAnalysis any    `json:"tactical_analysis,omitempty" yaml:"tactical_analysis,omitempty"`
}

// NewReport converts a snapshot into a Report.
func NewReport(s pitch.Snapshot) (Report, error) {
	rep := Report{
		Version: reportVersion,
		Query: QueryDTO{
			Text:              s.Query.Text,
			IncludeHighlights: s.Query.IncludeHighlights,
			EmphasizeOrder:    s.Query.EmphasizeOrder,
			Audience:          s.Query.Audience,
		},
		State:         s.State.String(),
		Progress:      make([]ProgressDTO, len(s.Progress)),
		TotalProgress: s.Total,
	}
	for i, p := range s.Progress {
		rep.Progress[i] = ProgressDTO(p)
	}
	if s.Err != nil {
		rep.Error = s.Err.Error()
		rep.Message = pitch.UserMessage(s.Err)
	}
	if s.Result != nil {
		dto, err := newResultDTO(*s.Result)
		if err != nil {
			return Report{}, fmt.Errorf("result: %w", err)
		}
		rep.Result = &dto
	}
	return rep, nil
}

// MarshalReport serializes a snapshot to JSON in v1 report format.
func MarshalReport(s pitch.Snapshot) ([]byte, error) {
	rep, err := NewReport(s)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(rep, "", "  ")
}

// UnmarshalReport deserializes a snapshot from JSON in v1 report format.
// The generation is not part of a report and is left zero. A reported error
// comes back as a plain error carrying the original text.
func UnmarshalReport(data []byte) (pitch.Snapshot, error) {
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return pitch.Snapshot{}, fmt.Errorf("unmarshal report: %w", err)
	}
	if rep.Version != reportVersion {
		return pitch.Snapshot{}, fmt.Errorf("unsupported report version: %d", rep.Version)
	}
	state, err := pitch.ParseSessionState(rep.State)
	if err != nil {
		return pitch.Snapshot{}, err
	}
	s := pitch.Snapshot{
		State: state,
		Query: pitch.Query{
			Text:              rep.Query.Text,
			IncludeHighlights: rep.Query.IncludeHighlights,
			EmphasizeOrder:    rep.Query.EmphasizeOrder,
			Audience:          rep.Query.Audience,
		},
		Progress: make([]pitch.ProgressEvent, len(rep.Progress)),
		Total:    rep.TotalProgress,
	}
	for i, p := range rep.Progress {
		s.Progress[i] = pitch.ProgressEvent(p)
	}
	if rep.Error != "" {
		s.Err = errors.New(rep.Error)
	}
	if rep.Result != nil {
		r, err := rep.Result.result()
		if err != nil {
			return pitch.Snapshot{}, fmt.Errorf("result: %w", err)
		}
		s.Result = &r
	}
	return s, nil
}

// MarshalResult serializes a normalized result.
func MarshalResult(r pitch.Result) ([]byte, error) {
	dto, err := newResultDTO(r)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(dto, "", "  ")
}

// UnmarshalResult deserializes a result written by MarshalResult.
func UnmarshalResult(data []byte) (pitch.Result, error) {
	var dto ResultDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return pitch.Result{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return dto.result()
}

// Save writes a report for s to a JSON file, creating parent directories as
// needed. The file is replaced atomically.
func Save(path string, s pitch.Snapshot) error {
	data, err := MarshalReport(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
