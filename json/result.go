package json

import (
	"encoding/json"

	"github.com/fwojciec/pitch"
)

func newResultDTO(r pitch.Result) (ResultDTO, error) {
	dto := ResultDTO{
		Success:    r.Success,
		Intent:     r.Intent,
		Summary:    r.Summary,
		Highlights: make([]HighlightDTO, len(r.Highlights)),
		Sources:    append([]string{}, r.Sources...),
		Error:      r.Error,
	}
	for i, h := range r.Highlights {
		dto.Highlights[i] = HighlightDTO(h)
	}
	if m := r.MatchMetadata; m != nil {
		md := &MatchMetadataDTO{
			HomeTeam:      m.HomeTeam,
			AwayTeam:      m.AwayTeam,
			MatchDate:     m.MatchDate,
			Score:         m.Score,
			Competition:   m.Competition,
			ManOfTheMatch: m.ManOfTheMatch,
			MatchSummary:  m.MatchSummary,
		}
		for _, k := range m.KeyMoments {
			md.KeyMoments = append(md.KeyMoments, KeyMomentDTO(k))
		}
		dto.MatchMetadata = md
	}
	if g := r.GameAnalysis; g != nil {
		ga := &GameAnalysisDTO{DeepAnalysis: g.DeepAnalysis}
		for _, raw := range g.MomentumAnalysis {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return ResultDTO{}, err
			}
			ga.MomentumAnalysis = append(ga.MomentumAnalysis, v)
		}
		if len(g.TacticalAnalysis) > 0 {
			if err := json.Unmarshal(g.TacticalAnalysis, &ga.TacticalAnalysis); err != nil {
				return ResultDTO{}, err
			}
		}
		dto.GameAnalysis = ga
	}
	return dto, nil
}

func (dto ResultDTO) result() (pitch.Result, error) {
	raw := pitch.RawResult{
		Success: dto.Success,
		Intent:  dto.Intent,
		Summary: dto.Summary,
		Error:   dto.Error,
	}
	highlights := make([]pitch.Highlight, len(dto.Highlights))
	for i, h := range dto.Highlights {
		highlights[i] = pitch.Highlight(h)
	}
	raw.Highlights = highlights
	if dto.Sources != nil {
		raw.Sources = dto.Sources
	}
	if m := dto.MatchMetadata; m != nil {
		md := &pitch.MatchMetadata{
			HomeTeam:      m.HomeTeam,
			AwayTeam:      m.AwayTeam,
			MatchDate:     m.MatchDate,
			Score:         m.Score,
			Competition:   m.Competition,
			ManOfTheMatch: m.ManOfTheMatch,
			MatchSummary:  m.MatchSummary,
		}
		for _, k := range m.KeyMoments {
			md.KeyMoments = append(md.KeyMoments, pitch.KeyMoment(k))
		}
		raw.MatchMetadata = md
	}
	if g := dto.GameAnalysis; g != nil {
		ga := &pitch.GameAnalysis{DeepAnalysis: g.DeepAnalysis}
		for _, v := range g.MomentumAnalysis {
			b, err := json.Marshal(v)
			if err != nil {
				return pitch.Result{}, err
			}
			ga.MomentumAnalysis = append(ga.MomentumAnalysis, b)
		}
		if g.TacticalAnalysis != nil {
			b, err := json.Marshal(g.TacticalAnalysis)
			if err != nil {
				return pitch.Result{}, err
			}
			ga.TacticalAnalysis = b
		}
		raw.GameAnalysis = ga
	}
	return pitch.Normalize(raw), nil
}
