// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RunStats accumulates process-wide statistics for one reconciliation run.
// The run driver owns it and returns it to the caller.
type RunStats struct {
	RunID            string `json:"run_id" yaml:"run_id"`
	Checked          int    `json:"checked" yaml:"checked"`
	MatchedDOI       int    `json:"matched_doi" yaml:"matched_doi"`
	MatchedPMID      int    `json:"matched_pmid" yaml:"matched_pmid"`
	MatchedTitle     int    `json:"matched_title" yaml:"matched_title"`
	Unmatched        int    `json:"unmatched" yaml:"unmatched"`
	Rows             int    `json:"rows" yaml:"rows"`
	Pages            int    `json:"pages" yaml:"pages"`
	StrategyErrors   int    `json:"strategy_errors" yaml:"strategy_errors"`
	EnrichmentErrors int    `json:"enrichment_errors" yaml:"enrichment_errors"`
}

// Matched returns the number of records matched by any strategy.
func (s RunStats) Matched() int {
	return s.MatchedDOI + s.MatchedPMID + s.MatchedTitle
}

// Count records one checked source record under its cascade tag.
func (s *RunStats) Count(tag MatchTag) {
	s.Checked++
	switch tag {
	case MatchDOI:
		s.MatchedDOI++
	case MatchPMID:
		s.MatchedPMID++
	case MatchTitle:
		s.MatchedTitle++
	default:
		s.Unmatched++
	}
}
