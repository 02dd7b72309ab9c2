// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MatchTag names the strategy that produced a match, or NoMatch.
type MatchTag string

const (
	MatchDOI   MatchTag = "DOI"
	MatchPMID  MatchTag = "PMID"
	MatchTitle MatchTag = "TITLE"
	NoMatch    MatchTag = "NO MATCH"
)

// Matched reports whether the tag names a successful strategy.
func (t MatchTag) Matched() bool {
	switch t {
	case MatchDOI, MatchPMID, MatchTitle:
		return true
	default:
		return false
	}
}

// MatchAttempt records one strategy query tried against the target registry.
type MatchAttempt struct {
	Strategy MatchTag `json:"strategy" yaml:"strategy"`
	Query    string   `json:"query" yaml:"query"`
	Count    int      `json:"count" yaml:"count"`
	Err      string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Authorship is one author entry on a target work.
type Authorship struct {
	InstitutionIDs []string `json:"institution_ids" yaml:"institution_ids"`
}

// TargetRecord is a work returned by the target registry. Fetched fresh per
// query and never cached across records.
type TargetRecord struct {
	ID           string       `json:"id" yaml:"id"`
	Title        string       `json:"title" yaml:"title"`
	CitedByCount int          `json:"cited_by_count" yaml:"cited_by_count"`
	Authorships  []Authorship `json:"authorships" yaml:"authorships"`
}

// EnrichmentScores holds values from the secondary services. Every field
// defaults to zero when the service has no record or the query failed.
type EnrichmentScores struct {
	ScopusCitations  int     `json:"scopus_citations" yaml:"scopus_citations"`
	BIPCitationCount float64 `json:"bip_cc" yaml:"bip_cc"`
	BIPAttRank       float64 `json:"bip_attrank" yaml:"bip_attrank"`
	BIPPageRank      float64 `json:"bip_pagerank" yaml:"bip_pagerank"`
}

// CascadeOutcome is what the match cascade returns for one source record:
// the winning tag, every target the winning strategy returned (fan-out), and
// the attempts made on the way.
type CascadeOutcome struct {
	Tag      MatchTag       `json:"tag" yaml:"tag"`
	Targets  []TargetRecord `json:"targets,omitempty" yaml:"targets,omitempty"`
	Attempts []MatchAttempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// MatchResult is the per-row match outcome. Target is nil for NoMatch.
type MatchResult struct {
	Tag             MatchTag
	Target          *TargetRecord
	HomeAffiliation bool
	Scores          EnrichmentScores
}

// OutputRow is the denormalized projection of a SourceRecord and one
// MatchResult, written as a single TSV line.
type OutputRow struct {
	SourceID            string
	Title               string
	Year                string
	PublicationType     string
	DOI                 string
	PMID                string
	TargetID            string
	ScopusEID           string
	HomeAffiliation     string
	CitationCount       string
	ScopusCitationCount string
	BIPCitationCount    string
	BIPAttRank          string
	BIPPageRank         string
	Tag                 string
}

// Fields returns the row's columns in output order.
func (r OutputRow) Fields() []string {
	return []string{
		r.SourceID, r.Title, r.Year, r.PublicationType, r.DOI, r.PMID,
		r.TargetID, r.ScopusEID, r.HomeAffiliation, r.CitationCount,
		r.ScopusCitationCount, r.BIPCitationCount, r.BIPAttRank, r.BIPPageRank,
		r.Tag,
	}
}
