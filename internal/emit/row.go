// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package emit projects match results into TSV rows and appends them to the
// output file, one open-append-close cycle per row so that rows already
// written survive a crash.
package emit

import (
	"strconv"
	"strings"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// Header is the TSV column header line, in output order.
var Header = []string{
	"CRIS_ID",
	"Title",
	"Year",
	"PublicationType",
	"DOI",
	"PMID",
	"OA_ID",
	"Scopus_EID",
	"Home_Affiliation",
	"OA_Citation_Count",
	"Scopus_Citation_Count",
	"BIP_CC",
	"BIP_Attrank",
	"BIP_Pagerank",
	"Match_Type",
}

// BuildRow projects rec and res into an output row. Match-dependent columns
// stay empty for NO MATCH rows. The DOI column is only filled on DOI
// matches and the PMID column only on PMID matches, recording which
// identifier produced the match.
func BuildRow(rec types.SourceRecord, res types.MatchResult) types.OutputRow {
	row := types.OutputRow{
		SourceID:        rec.ID,
		Title:           rec.Title,
		PublicationType: rec.PublicationType,
		ScopusEID:       rec.ScopusEID,
		Tag:             string(types.NoMatch),
	}
	if rec.Year > 0 {
		row.Year = strconv.Itoa(rec.Year)
	}

	if !res.Tag.Matched() || res.Target == nil {
		return row
	}

	row.Tag = string(res.Tag)
	switch res.Tag {
	case types.MatchDOI:
		row.DOI = rec.DOI
	case types.MatchPMID:
		row.PMID = rec.PMID
	}

	row.TargetID = res.Target.ID
	row.HomeAffiliation = "0"
	if res.HomeAffiliation {
		row.HomeAffiliation = "1"
	}
	row.CitationCount = strconv.Itoa(res.Target.CitedByCount)
	row.ScopusCitationCount = strconv.Itoa(res.Scores.ScopusCitations)
	row.BIPCitationCount = formatScore(res.Scores.BIPCitationCount)
	row.BIPAttRank = formatScore(res.Scores.BIPAttRank)
	row.BIPPageRank = formatScore(res.Scores.BIPPageRank)
	return row
}

// FormatLine joins fields with tabs and terminates the line. Tabs and line
// breaks inside a field become spaces so one row stays one line.
func FormatLine(fields []string) string {
	clean := make([]string, len(fields))
	for i, f := range fields {
		clean[i] = fieldCleaner.Replace(f)
	}
	return strings.Join(clean, "\t") + "\n"
}

var fieldCleaner = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// formatScore renders a float with the shortest exact representation
// (12, 0.5, 3.2e-08).
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
