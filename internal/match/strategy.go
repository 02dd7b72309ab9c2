// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match resolves a source record to target registry works through an
// ordered cascade of strategies (DOI, then PMID, then title and year), and
// evaluates home-institution affiliation on the works it finds.
package match

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// Registry is the target registry as seen by the strategies.
// *openalex.Client satisfies it.
type Registry interface {
	ByDOI(ctx context.Context, doi string) ([]types.TargetRecord, error)
	ByPMID(ctx context.Context, pmid string) ([]types.TargetRecord, error)
	ByTitleYear(ctx context.Context, title string, year int) ([]types.TargetRecord, error)
}

// Strategy is one step of the cascade.
type Strategy interface {
	// Tag identifies the strategy on output rows.
	Tag() types.MatchTag

	// Key derives the lookup key from rec. ok is false when rec lacks the
	// fields the strategy needs, in which case it is not attempted.
	Key(rec types.SourceRecord) (key string, ok bool)

	// Lookup queries the target registry.
	Lookup(ctx context.Context, key string, rec types.SourceRecord) ([]types.TargetRecord, error)
}

// DOIStrategy matches on the source DOI.
type DOIStrategy struct{ Registry Registry }

func (DOIStrategy) Tag() types.MatchTag { return types.MatchDOI }

func (DOIStrategy) Key(rec types.SourceRecord) (string, bool) {
	doi := strings.ToLower(strings.TrimSpace(rec.DOI))
	return doi, doi != ""
}

func (s DOIStrategy) Lookup(ctx context.Context, key string, _ types.SourceRecord) ([]types.TargetRecord, error) {
	return s.Registry.ByDOI(ctx, key)
}

// PMIDStrategy matches on the source PubMed identifier.
type PMIDStrategy struct{ Registry Registry }

func (PMIDStrategy) Tag() types.MatchTag { return types.MatchPMID }

func (PMIDStrategy) Key(rec types.SourceRecord) (string, bool) {
	pmid := strings.TrimSpace(rec.PMID)
	return pmid, pmid != ""
}

func (s PMIDStrategy) Lookup(ctx context.Context, key string, _ types.SourceRecord) ([]types.TargetRecord, error) {
	return s.Registry.ByPMID(ctx, key)
}

// TitleYearStrategy matches on the normalized title restricted to the
// publication year. It is skipped for blank titles and unknown years.
type TitleYearStrategy struct{ Registry Registry }

func (TitleYearStrategy) Tag() types.MatchTag { return types.MatchTitle }

func (TitleYearStrategy) Key(rec types.SourceRecord) (string, bool) {
	if rec.Year <= 0 {
		return "", false
	}
	title := strings.TrimSpace(norm.NFC.String(rec.Title))
	return title, title != ""
}

func (s TitleYearStrategy) Lookup(ctx context.Context, key string, rec types.SourceRecord) ([]types.TargetRecord, error) {
	return s.Registry.ByTitleYear(ctx, key, rec.Year)
}

// DefaultStrategies returns the cascade order DOI, PMID, TITLE over reg.
func DefaultStrategies(reg Registry) []Strategy {
	return []Strategy{
		DOIStrategy{Registry: reg},
		PMIDStrategy{Registry: reg},
		TitleYearStrategy{Registry: reg},
	}
}
