// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich attaches secondary scores to matched works: a Scopus
// citation count and BIP! impact indicators. Each sub-query is isolated;
// a failure is logged and leaves that score at zero.
package enrich

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// Service names used in logs, metrics and Result.Failed.
const (
	ServiceScopus = "scopus"
	ServiceBIP    = "bip"
)

// CitationSource is satisfied by *ScopusClient.
type CitationSource interface {
	CitationCount(ctx context.Context, eid string) (int, error)
}

// ScoreSource is satisfied by *BIPClient.
type ScoreSource interface {
	Scores(ctx context.Context, doi string) (BIPScores, error)
}

// Result is the outcome of enriching one matched target.
type Result struct {
	Scores types.EnrichmentScores

	// Failed lists the services whose sub-query failed.
	Failed []string
}

// Resolver runs the enrichment sub-queries. A nil source disables its
// sub-query.
type Resolver struct {
	citations CitationSource
	scores    ScoreSource
	logger    zerolog.Logger
}

// NewResolver returns a Resolver. Pass nil for a service that is not
// configured.
func NewResolver(logger zerolog.Logger, citations CitationSource, scores ScoreSource) *Resolver {
	return &Resolver{citations: citations, scores: scores, logger: logger}
}

// Enrich queries the secondary services for rec. It runs once per matched
// target so every output row carries its own lookup; nothing is cached.
// The Scopus query needs rec.ScopusEID and the BIP! query needs rec.DOI,
// whichever strategy produced the match.
func (r *Resolver) Enrich(ctx context.Context, target types.TargetRecord, rec types.SourceRecord) Result {
	var res Result

	if r.citations != nil && rec.ScopusEID != "" {
		count, err := r.citations.CitationCount(ctx, rec.ScopusEID)
		if err != nil {
			res.Failed = append(res.Failed, ServiceScopus)
			r.logger.Warn().
				Err(err).
				Str("source_id", rec.ID).
				Str("target_id", target.ID).
				Str("eid", rec.ScopusEID).
				Msg("Scopus citation lookup failed")
		} else {
			res.Scores.ScopusCitations = count
		}
	}

	if r.scores != nil && rec.DOI != "" {
		s, err := r.scores.Scores(ctx, rec.DOI)
		if err != nil {
			res.Failed = append(res.Failed, ServiceBIP)
			r.logger.Warn().
				Err(err).
				Str("source_id", rec.ID).
				Str("target_id", target.ID).
				Str("doi", rec.DOI).
				Msg("BIP score lookup failed")
		} else {
			res.Scores.BIPCitationCount = s.CitationCount
			res.Scores.BIPAttRank = s.AttRank
			res.Scores.BIPPageRank = s.PageRank
		}
	}

	return res
}
