// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile drives one reconciliation run: it pages through the
// source registry, runs every record through the match cascade, enriches and
// evaluates each matched work, and emits one row per outcome.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/cris-reconcile/internal/emit"
	"github.com/pdiddy/cris-reconcile/internal/enrich"
	"github.com/pdiddy/cris-reconcile/internal/match"
	"github.com/pdiddy/cris-reconcile/internal/observability"
	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// ErrSourceFetch marks a failed source page fetch, which aborts the run.
var ErrSourceFetch = errors.New("source registry fetch failed")

// Default pacing between requests.
const (
	DefaultRecordDelay = 500 * time.Millisecond
	DefaultPageDelay   = 1 * time.Second
)

// Pager walks the source result set. *cris.Paginator satisfies it.
type Pager interface {
	Next(ctx context.Context) (types.SourcePage, error)
	Advance()
	Offset() int
	Exhausted(total int) bool
}

// Matcher is satisfied by *match.Cascade.
type Matcher interface {
	Match(ctx context.Context, rec types.SourceRecord) types.CascadeOutcome
}

// Enricher is satisfied by *enrich.Resolver.
type Enricher interface {
	Enrich(ctx context.Context, target types.TargetRecord, rec types.SourceRecord) enrich.Result
}

// Recorder persists per-record outcomes. *ledger.Store satisfies it.
type Recorder interface {
	RecordOutcome(ctx context.Context, runID string, rec types.SourceRecord, outcome types.CascadeOutcome) error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Driver runs the pipeline. Pages, Matcher and Sink are required; the other
// fields are optional.
type Driver struct {
	Pages   Pager
	Matcher Matcher
	Sink    emit.Sink

	// Enricher fills secondary scores. Nil leaves every score at zero.
	Enricher Enricher

	// HomeInstitutionID drives the affiliation flag.
	HomeInstitutionID string

	RecordDelay time.Duration
	PageDelay   time.Duration

	// MaxPages caps the number of fetched pages. Zero means no cap.
	MaxPages int

	// Sleep replaces the real sleeper in tests.
	Sleep SleepFunc

	Logger   zerolog.Logger
	Metrics  *observability.Metrics
	Recorder Recorder
}

// Run processes pages until the source is exhausted, the page cap is hit or
// an unrecoverable error occurs. The returned stats are valid in every case.
func (d *Driver) Run(ctx context.Context, runID string) (types.RunStats, error) {
	stats := types.RunStats{RunID: runID}
	logger := observability.WithRunContext(d.Logger, runID)

	for pages := 0; d.MaxPages <= 0 || pages < d.MaxPages; pages++ {
		offset := d.Pages.Offset()
		page, err := d.Pages.Next(ctx)
		if err != nil {
			return stats, fmt.Errorf("%w at offset %d: %w", ErrSourceFetch, offset, err)
		}
		stats.Pages++
		d.Metrics.RecordPage()

		if page.Total == 0 {
			logger.Info().Msg("source registry reported no publications")
			return stats, nil
		}
		if d.Pages.Exhausted(page.Total) {
			logger.Info().Int("offset", offset).Int("total", page.Total).Msg("offset beyond result set")
			return stats, nil
		}
		if len(page.Records) == 0 {
			logger.Info().Int("offset", offset).Msg("empty page")
			return stats, nil
		}

		logger.Info().
			Int("offset", offset).
			Int("records", len(page.Records)).
			Int("total", page.Total).
			Msg("matching page")

		for _, rec := range page.Records {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if err := d.processRecord(ctx, logger, runID, rec, &stats); err != nil {
				return stats, err
			}
			logger.Debug().
				Int("checked", stats.Checked).
				Int("matched", stats.Matched()).
				Msg("progress")
			if err := d.sleep(ctx, d.RecordDelay); err != nil {
				return stats, err
			}
		}

		logger.Info().
			Int("checked", stats.Checked).
			Int("matched", stats.Matched()).
			Int("unmatched", stats.Unmatched).
			Msg("page done")

		d.Pages.Advance()
		if d.Pages.Exhausted(page.Total) {
			return stats, nil
		}
		if err := d.sleep(ctx, d.PageDelay); err != nil {
			return stats, err
		}
	}

	logger.Warn().Int("max_pages", d.MaxPages).Int("offset", d.Pages.Offset()).Msg("page cap reached")
	return stats, nil
}

// processRecord runs one record through the cascade and emits its rows. A
// record is counted only once all of its rows are written, so Checked is
// always the number of records fully handled. A context cancelled while the
// record is in flight aborts it before anything is emitted.
func (d *Driver) processRecord(ctx context.Context, logger zerolog.Logger, runID string, rec types.SourceRecord, stats *types.RunStats) error {
	outcome := d.Matcher.Match(ctx, rec)
	if err := ctx.Err(); err != nil {
		return err
	}
	if !outcome.Tag.Matched() || len(outcome.Targets) == 0 {
		outcome.Tag = types.NoMatch
		outcome.Targets = nil
	}

	results := []types.MatchResult{{Tag: types.NoMatch}}
	var failed []string
	if outcome.Tag != types.NoMatch {
		results = results[:0]
		for i := range outcome.Targets {
			target := &outcome.Targets[i]
			res := types.MatchResult{
				Tag:             outcome.Tag,
				Target:          target,
				HomeAffiliation: match.HasHomeAffiliation(*target, d.HomeInstitutionID),
			}
			if d.Enricher != nil {
				er := d.Enricher.Enrich(ctx, *target, rec)
				if err := ctx.Err(); err != nil {
					return err
				}
				res.Scores = er.Scores
				failed = append(failed, er.Failed...)
			}
			results = append(results, res)
		}
	}

	for _, res := range results {
		if err := d.emit(rec, res, stats); err != nil {
			return err
		}
	}

	stats.Count(outcome.Tag)
	for _, a := range outcome.Attempts {
		if a.Err != "" {
			stats.StrategyErrors++
		}
	}
	stats.EnrichmentErrors += len(failed)
	d.Metrics.RecordOutcome(outcome)
	for _, svc := range failed {
		d.Metrics.RecordEnrichmentFailure(svc)
	}

	if d.Recorder != nil {
		if err := d.Recorder.RecordOutcome(ctx, runID, rec, outcome); err != nil {
			rl := observability.WithRecordContext(logger, rec)
			rl.Warn().Err(err).Msg("recording outcome in ledger")
		}
	}
	return nil
}

func (d *Driver) emit(rec types.SourceRecord, res types.MatchResult, stats *types.RunStats) error {
	if err := d.Sink.Emit(emit.BuildRow(rec, res)); err != nil {
		return fmt.Errorf("emitting row for %s: %w", rec.ID, err)
	}
	stats.Rows++
	d.Metrics.RecordRow()
	return nil
}

func (d *Driver) sleep(ctx context.Context, dur time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, dur)
	}
	return SleepContext(ctx, dur)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
