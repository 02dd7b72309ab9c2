// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// Cascade tries strategies in order and stops at the first one that returns
// at least one target.
type Cascade struct {
	strategies []Strategy
	logger     zerolog.Logger
}

// NewCascade returns a Cascade over strategies, tried in the given order.
func NewCascade(logger zerolog.Logger, strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies, logger: logger}
}

// Match runs the cascade for rec. A failed lookup is logged and counts as
// zero results, so the cascade falls through to the next strategy. Every
// target of the winning strategy is returned. Once ctx is done the cascade
// stops and returns NO MATCH with the attempts made so far; callers check
// ctx before using the outcome.
func (c *Cascade) Match(ctx context.Context, rec types.SourceRecord) types.CascadeOutcome {
	out := types.CascadeOutcome{Tag: types.NoMatch}

	for _, s := range c.strategies {
		key, ok := s.Key(rec)
		if !ok {
			continue
		}

		targets, err := s.Lookup(ctx, key, rec)
		attempt := types.MatchAttempt{Strategy: s.Tag(), Query: key, Count: len(targets)}
		if err != nil {
			attempt.Count = 0
			attempt.Err = err.Error()
			out.Attempts = append(out.Attempts, attempt)
			if ctx.Err() != nil {
				return out
			}
			c.logger.Warn().
				Err(err).
				Str("source_id", rec.ID).
				Str("strategy", string(s.Tag())).
				Str("query", key).
				Msg("target registry lookup failed")
			continue
		}
		out.Attempts = append(out.Attempts, attempt)

		if len(targets) > 0 {
			out.Tag = s.Tag()
			out.Targets = targets
			c.logger.Debug().
				Str("source_id", rec.ID).
				Str("strategy", string(s.Tag())).
				Int("targets", len(targets)).
				Msg("matched")
			return out
		}

		c.logger.Debug().
			Str("source_id", rec.ID).
			Str("strategy", string(s.Tag())).
			Str("query", key).
			Msg("no target for strategy")
	}

	c.logger.Info().Str("source_id", rec.ID).Str("title", rec.Title).Msg("no match")
	return out
}
