// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// Deterministic, strictly increasing clock.
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var tick int
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func TestStartAndFinishRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.StartRun(ctx, "run-1", 200))
	stats := types.RunStats{
		RunID: "run-1", Pages: 3, Checked: 250, MatchedDOI: 200, MatchedPMID: 10,
		MatchedTitle: 20, Unmatched: 20, Rows: 260, StrategyErrors: 2, EnrichmentErrors: 1,
	}
	require.NoError(t, s.FinishRun(ctx, stats, nil))

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, "run-1", r.ID)
	assert.Equal(t, StatusCompleted, r.Status)
	assert.Equal(t, 200, r.StartOffset)
	assert.Equal(t, stats, r.Stats)
	assert.Empty(t, r.Error)
	assert.True(t, r.FinishedAt.After(r.StartedAt))
}

func TestFinishRun_Status(t *testing.T) {
	tests := []struct {
		name   string
		runErr error
		want   string
	}{
		{"completed", nil, StatusCompleted},
		{"failed", errors.New("source registry fetch failed"), StatusFailed},
		{"cancelled", fmt.Errorf("stopping: %w", context.Canceled), StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestStore(t)
			require.NoError(t, s.StartRun(ctx, "r", 0))
			require.NoError(t, s.FinishRun(ctx, types.RunStats{RunID: "r"}, tt.runErr))

			runs, err := s.Runs(ctx, 1)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, tt.want, runs[0].Status)
			if tt.runErr != nil {
				assert.Equal(t, tt.runErr.Error(), runs[0].Error)
			}
		})
	}
}

func TestFinishRun_UnknownRun(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishRun(context.Background(), types.RunStats{RunID: "missing"}, nil)
	assert.Error(t, err)
}

func TestRuns_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.StartRun(ctx, id, 0))
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, StatusRunning, runs[0].Status)
	assert.True(t, runs[0].FinishedAt.IsZero())
}

func TestRecordOutcome(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.StartRun(ctx, "run-1", 0))

	attempts := []types.MatchAttempt{
		{Strategy: types.MatchDOI, Query: "10.1/x", Err: "HTTP 500"},
		{Strategy: types.MatchPMID, Query: "77", Count: 2},
	}
	require.NoError(t, s.RecordOutcome(ctx, "run-1", types.SourceRecord{ID: "P1"}, types.CascadeOutcome{
		Tag:      types.MatchPMID,
		Targets:  []types.TargetRecord{{ID: "W1"}, {ID: "W2"}},
		Attempts: attempts,
	}))
	require.NoError(t, s.RecordOutcome(ctx, "run-1", types.SourceRecord{ID: "P2"}, types.CascadeOutcome{
		Tag: types.NoMatch,
	}))

	got, err := s.Outcomes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, Outcome{RunID: "run-1", SourceID: "P1", Tag: types.MatchPMID, TargetID: "W1", Attempts: attempts}, got[0])
	assert.Equal(t, "W2", got[1].TargetID)
	assert.Equal(t, Outcome{RunID: "run-1", SourceID: "P2", Tag: types.NoMatch}, got[2])
}

func TestRecordOutcome_UnknownRunViolatesForeignKey(t *testing.T) {
	s := newTestStore(t)
	err := s.RecordOutcome(context.Background(), "nope", types.SourceRecord{ID: "P1"}, types.CascadeOutcome{Tag: types.NoMatch})
	assert.Error(t, err)
}
