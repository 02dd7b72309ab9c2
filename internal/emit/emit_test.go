// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package emit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

var rec = types.SourceRecord{
	ID:              "c-1",
	Title:           "Graphene Transistors",
	Year:            2021,
	PublicationType: "Journal Article",
	DOI:             "10.1000/abc",
	PMID:            "3456",
	ScopusEID:       "2-s2.0-85012345",
}

func TestHeaderHasFifteenColumns(t *testing.T) {
	assert.Len(t, Header, 15)
	assert.Equal(t, "CRIS_ID", Header[0])
	assert.Equal(t, "Match_Type", Header[14])
}

// --- BuildRow ---

func TestBuildRow(t *testing.T) {
	target := &types.TargetRecord{ID: "https://openalex.org/W1", CitedByCount: 42}
	scores := types.EnrichmentScores{ScopusCitations: 17, BIPCitationCount: 12, BIPAttRank: 1.5e-9, BIPPageRank: 0.25}

	tests := []struct {
		name string
		res  types.MatchResult
		want []string
	}{
		{
			name: "DOI match fills DOI only",
			res:  types.MatchResult{Tag: types.MatchDOI, Target: target, HomeAffiliation: true, Scores: scores},
			want: []string{"c-1", "Graphene Transistors", "2021", "Journal Article", "10.1000/abc", "", "https://openalex.org/W1", "2-s2.0-85012345", "1", "42", "17", "12", "1.5e-09", "0.25", "DOI"},
		},
		{
			name: "PMID match fills PMID only",
			res:  types.MatchResult{Tag: types.MatchPMID, Target: target, Scores: scores},
			want: []string{"c-1", "Graphene Transistors", "2021", "Journal Article", "", "3456", "https://openalex.org/W1", "2-s2.0-85012345", "0", "42", "17", "12", "1.5e-09", "0.25", "PMID"},
		},
		{
			name: "title match fills neither identifier",
			res:  types.MatchResult{Tag: types.MatchTitle, Target: target},
			want: []string{"c-1", "Graphene Transistors", "2021", "Journal Article", "", "", "https://openalex.org/W1", "2-s2.0-85012345", "0", "42", "0", "0", "0", "0", "TITLE"},
		},
		{
			name: "no match leaves match columns empty",
			res:  types.MatchResult{Tag: types.NoMatch},
			want: []string{"c-1", "Graphene Transistors", "2021", "Journal Article", "", "", "", "2-s2.0-85012345", "", "", "", "", "", "", "NO MATCH"},
		},
		{
			name: "matched tag without target degrades to no match",
			res:  types.MatchResult{Tag: types.MatchDOI},
			want: []string{"c-1", "Graphene Transistors", "2021", "Journal Article", "", "", "", "2-s2.0-85012345", "", "", "", "", "", "", "NO MATCH"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildRow(rec, tt.res).Fields()
			require.Len(t, got, len(Header))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRow_UnknownYear(t *testing.T) {
	row := BuildRow(types.SourceRecord{ID: "c-2"}, types.MatchResult{Tag: types.NoMatch})
	assert.Empty(t, row.Year)
}

func TestFormatLine(t *testing.T) {
	got := FormatLine([]string{"a\tb", "line1\nline2", "crlf\r\nend", ""})
	assert.Equal(t, "a b\tline1 line2\tcrlf end\t\n", got)
	assert.Equal(t, 1, strings.Count(got, "\n"))
}

// --- FileSink ---

func TestFileSink_AppendsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tsv")
	s := NewFileSink(path, types.HeaderAlways)

	require.NoError(t, s.WriteHeader())
	require.NoError(t, s.Emit(BuildRow(rec, types.MatchResult{Tag: types.NoMatch})))
	require.NoError(t, s.Emit(BuildRow(rec, types.MatchResult{Tag: types.NoMatch})))

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Header, "\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "c-1\t"))
}

func TestFileSink_HeaderModes(t *testing.T) {
	t.Run("always appends a header on every run", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.tsv")
		for i := 0; i < 2; i++ {
			require.NoError(t, NewFileSink(path, "").WriteHeader())
		}
		assert.Len(t, readLines(t, path), 2)
	})

	t.Run("if-empty writes the header once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.tsv")
		for i := 0; i < 2; i++ {
			s := NewFileSink(path, types.HeaderIfEmpty)
			require.NoError(t, s.WriteHeader())
			require.NoError(t, s.Emit(BuildRow(rec, types.MatchResult{Tag: types.NoMatch})))
		}
		lines := readLines(t, path)
		require.Len(t, lines, 3)
		assert.Equal(t, "CRIS_ID", strings.Split(lines[0], "\t")[0])
	})
}

func TestFileSink_OpenError(t *testing.T) {
	s := NewFileSink(filepath.Join(t.TempDir(), "missing-dir", "out.tsv"), types.HeaderAlways)
	err := s.Emit(BuildRow(rec, types.MatchResult{Tag: types.NoMatch}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening output file")
}

// --- WriterSink ---

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	require.NoError(t, s.WriteHeader())
	require.NoError(t, s.Emit(BuildRow(rec, types.MatchResult{Tag: types.NoMatch})))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], "\tNO MATCH"))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
