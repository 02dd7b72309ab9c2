// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cris-reconcile/internal/httputil"
	"github.com/pdiddy/cris-reconcile/pkg/types"
)

func jsonServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// --- Scopus ---

func TestScopusCitationCount(t *testing.T) {
	var got *http.Request
	ts := jsonServer(t, http.StatusOK,
		`{"search-results": {"entry": [{"citedby-count": "17"}]}}`,
		func(r *http.Request) { got = r })

	c := NewScopusClient(
		types.ScopusConfig{Endpoint: ts.URL, APIKey: "key-1", InstToken: "tok-1"},
		httputil.NewClient("Scopus", ts.Client(), "", 0),
	)

	count, err := c.CitationCount(context.Background(), "2-s2.0-85012345")
	require.NoError(t, err)
	assert.Equal(t, 17, count)

	require.NotNil(t, got)
	assert.Equal(t, "/search/scopus", got.URL.Path)
	assert.Equal(t, "EID(2-s2.0-85012345)", got.URL.Query().Get("query"))
	assert.Equal(t, "citedby-count", got.URL.Query().Get("field"))
	assert.Equal(t, "key-1", got.Header.Get("X-ELS-APIKey"))
	assert.Equal(t, "tok-1", got.Header.Get("X-ELS-Insttoken"))
	assert.Equal(t, "XOCS", got.Header.Get("X-Els-ResourceVersion"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
}

func TestScopusCitationCount_Variants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"numeric count", `{"search-results": {"entry": [{"citedby-count": 5}]}}`, 5},
		{"empty result set entry", `{"search-results": {"entry": [{"error": "Result set was empty"}]}}`, 0},
		{"no entries", `{"search-results": {"entry": []}}`, 0},
		{"no search results", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := jsonServer(t, http.StatusOK, tt.body, nil)
			c := NewScopusClient(types.ScopusConfig{Endpoint: ts.URL, APIKey: "k"}, httputil.NewClient("Scopus", ts.Client(), "", 0))

			count, err := c.CitationCount(context.Background(), "2-s2.0-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestScopusCitationCount_NoInstToken(t *testing.T) {
	var hasToken bool
	ts := jsonServer(t, http.StatusOK, `{}`, func(r *http.Request) {
		_, hasToken = r.Header["X-Els-Insttoken"]
	})
	c := NewScopusClient(types.ScopusConfig{Endpoint: ts.URL, APIKey: "k"}, httputil.NewClient("Scopus", ts.Client(), "", 0))

	_, err := c.CitationCount(context.Background(), "2-s2.0-1")
	require.NoError(t, err)
	assert.False(t, hasToken)
}

func TestScopusCitationCount_HTTPError(t *testing.T) {
	ts := jsonServer(t, http.StatusUnauthorized, `{"error":"invalid key"}`, nil)
	c := NewScopusClient(types.ScopusConfig{Endpoint: ts.URL, APIKey: "bad"}, httputil.NewClient("Scopus", ts.Client(), "", 0))

	_, err := c.CitationCount(context.Background(), "2-s2.0-1")
	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

// --- BIP ---

func TestBIPScores(t *testing.T) {
	var escapedPath string
	ts := jsonServer(t, http.StatusOK,
		`{"doi": "10.1000/abc", "cc": 12, "attrank": 1.5e-9, "pagerank": "3.2e-08"}`,
		func(r *http.Request) { escapedPath = r.URL.EscapedPath() })

	c := NewBIPClient(types.BIPConfig{Endpoint: ts.URL + "/"}, httputil.NewClient("BIP", ts.Client(), "", 0))

	s, err := c.Scores(context.Background(), "10.1000/abc")
	require.NoError(t, err)
	assert.Equal(t, "/paper/scores/10.1000%2Fabc", escapedPath)
	assert.Equal(t, BIPScores{CitationCount: 12, AttRank: 1.5e-9, PageRank: 3.2e-8}, s)
}

func TestBIPScores_Variants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want BIPScores
	}{
		{"list response", `[{"doi": "10.1/x", "cc": "4", "attrank": 0.5, "pagerank": 0.25}]`, BIPScores{4, 0.5, 0.25}},
		{"no doi echoed", `{"cc": 99, "attrank": 1, "pagerank": 1}`, BIPScores{}},
		{"empty list", `[]`, BIPScores{}},
		{"null and missing scores", `{"doi": "10.1/x", "cc": null}`, BIPScores{}},
		{"non-numeric string", `{"doi": "10.1/x", "cc": "n/a", "attrank": 2}`, BIPScores{AttRank: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := jsonServer(t, http.StatusOK, tt.body, nil)
			c := NewBIPClient(types.BIPConfig{Endpoint: ts.URL}, httputil.NewClient("BIP", ts.Client(), "", 0))

			s, err := c.Scores(context.Background(), "10.1/x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestBIPScores_Errors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		ts := jsonServer(t, http.StatusNotFound, `not found`, nil)
		c := NewBIPClient(types.BIPConfig{Endpoint: ts.URL}, httputil.NewClient("BIP", ts.Client(), "", 0))
		_, err := c.Scores(context.Background(), "10.1/x")
		assert.Error(t, err)
	})
	t.Run("malformed body", func(t *testing.T) {
		ts := jsonServer(t, http.StatusOK, `{"doi": 5}`, nil)
		c := NewBIPClient(types.BIPConfig{Endpoint: ts.URL}, httputil.NewClient("BIP", ts.Client(), "", 0))
		_, err := c.Scores(context.Background(), "10.1/x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing BIP response")
	})
}
