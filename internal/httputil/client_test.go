// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Count int `json:"count"`
}

func TestGetJSON_DecodesBody(t *testing.T) {
	var gotUA, gotAccept, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotKey = r.Header.Get("X-Api-Key")
		w.Write([]byte(`{"count": 7}`))
	}))
	defer ts.Close()

	c := NewClient("Test", ts.Client(), "cris-reconcile/test", 0)
	var got payload
	err := c.GetJSON(context.Background(), ts.URL, http.Header{"X-Api-Key": {"k1"}}, &got)
	require.NoError(t, err)

	assert.Equal(t, 7, got.Count)
	assert.Equal(t, "cris-reconcile/test", gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "k1", gotKey)
}

func TestGetJSON_BasicAuth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"count": 1}`))
	}))
	defer ts.Close()

	c := NewClient("CRIS", ts.Client(), "", 0)
	c.SetBasicAuth("alice", "s3cret")

	var got payload
	require.NoError(t, c.GetJSON(context.Background(), ts.URL, nil, &got))
	assert.Equal(t, 1, got.Count)
}

func TestGetJSON_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("  upstream down \n"))
	}))
	defer ts.Close()

	c := NewClient("OpenAlex", ts.Client(), "", 0)
	var got payload
	err := c.GetJSON(context.Background(), ts.URL, nil, &got)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "OpenAlex", se.Service)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "upstream down", se.Body)
	assert.Contains(t, err.Error(), "OpenAlex API returned HTTP 503")
}

func TestGetJSON_MalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer ts.Close()

	c := NewClient("Scopus", ts.Client(), "", 0)
	var got payload
	err := c.GetJSON(context.Background(), ts.URL, nil, &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing Scopus response")
}

func TestGetJSON_CancelledContext(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("BIP", ts.Client(), "", 0)
	var got payload
	err := c.GetJSON(ctx, ts.URL, nil, &got)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

// --- Limiter ---

func TestNewLimiter_DisabledWhenRateNotPositive(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	assert.Nil(t, NewLimiter(-1))
	assert.NotNil(t, NewLimiter(2))
}

func TestLimiter_NilNeverBlocks(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := NewLimiter(0.001)
	// The first token is available immediately.
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}
