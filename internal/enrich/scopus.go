// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/cris-reconcile/internal/httputil"
	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// DefaultScopusEndpoint is the Elsevier content API base.
const DefaultScopusEndpoint = "https://api.elsevier.com/content"

// ScopusClient reads citation counts from the Scopus search API.
type ScopusClient struct {
	http      *httputil.Client
	endpoint  string
	apiKey    string
	instToken string
}

// NewScopusClient returns a client for cfg. An empty endpoint uses
// DefaultScopusEndpoint.
func NewScopusClient(cfg types.ScopusConfig, hc *httputil.Client) *ScopusClient {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultScopusEndpoint
	}
	return &ScopusClient{
		http:      hc,
		endpoint:  endpoint,
		apiKey:    cfg.APIKey,
		instToken: cfg.InstToken,
	}
}

type scopusResponse struct {
	SearchResults struct {
		Entry []struct {
			CitedByCount flexFloat `json:"citedby-count"`
		} `json:"entry"`
	} `json:"search-results"`
}

// CitationCount returns the Scopus citation count for eid, or 0 when Scopus
// has no entry for it.
func (c *ScopusClient) CitationCount(ctx context.Context, eid string) (int, error) {
	params := url.Values{
		"query": {"EID(" + eid + ")"},
		"field": {"citedby-count"},
	}
	header := http.Header{
		"X-ELS-APIKey":          {c.apiKey},
		"X-Els-ResourceVersion": {"XOCS"},
	}
	if c.instToken != "" {
		header.Set("X-ELS-Insttoken", c.instToken)
	}

	var resp scopusResponse
	if err := c.http.GetJSON(ctx, c.endpoint+"/search/scopus?"+params.Encode(), header, &resp); err != nil {
		return 0, err
	}
	if len(resp.SearchResults.Entry) == 0 {
		return 0, nil
	}
	return int(resp.SearchResults.Entry[0].CitedByCount), nil
}
