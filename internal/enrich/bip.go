// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/cris-reconcile/internal/httputil"
	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// DefaultBIPEndpoint is the BIP! Finder API base.
const DefaultBIPEndpoint = "https://bip-api.imsi.athenarc.gr"

// BIPScores are the impact indicators BIP! reports for one DOI.
type BIPScores struct {
	CitationCount float64
	AttRank       float64
	PageRank      float64
}

// BIPClient reads paper scores from the BIP! API.
type BIPClient struct {
	http     *httputil.Client
	endpoint string
}

// NewBIPClient returns a client for cfg. An empty endpoint uses
// DefaultBIPEndpoint.
func NewBIPClient(cfg types.BIPConfig, hc *httputil.Client) *BIPClient {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultBIPEndpoint
	}
	return &BIPClient{http: hc, endpoint: endpoint}
}

type bipPaper struct {
	DOI      string    `json:"doi"`
	CC       flexFloat `json:"cc"`
	AttRank  flexFloat `json:"attrank"`
	PageRank flexFloat `json:"pagerank"`
}

// Scores returns the BIP! scores for doi. Scores are only taken from a
// response that echoes a doi; anything else yields zero scores.
func (c *BIPClient) Scores(ctx context.Context, doi string) (BIPScores, error) {
	// PathEscape keeps the DOI one path segment ('/' becomes %2F).
	reqURL := c.endpoint + "/paper/scores/" + url.PathEscape(doi)

	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, reqURL, nil, &raw); err != nil {
		return BIPScores{}, err
	}

	paper, err := decodeBIPPaper(raw)
	if err != nil {
		return BIPScores{}, err
	}
	if paper.DOI == "" {
		return BIPScores{}, nil
	}
	return BIPScores{
		CitationCount: float64(paper.CC),
		AttRank:       float64(paper.AttRank),
		PageRank:      float64(paper.PageRank),
	}, nil
}

// decodeBIPPaper accepts a single object or a list whose first element is
// the paper.
func decodeBIPPaper(raw json.RawMessage) (bipPaper, error) {
	var paper bipPaper
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []bipPaper
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return paper, fmt.Errorf("parsing BIP response: %w", err)
		}
		if len(list) > 0 {
			paper = list[0]
		}
		return paper, nil
	}
	if err := json.Unmarshal(trimmed, &paper); err != nil {
		return paper, fmt.Errorf("parsing BIP response: %w", err)
	}
	return paper, nil
}
