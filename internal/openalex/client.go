// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex queries the OpenAlex works endpoint, the target registry
// that source records are reconciled against.
package openalex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/cris-reconcile/internal/httputil"
	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// DefaultEndpoint is the OpenAlex works endpoint.
const DefaultEndpoint = "https://api.openalex.org/works"

// Client looks up works by DOI, PMID or title and year.
type Client struct {
	http     *httputil.Client
	endpoint string
	email    string
}

// NewClient returns a Client for cfg. An empty endpoint uses DefaultEndpoint.
func NewClient(cfg types.OpenAlexConfig, hc *httputil.Client) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "?")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{http: hc, endpoint: endpoint, email: cfg.Email}
}

// ErrFilterSeparator is returned for an identifier that contains a filter
// separator. OpenAlex decodes the filter before splitting it, so escaping
// cannot keep such a value in one clause.
var ErrFilterSeparator = errors.New("identifier contains an OpenAlex filter separator")

// filterSeparators split a filter into clauses (',') or alternatives ('|').
const filterSeparators = ",|"

// ByDOI returns works whose DOI equals doi.
func (c *Client) ByDOI(ctx context.Context, doi string) ([]types.TargetRecord, error) {
	if strings.ContainsAny(doi, filterSeparators) {
		return nil, fmt.Errorf("DOI %q: %w", doi, ErrFilterSeparator)
	}
	return c.works(ctx, "doi:"+url.QueryEscape(doi))
}

// ByPMID returns works with the given PubMed identifier.
func (c *Client) ByPMID(ctx context.Context, pmid string) ([]types.TargetRecord, error) {
	if strings.ContainsAny(pmid, filterSeparators) {
		return nil, fmt.Errorf("PMID %q: %w", pmid, ErrFilterSeparator)
	}
	return c.works(ctx, "pmid:"+url.QueryEscape(pmid))
}

// ByTitleYear returns works whose title matches the search text and whose
// publication year equals year.
func (c *Client) ByTitleYear(ctx context.Context, title string, year int) ([]types.TargetRecord, error) {
	q := TitleQuery(title)
	if q == "" {
		return nil, fmt.Errorf("empty OpenAlex title query")
	}
	return c.works(ctx, "title.search:"+q+",publication_year:"+strconv.Itoa(year))
}

// TitleQuery turns a free-text title into the escaped search text of a
// title.search filter. The title is NFC-normalized, the filter separators
// ':', ',' and '|' become spaces, and each remaining token is percent-encoded
// and joined with '+'.
func TitleQuery(title string) string {
	title = norm.NFC.String(title)
	title = strings.NewReplacer(":", " ", ",", " ", "|", " ").Replace(title)

	tokens := strings.Fields(title)
	for i, tok := range tokens {
		tokens[i] = url.QueryEscape(tok)
	}
	return strings.Join(tokens, "+")
}

// works runs one filter query. filter must already be query-escaped.
func (c *Client) works(ctx context.Context, filter string) ([]types.TargetRecord, error) {
	rawQuery := "filter=" + filter
	if c.email != "" {
		rawQuery += "&mailto=" + url.QueryEscape(c.email)
	}

	var resp worksResponse
	if err := c.http.GetJSON(ctx, c.endpoint+"?"+rawQuery, nil, &resp); err != nil {
		return nil, err
	}

	records := make([]types.TargetRecord, 0, len(resp.Results))
	for _, w := range resp.Results {
		records = append(records, w.toRecord())
	}
	return records, nil
}
