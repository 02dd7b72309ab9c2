// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cris pages through validated publications in the CRIS source
// registry.
package cris

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/cris-reconcile/internal/httputil"
	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// DefaultPublicationTypes are the English publication type names selected
// when none are configured.
var DefaultPublicationTypes = []string{
	"Journal Article",
	"Paper in proceeding",
	"Review",
	"Book",
	"scientific journal",
}

// selectedFields limits the CRIS response to the fields the pipeline reads.
var selectedFields = []string{
	"Id",
	"Title",
	"Year",
	"IdentifierDoi",
	"IdentifierPubmedId",
	"IdentifierScopusId",
	"PublicationType.NameEng",
}

// scopusEIDPrefix turns a bare Scopus id into an EID.
const scopusEIDPrefix = "2-s2.0-"

// Client fetches pages of publications from the CRIS search endpoint.
type Client struct {
	http      *httputil.Client
	endpoint  string
	startYear int
	pubTypes  []string
}

// NewClient returns a Client for cfg. Credentials from cfg are sent as HTTP
// basic auth on every request.
func NewClient(cfg types.CRISConfig, hc *httputil.Client) *Client {
	if cfg.User != "" {
		hc.SetBasicAuth(cfg.User, cfg.Password)
	}
	pubTypes := cfg.PublicationTypes
	if len(pubTypes) == 0 {
		pubTypes = DefaultPublicationTypes
	}
	return &Client{
		http:      hc,
		endpoint:  NormalizeEndpoint(cfg.Endpoint),
		startYear: cfg.StartYear,
		pubTypes:  pubTypes,
	}
}

// NormalizeEndpoint adds an https scheme to endpoints given as host/path.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "https://" + endpoint
}

// BuildQuery returns the CRIS query selecting validated, live, non-draft
// publications from startYear onwards with one of the given types.
func BuildQuery(startYear int, pubTypes []string) string {
	quoted := make([]string, len(pubTypes))
	for i, t := range pubTypes {
		quoted[i] = fmt.Sprintf("PublicationType.NameEng:%q", t)
	}
	return fmt.Sprintf(
		"_exists_:ValidatedBy AND IsDraft:false AND IsDeleted:false AND !_exists_:IsReplacedById AND Year:[%d TO *] AND (%s)",
		startYear, strings.Join(quoted, " OR "),
	)
}

// FetchPage requests size publications starting at offset, sorted by Id
// ascending so pagination is stable across requests.
func (c *Client) FetchPage(ctx context.Context, offset, size int) (types.SourcePage, error) {
	params := url.Values{
		"query":          {BuildQuery(c.startYear, c.pubTypes)},
		"max":            {strconv.Itoa(size)},
		"start":          {strconv.Itoa(offset)},
		"sort":           {"Id"},
		"sortOrder":      {"asc"},
		"selectedFields": {strings.Join(selectedFields, ",")},
	}

	var resp publicationsResponse
	if err := c.http.GetJSON(ctx, c.endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return types.SourcePage{}, err
	}

	page := types.SourcePage{
		Total:   resp.TotalCount,
		Offset:  offset,
		Records: make([]types.SourceRecord, 0, len(resp.Publications)),
	}
	for _, p := range resp.Publications {
		page.Records = append(page.Records, p.toRecord())
	}
	return page, nil
}

func (p publication) toRecord() types.SourceRecord {
	rec := types.SourceRecord{
		ID:    strings.TrimSpace(string(p.ID)),
		Title: p.Title,
		Year:  int(p.Year),
		DOI:   strings.ToLower(first(p.IdentifierDoi)),
		PMID:  first(p.IdentifierPubmedID),
	}
	if p.PublicationType != nil {
		rec.PublicationType = p.PublicationType.NameEng
	}
	if id := first(p.IdentifierScopusID); id != "" {
		if !strings.HasPrefix(id, scopusEIDPrefix) {
			id = scopusEIDPrefix + id
		}
		rec.ScopusEID = id
	}
	return rec
}

// first returns the first identifier value, trimmed, or "".
func first(values []flexString) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(string(values[0]))
}
