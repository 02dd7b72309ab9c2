// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cris

import (
	"context"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 100

// Fetcher is implemented by Client and by test doubles.
type Fetcher interface {
	FetchPage(ctx context.Context, offset, size int) (types.SourcePage, error)
}

// Paginator walks the source result set page by page. The cursor only moves
// when Advance is called, after the caller has processed the current page.
type Paginator struct {
	fetcher Fetcher
	offset  int
	size    int
}

// NewPaginator returns a Paginator starting at startOffset. A non-positive
// pageSize uses DefaultPageSize.
func NewPaginator(f Fetcher, startOffset, pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if startOffset < 0 {
		startOffset = 0
	}
	return &Paginator{fetcher: f, offset: startOffset, size: pageSize}
}

// Offset returns the current cursor.
func (p *Paginator) Offset() int { return p.offset }

// PageSize returns the page size.
func (p *Paginator) PageSize() int { return p.size }

// Next fetches the page at the current cursor without moving it.
func (p *Paginator) Next(ctx context.Context) (types.SourcePage, error) {
	return p.fetcher.FetchPage(ctx, p.offset, p.size)
}

// Advance moves the cursor forward by one page.
func (p *Paginator) Advance() { p.offset += p.size }

// Exhausted reports whether the cursor is at or past total.
func (p *Paginator) Exhausted(total int) bool { return p.offset >= total }
