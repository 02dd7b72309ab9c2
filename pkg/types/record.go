// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the cris-reconcile pipeline:
// source publications fetched from the CRIS registry, target works returned by
// OpenAlex, cascade outcomes, enrichment scores, output rows, run statistics
// and configuration.
package types

// SourceRecord is one publication fetched from the CRIS registry. It is
// immutable once fetched and owned by a single pipeline iteration.
type SourceRecord struct {
	// ID is the CRIS publication identifier, unique within the registry.
	ID string `json:"id" yaml:"id"`

	// Title is the free-text publication title.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year; zero when the registry omitted it.
	Year int `json:"year" yaml:"year"`

	// PublicationType is the English publication type name (e.g. "Journal Article").
	PublicationType string `json:"publication_type" yaml:"publication_type"`

	// DOI is the first registered DOI, trimmed and lowercased. Empty when absent.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the first registered PubMed identifier. Empty when absent.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// ScopusEID is the secondary-registry identifier in Scopus EID form
	// ("2-s2.0-<id>"). Empty when absent.
	ScopusEID string `json:"scopus_eid,omitempty" yaml:"scopus_eid,omitempty"`
}

// SourcePage is one page of CRIS results together with the registry's
// reported total for the whole filtered result set.
type SourcePage struct {
	Records []SourceRecord
	Total   int
	Offset  int
}
