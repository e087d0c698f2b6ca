// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-companion
// pipeline: search results, chunks, summaries, verification outcomes, and the
// corpus-level report records.
package types

// PaperMeta is a candidate paper returned by the paper source. It carries
// everything the downstream pipeline needs: an identifier, display metadata,
// the abstract (used as extraction fallback), and a retrievable PDF URL.
type PaperMeta struct {
	// ID is the canonical identifier from the source (arXiv abs URL or ID).
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Summary is the paper abstract.
	Summary string `json:"summary" yaml:"summary"`

	// PDFURL is the URL from which the full text can be downloaded.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the publication date as reported by the source
	// (ISO-8601-ish; the first four characters are the year).
	Published string `json:"published" yaml:"published"`
}

// PaperRecord is the per-paper unit passed to the corpus-level stages. It is
// built once by the orchestrator and never mutated afterwards.
type PaperRecord struct {
	PaperID   string   `json:"paper_id" yaml:"paper_id"`
	Title     string   `json:"title" yaml:"title"`
	Authors   []string `json:"authors" yaml:"authors"`
	Published string   `json:"published" yaml:"published"`
	PDFURL    string   `json:"pdf_url" yaml:"pdf_url"`

	// ChunkSummaries holds one summary per surviving chunk, in document order.
	ChunkSummaries []ChunkSummary `json:"chunk_summaries" yaml:"chunk_summaries"`

	// Verifications holds the audit trail: one result per chunk, parallel to
	// ChunkSummaries, kept regardless of outcome.
	Verifications []VerificationResult `json:"verifications" yaml:"verifications"`

	// PaperSummary is the merged paper-level summary.
	PaperSummary PaperSummary `json:"paper_summary" yaml:"paper_summary"`
}

// Reference is one entry in the run report's reference list.
type Reference struct {
	PaperID   string   `json:"paper_id" yaml:"paper_id"`
	Title     string   `json:"title" yaml:"title"`
	Authors   []string `json:"authors" yaml:"authors"`
	Published string   `json:"published" yaml:"published"`
	URL       string   `json:"url" yaml:"url"`
}
