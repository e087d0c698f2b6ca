// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates a full run: search, download, extract, chunk,
// summarize-verify, aggregate, compare, rank, and gap detection. Papers are
// processed sequentially; every stage past the initial search degrades
// locally instead of failing the run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-companion/internal/aggregate"
	"github.com/pdiddy/research-companion/internal/chunk"
	"github.com/pdiddy/research-companion/internal/compare"
	"github.com/pdiddy/research-companion/internal/extract"
	"github.com/pdiddy/research-companion/internal/fetch"
	"github.com/pdiddy/research-companion/internal/gaps"
	"github.com/pdiddy/research-companion/internal/llm"
	"github.com/pdiddy/research-companion/internal/rank"
	"github.com/pdiddy/research-companion/internal/search"
	"github.com/pdiddy/research-companion/internal/summarize"
	"github.com/pdiddy/research-companion/internal/tokens"
	"github.com/pdiddy/research-companion/internal/verify"
	"github.com/pdiddy/research-companion/pkg/types"
)

// Pipeline holds the wired collaborators for a run. Construct with New for
// production defaults, or populate the fields directly in tests.
type Pipeline struct {
	Searcher  search.Searcher
	Fetcher   fetch.Fetcher
	Extractor extract.Extractor
	Gen       llm.Generator
	Counter   tokens.Counter
	Config    types.PipelineConfig

	// Progress receives human-readable stage updates. Nil discards them.
	Progress io.Writer
}

// New wires the production pipeline: arXiv search, HTTP fetch with an on-disk
// cache, pdftotext extraction, and the supplied generation backend for every
// LLM-preferred stage.
func New(cfg types.PipelineConfig, gen llm.Generator) *Pipeline {
	return &Pipeline{
		Searcher:  search.NewArxiv(cfg.Search),
		Fetcher:   fetch.New(cfg.Fetch),
		Extractor: extract.PDFToText{},
		Gen:       gen,
		Counter:   tokens.Estimator{},
		Config:    cfg,
	}
}

// Run executes the full pipeline for query and returns the report. Only a
// paper-source failure aborts the run; download, extraction, summarization,
// and every corpus-level backend failure degrade to their fallbacks.
func (p *Pipeline) Run(ctx context.Context, query string, maxResults int) (*types.Report, error) {
	start := time.Now()
	w := p.progress()

	if maxResults <= 0 {
		maxResults = p.Config.Search.MaxResults
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	fmt.Fprintf(w, "searching: %q (max %d papers)\n", query, maxResults)
	papersMeta, err := p.Searcher.Search(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("querying paper source: %w", err)
	}
	fmt.Fprintf(w, "retrieved %d papers\n", len(papersMeta))

	cacheDir := p.Config.Fetch.CacheDir
	if cacheDir == "" {
		cacheDir = "./artifacts"
	}
	cache, err := fetch.LoadCache(cacheDir)
	if err != nil {
		fmt.Fprintf(w, "warning: metadata cache unreadable, starting fresh: %v\n", err)
		cache = fetch.NewCache(cacheDir)
	}

	summarizer := summarize.New(p.Gen, p.Counter)
	loop := NewLoop(summarizer, verify.JudgeVerifier{Gen: p.Gen}, verify.RuleVerifier{})
	paperAgg := aggregate.NewPaperAggregator(p.Gen)
	chunker := chunk.New(p.Counter)

	maxTokens := p.Config.Chunk.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 3000
	}

	records := make([]types.PaperRecord, 0, len(papersMeta))
	for i, meta := range papersMeta {
		fmt.Fprintf(w, "\npaper %d/%d: %s\n", i+1, len(papersMeta), meta.Title)

		text := p.paperText(ctx, meta, cache, cacheDir, w)
		chunks := chunker.Chunk(extract.CleanText(text), maxTokens)
		fmt.Fprintf(w, "  %d chunks\n", len(chunks))

		record := types.PaperRecord{
			PaperID:   meta.ID,
			Title:     meta.Title,
			Authors:   meta.Authors,
			Published: meta.Published,
			PDFURL:    meta.PDFURL,
		}
		for idx, c := range chunks {
			chunkID := fmt.Sprintf("%s_chunk_%d", meta.ID, idx)
			outcome := loop.Process(ctx, c, chunkID)
			if !outcome.Accepted {
				fmt.Fprintf(w, "  chunk %d kept unverified after %d attempts\n", idx+1, outcome.Attempts)
			}
			record.ChunkSummaries = append(record.ChunkSummaries, outcome.Summary)
			record.Verifications = append(record.Verifications, outcome.Verification)
		}

		record.PaperSummary = paperAgg.Aggregate(ctx, record.ChunkSummaries, meta)
		records = append(records, record)

		if err := writeSummaryArtifact(cacheDir, record); err != nil {
			fmt.Fprintf(w, "  warning: writing summary artifact: %v\n", err)
		}
	}

	var allChunks []types.ChunkSummary
	paperSummaries := make([]types.PaperSummary, 0, len(records))
	for _, r := range records {
		allChunks = append(allChunks, r.ChunkSummaries...)
		paperSummaries = append(paperSummaries, r.PaperSummary)
	}

	report := &types.Report{
		Query:        query,
		Papers:       records,
		Aggregate:    aggregate.Corpus(allChunks),
		Comparison:   compare.Build(records),
		ResearchGaps: gaps.Detect(ctx, p.Gen, paperSummaries),
		Ranking:      rank.PapersLLM(ctx, p.Gen, records),
		References:   buildReferences(records),
	}
	report.RuntimeSeconds = math.Round(time.Since(start).Seconds()*100) / 100

	fmt.Fprintf(w, "\nrun finished in %.2fs\n", report.RuntimeSeconds)
	return report, nil
}

// paperText resolves the text to analyze for one paper: the cached or freshly
// downloaded PDF's extracted text, or the abstract when download or
// extraction fails.
func (p *Pipeline) paperText(ctx context.Context, meta types.PaperMeta, cache *fetch.Cache, cacheDir string, w io.Writer) string {
	pdfPath := ""
	if entry, ok := cache.Lookup(meta.ID); ok {
		pdfPath = entry.LocalPath
		fmt.Fprintf(w, "  using cached PDF: %s\n", pdfPath)
	} else {
		path, err := p.Fetcher.Fetch(ctx, meta.PDFURL, cacheDir)
		if err != nil {
			fmt.Fprintf(w, "  download failed, using abstract: %v\n", err)
		} else {
			pdfPath = path
			if err := cache.Record(meta.ID, fetch.CachedPaper{
				LocalPath: path,
				Title:     meta.Title,
				PDFURL:    meta.PDFURL,
			}); err != nil {
				fmt.Fprintf(w, "  warning: updating metadata cache: %v\n", err)
			}
		}
	}

	if pdfPath == "" {
		return extract.Abstract(meta.Summary)
	}
	text, err := p.Extractor.Extract(ctx, pdfPath)
	if err != nil {
		fmt.Fprintf(w, "  extraction failed, using abstract: %v\n", err)
		return extract.Abstract(meta.Summary)
	}
	return text
}

// buildReferences renders the citation list, preferring the merged summary's
// metadata over the raw record's.
func buildReferences(records []types.PaperRecord) []types.Reference {
	refs := make([]types.Reference, 0, len(records))
	for _, r := range records {
		ps := r.PaperSummary

		title := ps.Title
		if title == "" {
			title = r.Title
		}
		authors := ps.Authors
		if len(authors) == 0 {
			authors = r.Authors
		}
		published := ps.Published
		if published == "" {
			published = r.Published
		}
		url := r.PDFURL
		if url == "" {
			url = r.PaperID
		}

		refs = append(refs, types.Reference{
			PaperID:   r.PaperID,
			Title:     title,
			Authors:   authors,
			Published: published,
			URL:       url,
		})
	}
	return refs
}

// writeSummaryArtifact persists the per-paper record, summaries and audit
// trail included, as YAML next to the downloaded PDFs.
func writeSummaryArtifact(dir string, record types.PaperRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifacts directory: %w", err)
	}
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling paper record: %w", err)
	}
	path := filepath.Join(dir, paperSlug(record.PaperID)+"-summary.yaml")
	return os.WriteFile(path, data, 0o644)
}

// paperSlug derives a filesystem-safe name from a paper ID, which for arXiv
// is the abs URL: the last path segment with unsafe characters replaced.
func paperSlug(paperID string) string {
	slug := paperID
	if idx := strings.LastIndex(slug, "/"); idx >= 0 {
		slug = slug[idx+1:]
	}
	var b strings.Builder
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "paper"
	}
	return b.String()
}

func (p *Pipeline) progress() io.Writer {
	if p.Progress == nil {
		return io.Discard
	}
	return p.Progress
}
