// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the arXiv API for candidate papers and re-ranks the
// raw results by title relevance to the user's query.
package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/research-companion/internal/httputil"
	"github.com/pdiddy/research-companion/pkg/types"
)

// arxivAPIBase is a variable so tests can point the client at a local server.
var arxivAPIBase = "http://export.arxiv.org/api/query"

// overfetchFloor is the minimum raw result count requested from arXiv before
// re-ranking trims to the caller's limit.
const overfetchFloor = 15

// Searcher returns candidate papers for a query, best first.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.PaperMeta, error)
}

// ArxivClient is the production Searcher backed by the arXiv Atom API.
type ArxivClient struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
}

// NewArxiv returns an ArxivClient configured from cfg.
func NewArxiv(cfg types.SearchConfig) *ArxivClient {
	return &ArxivClient{
		Client:     &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
}

// Atom feed structures for the arXiv API response.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// Search queries arXiv sorted by relevance, overfetching beyond limit so the
// local re-ranker has candidates to choose from, then returns the top limit
// papers by title-relevance score.
func (c *ArxivClient) Search(ctx context.Context, query string, limit int) ([]types.PaperMeta, error) {
	if limit <= 0 {
		limit = 3
	}
	fetchCount := limit * 3
	if fetchCount < overfetchFloor {
		fetchCount = overfetchFloor
	}

	params := url.Values{}
	params.Set("search_query", buildQuery(query))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(fetchCount))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	papers := make([]types.PaperMeta, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		papers = append(papers, types.PaperMeta{
			ID:        strings.TrimSpace(e.ID),
			Title:     strings.TrimSpace(e.Title),
			Summary:   strings.TrimSpace(e.Summary),
			PDFURL:    pdfURL(e),
			Authors:   authorNames(e.Authors),
			Published: strings.TrimSpace(e.Published),
		})
	}

	return Rerank(papers, query, limit), nil
}

// buildQuery translates the free-text query into arXiv field syntax. A
// multi-word query searches the exact phrase in title and abstract plus an
// AND of the individual title words (words of 3+ characters only); a single
// word searches title and abstract directly.
func buildQuery(query string) string {
	query = strings.TrimSpace(query)
	words := strings.Fields(query)

	if len(words) > 1 {
		phrase := strings.ReplaceAll(query, `"`, "")
		var andTerms []string
		for _, w := range words {
			if len(w) > 2 {
				andTerms = append(andTerms, "ti:"+w)
			}
		}
		return fmt.Sprintf(`ti:"%s" OR (%s) OR abs:"%s"`, phrase, strings.Join(andTerms, " AND "), phrase)
	}
	return fmt.Sprintf("ti:%s OR abs:%s", query, query)
}

// pdfURL picks the PDF link from the entry's links, falling back to the abs
// URL rewritten to its pdf counterpart.
func pdfURL(e atomEntry) string {
	for _, l := range e.Links {
		if l.Type == "application/pdf" || l.Title == "pdf" {
			return l.Href
		}
	}
	id := strings.TrimSpace(e.ID)
	if id == "" {
		return ""
	}
	return strings.Replace(id, "abs", "pdf", 1) + ".pdf"
}

func authorNames(authors []atomAuthor) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, strings.TrimSpace(a.Name))
	}
	return names
}
