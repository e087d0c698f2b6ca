// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare builds the cross-paper method comparison table.
package compare

import (
	"strings"

	"github.com/pdiddy/research-companion/pkg/types"
)

// Build produces one comparison row per paper, preserving input order. The
// method cell is the comma-joined overall methods, or "N/A" when the paper
// reported none. Datasets and results are taken from the paper summary as-is.
func Build(papers []types.PaperRecord) types.Comparison {
	rows := make([]types.ComparisonRow, 0, len(papers))
	for _, p := range papers {
		ps := p.PaperSummary

		title := ps.Title
		if title == "" {
			title = p.Title
		}
		published := ps.Published
		if published == "" {
			published = p.Published
		}
		method := "N/A"
		if len(ps.OverallMethods) > 0 {
			method = strings.Join(ps.OverallMethods, ", ")
		}

		rows = append(rows, types.ComparisonRow{
			PaperID:   p.PaperID,
			Title:     title,
			Published: published,
			Method:    method,
			Datasets:  ps.OverallDatasets,
			Results:   ps.OverallResults,
		})
	}
	return types.Comparison{Rows: rows}
}
