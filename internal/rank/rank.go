// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders papers by a fixed quality score.
package rank

import (
	"math"
	"sort"
	"strconv"

	"github.com/pdiddy/research-companion/pkg/types"
)

// Score computes the ranking score for one paper:
//
//	0.5 * max(0, year - 2000)
//	+ 1.0 * len(overall_methods)
//	+ 2.0 if overall_results is non-empty
//	+ 1.0 if overall_limitations is non-empty
//
// The year is parsed from the first four characters of the published date;
// an unparsable date contributes nothing.
func Score(p types.PaperRecord) float64 {
	ps := p.PaperSummary
	score := 0.0

	if pub := publishedOf(p); len(pub) >= 4 {
		if year, err := strconv.Atoi(pub[:4]); err == nil {
			score += math.Max(0, float64(year-2000)) * 0.5
		}
	}

	score += float64(len(ps.OverallMethods)) * 1.0
	if len(ps.OverallResults) > 0 {
		score += 2.0
	}
	if len(ps.OverallLimitations) > 0 {
		score += 1.0
	}
	return score
}

// Papers scores every paper and sorts descending. Scores are rounded to two
// decimals; the sort is stable so ties keep input order.
func Papers(papers []types.PaperRecord) []types.RankingEntry {
	entries := make([]types.RankingEntry, 0, len(papers))
	for _, p := range papers {
		entries = append(entries, types.RankingEntry{
			PaperID:   p.PaperID,
			Title:     p.Title,
			Published: publishedOf(p),
			Score:     math.Round(Score(p)*100) / 100,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// publishedOf prefers the merged summary's date over the record's.
func publishedOf(p types.PaperRecord) string {
	if p.PaperSummary.Published != "" {
		return p.PaperSummary.Published
	}
	return p.Published
}
