// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/research-companion/pkg/types"
)

var wordRe = regexp.MustCompile(`\w+`)

// Rerank orders papers by how well their title matches the query and returns
// the top limit. The sort is stable, so ties keep the source's order.
func Rerank(papers []types.PaperMeta, query string, limit int) []types.PaperMeta {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	queryWords := wordSet(queryLower)

	type scoredPaper struct {
		paper types.PaperMeta
		score float64
	}
	scored := make([]scoredPaper, 0, len(papers))
	for _, p := range papers {
		scored = append(scored, scoredPaper{paper: p, score: relevanceScore(p, queryLower, queryWords)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if limit > len(scored) {
		limit = len(scored)
	}
	top := make([]types.PaperMeta, 0, limit)
	for _, sp := range scored[:limit] {
		top = append(top, sp.paper)
	}
	return top
}

// relevanceScore favors titles close to the query: an exact match dominates,
// phrase containment scores by how few extra words the title carries, then
// word-subset and raw-overlap bonuses, plus a small boost for papers
// published 2018 or earlier, which tend to be the seminal ones.
func relevanceScore(p types.PaperMeta, queryLower string, queryWords map[string]struct{}) float64 {
	title := strings.Join(strings.Fields(strings.ToLower(p.Title)), " ")
	titleWords := wordSet(title)

	score := 0.0

	switch {
	case queryLower == title || sameWordSet(queryWords, titleWords):
		score += 1000.0
	case strings.Contains(title, queryLower):
		extra := len(titleWords) - len(queryWords)
		if extra <= 2 {
			score += 500.0
		} else {
			score += 200.0 - float64(extra)*5.0
		}
	}

	if isSubset(queryWords, titleWords) {
		score += 100.0
		denom := len(titleWords)
		if denom < 1 {
			denom = 1
		}
		score += float64(len(queryWords)) / float64(denom) * 50.0
	}

	score += float64(overlap(queryWords, titleWords)) * 10.0

	if len(p.Published) >= 4 {
		if year, err := strconv.Atoi(p.Published[:4]); err == nil && year <= 2018 {
			score += 20.0
		}
	}
	return score
}

func wordSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range wordRe.FindAllString(s, -1) {
		set[w] = struct{}{}
	}
	return set
}

func sameWordSet(a, b map[string]struct{}) bool {
	return len(a) == len(b) && isSubset(a, b)
}

func isSubset(sub, super map[string]struct{}) bool {
	for w := range sub {
		if _, ok := super[w]; !ok {
			return false
		}
	}
	return true
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
