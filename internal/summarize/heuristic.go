// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/research-companion/pkg/types"
)

const (
	problemMaxChars  = 400
	limitationsMax   = 3
	snippetMaxWords  = 25
	evidenceCharsMax = 100
)

var methodPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)we (?:propose|present|introduce|develop|design) ([\w\- ]+)`),
	regexp.MustCompile(`(?i)our (?:method|model|approach|framework|algorithm) ([\w\- ]+)`),
	regexp.MustCompile(`(?i)the proposed ([\w\- ]+)`),
}

// Dataset names are matched case-sensitively: they start with a capital.
var datasetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`on the ([A-Z][A-Za-z0-9\- ]+ dataset)`),
	regexp.MustCompile(`evaluated on ([A-Z][A-Za-z0-9\- ]+)`),
	regexp.MustCompile(`tested on ([A-Z][A-Za-z0-9\- ]+)`),
	regexp.MustCompile(`using the ([A-Z][A-Za-z0-9\- ]+)`),
	regexp.MustCompile(`we use ([A-Z][A-Za-z0-9\- ]+)`),
}

var (
	// metricValueRe captures "accuracy: 0.91", "f1-score = 88.2" style claims.
	metricValueRe = regexp.MustCompile(`(?i)(accuracy|acc|f1-score|bleu|rouge|ndcg|map|recall|precision)[:= ]+([0-9]+(?:\.[0-9]+)?)`)

	// percentMetricRe captures "91.5% accuracy" style claims with the number first.
	percentMetricRe = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*%\s*(accuracy|acc|f1|f1-score|precision|recall)`)

	// outperformRe captures "outperforms X by 3.2%" improvement claims.
	outperformRe = regexp.MustCompile(`(?i)outperforms? .* by ([0-9]+(?:\.[0-9]+)?)%`)
)

var limitationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)limitations?:? (.*?)[.\n]`),
	regexp.MustCompile(`(?i)however,? (.*?)[.\n]`),
	regexp.MustCompile(`(?i)drawbacks?:? (.*?)[.\n]`),
	regexp.MustCompile(`(?i)future work (.*?)[.\n]`),
}

// sentenceEndRe marks sentence boundaries: terminal punctuation then whitespace.
var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// Heuristic is the deterministic fallback extractor. It reads the first
// sentence as the problem statement and harvests methods, datasets, metric
// values, and limitations with trigger-phrase patterns, then back-fills
// verbatim evidence for every populated field.
func Heuristic(text, chunkID string) types.ChunkSummary {
	summary := types.NewChunkSummary()

	sentences := splitSentences(strings.TrimSpace(text))
	problem := ""
	if len(sentences) > 0 {
		problem = sentences[0]
	}
	summary.Problem = truncateBytes(problem, problemMaxChars)

	for _, pat := range methodPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			summary.Methods = appendUnique(summary.Methods, strings.TrimSpace(m[1]))
		}
	}

	for _, pat := range datasetPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			summary.Datasets = appendUnique(summary.Datasets, strings.TrimSpace(m[1]))
		}
	}

	// resultOrder remembers insertion order so evidence back-fill below is
	// deterministic despite map iteration.
	var resultOrder []string
	record := func(metric, value string) {
		if _, exists := summary.Results[metric]; !exists {
			resultOrder = append(resultOrder, metric)
		}
		summary.Results[metric] = value
	}
	for _, m := range metricValueRe.FindAllStringSubmatch(text, -1) {
		record(strings.ToLower(m[1]), m[2])
	}
	for _, m := range percentMetricRe.FindAllStringSubmatch(text, -1) {
		record(strings.ToLower(m[2]), m[1])
	}
	for _, m := range outperformRe.FindAllStringSubmatch(text, -1) {
		record("improvement", m[1])
	}

	for _, pat := range limitationPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			if lim := strings.TrimSpace(m[1]); lim != "" {
				summary.Limitations = append(summary.Limitations, lim)
			}
		}
	}
	if len(summary.Limitations) > limitationsMax {
		summary.Limitations = summary.Limitations[:limitationsMax]
	}

	backfillEvidence(&summary, chunkID, resultOrder)
	return summary
}

// backfillEvidence cites the extracted strings themselves as evidence, since
// the heuristic path only ever copies text verbatim from the source.
func backfillEvidence(s *types.ChunkSummary, chunkID string, resultOrder []string) {
	if len(strings.Fields(s.Problem)) > 5 {
		// The snippet must stay a verbatim substring of the source, so cut
		// at a word boundary instead of re-joining fields: the cleaner
		// preserves line breaks and a space-joined copy would not match.
		s.Evidence["problem"] = []types.EvidenceItem{
			{ChunkID: chunkID, Snippet: wordPrefix(s.Problem, snippetMaxWords)},
		}
	}

	if len(s.Methods) > 0 {
		s.Evidence["methods"] = []types.EvidenceItem{
			{ChunkID: chunkID, Snippet: s.Methods[0]},
		}
	}

	if len(s.Datasets) > 0 {
		n := len(s.Datasets)
		if n > 3 {
			n = 3
		}
		items := make([]types.EvidenceItem, 0, n)
		for _, d := range s.Datasets[:n] {
			items = append(items, types.EvidenceItem{ChunkID: chunkID, Snippet: d})
		}
		s.Evidence["datasets"] = items
	}

	if len(resultOrder) > 3 {
		resultOrder = resultOrder[:3]
	}
	for _, k := range resultOrder {
		s.Evidence["results"] = append(s.Evidence["results"], types.EvidenceItem{
			ChunkID: chunkID,
			Snippet: fmt.Sprintf("%s: %s", k, s.Results[k]),
		})
	}

	if len(s.Limitations) > 0 {
		s.Evidence["limitations"] = []types.EvidenceItem{
			{ChunkID: chunkID, Snippet: truncateBytes(s.Limitations[0], evidenceCharsMax)},
		}
	}
}

// wordPrefix returns the prefix of s spanning at most maxWords words, with
// interior whitespace kept intact so the result remains a substring of s.
func wordPrefix(s string, maxWords int) string {
	inWord := false
	count := 0
	for i, r := range s {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			inWord = true
			count++
			if count > maxWords {
				return strings.TrimSpace(s[:i])
			}
		}
	}
	return s
}

// truncateBytes cuts s to at most max bytes without splitting a rune.
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// splitSentences splits on terminal punctuation followed by whitespace,
// keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	if text == "" {
		return nil
	}
	var sentences []string
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		// loc[0] is the punctuation mark; keep it.
		sentences = append(sentences, text[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
