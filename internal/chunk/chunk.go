// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits cleaned paper text into bounded, section-labeled chunks.
// It keeps the sections that carry extractable facts (abstract, methods,
// experiments, results, analysis, discussion, limitations, conclusion) and
// drops boilerplate (introduction, related work, background, acknowledgments,
// references). Oversized sections are split into equal word slices.
package chunk

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/research-companion/internal/tokens"
	"github.com/pdiddy/research-companion/pkg/types"
)

// Headings may carry a leading section number ("4 Results", "4. Results").
var keepPatterns = []string{
	`^abstract`,
	`^(\d+\.?\s+)?method`,
	`^(\d+\.?\s+)?methodology`,
	`^(\d+\.?\s+)?model`,
	`^(\d+\.?\s+)?approach`,
	`^(\d+\.?\s+)?experiments?`,
	`^(\d+\.?\s+)?evaluation`,
	`^(\d+\.?\s+)?results?`,
	`^(\d+\.?\s+)?analysis`,
	`^(\d+\.?\s+)?discussion`,
	`^(\d+\.?\s+)?limitations?`,
	`^(\d+\.?\s+)?conclusion`,
}

var dropPatterns = []string{
	`^(\d+\.?\s+)?introduction`,
	`^(\d+\.?\s+)?related work`,
	`^(\d+\.?\s+)?background`,
	`^(\d+\.?\s+)?acknowledge?ments?`,
	`^(\d+\.?\s+)?references`,
}

var (
	keepRe = regexp.MustCompile(`(?i)` + strings.Join(keepPatterns, "|"))
	dropRe = regexp.MustCompile(`(?i)` + strings.Join(dropPatterns, "|"))
)

// skipTitle marks the current section as dropped; its body lines are discarded.
const skipTitle = "SKIP"

// Chunker splits document text into chunks using the given token counter.
type Chunker struct {
	counter tokens.Counter
}

// New creates a Chunker. A nil counter falls back to the word estimator.
func New(counter tokens.Counter) *Chunker {
	if counter == nil {
		counter = tokens.Estimator{}
	}
	return &Chunker{counter: counter}
}

// Chunk scans text line by line, grouping lines under keep headings and
// discarding everything from a drop heading until the next keep heading. The
// initial section is titled "abstract" since papers open with it. Sections
// whose estimated token count exceeds maxTokens are split into word slices of
// maxTokens/2, labeled "<title> (part N)". Output order follows document
// order; the whole operation is deterministic.
func (c *Chunker) Chunk(text string, maxTokens int) []types.Chunk {
	if maxTokens <= 0 {
		maxTokens = 3000
	}

	type section struct {
		title string
		body  string
	}

	var sections []section
	currentTitle := "abstract"
	var currentBody []string

	flush := func() {
		if len(currentBody) > 0 && currentTitle != skipTitle {
			sections = append(sections, section{title: currentTitle, body: strings.Join(currentBody, "\n")})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)

		// Drop headings discard everything until the next keep heading.
		if dropRe.MatchString(stripped) {
			currentBody = nil
			currentTitle = skipTitle
			continue
		}

		if keepRe.MatchString(stripped) {
			flush()
			currentBody = nil
			currentTitle = stripped
			continue
		}

		if currentTitle != skipTitle {
			currentBody = append(currentBody, line)
		}
	}
	flush()

	var chunks []types.Chunk
	for _, sec := range sections {
		count := c.counter.Count(sec.body)
		if count <= maxTokens {
			chunks = append(chunks, types.Chunk{Section: sec.title, Text: sec.body, Tokens: count})
			continue
		}

		// Oversized: slice into equal word windows of maxTokens/2.
		words := strings.Fields(sec.body)
		step := maxTokens / 2
		for i := 0; i < len(words); i += step {
			end := i + step
			if end > len(words) {
				end = len(words)
			}
			part := strings.Join(words[i:end], " ")
			chunks = append(chunks, types.Chunk{
				Section: fmt.Sprintf("%s (part %d)", sec.title, i/step+1),
				Text:    part,
				Tokens:  c.counter.Count(part),
			})
		}
	}
	return chunks
}
