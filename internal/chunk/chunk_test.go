// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/research-companion/internal/tokens"
)

const paperText = `This paper tackles sparse retrieval.
We outline the setting here.
1 Introduction
Intro text that should vanish.
More intro.
2 Method
We propose SparseRank for retrieval.
It uses inverted lists.
Related Work
Prior systems did other things.
3 Results
Accuracy: 0.91 on the benchmark.
References
[1] Someone et al.`

func TestChunkKeepsAndDropsSections(t *testing.T) {
	c := New(tokens.Estimator{})
	chunks := c.Chunk(paperText, 3000)

	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}

	wantSections := []string{"2 Method", "3 Results"}
	for i, want := range wantSections {
		if chunks[i].Section != want {
			t.Errorf("chunks[%d].Section = %q, want %q", i, chunks[i].Section, want)
		}
	}

	all := ""
	for _, ch := range chunks {
		all += ch.Text + "\n"
	}
	// A drop heading also discards the section accumulated before it, so the
	// untitled opening lines vanish along with the introduction.
	for _, dropped := range []string{"sparse retrieval", "Intro text", "Prior systems", "Someone et al"} {
		if strings.Contains(all, dropped) {
			t.Errorf("chunk text contains dropped content %q", dropped)
		}
	}
	for _, kept := range []string{"SparseRank", "Accuracy: 0.91"} {
		if !strings.Contains(all, kept) {
			t.Errorf("chunk text missing kept content %q", kept)
		}
	}
}

func TestChunkDeterministic(t *testing.T) {
	c := New(tokens.Estimator{})
	first := c.Chunk(paperText, 3000)
	second := c.Chunk(paperText, 3000)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated chunking of identical input produced different output")
	}
}

func TestChunkNoHeadingsSingleAbstract(t *testing.T) {
	c := New(tokens.Estimator{})
	chunks := c.Chunk("just a plain paragraph with no headings at all", 3000)

	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Section != "abstract" {
		t.Errorf("Section = %q, want %q", chunks[0].Section, "abstract")
	}
}

func TestChunkSplitsOversizedSections(t *testing.T) {
	words := make([]string, 100)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	text := "Conclusion\n" + strings.Join(words, " ")

	c := New(tokens.Estimator{})
	chunks := c.Chunk(text, 40)

	// 100 words in steps of 20: five parts.
	if len(chunks) != 5 {
		t.Fatalf("len(chunks) = %d, want 5", len(chunks))
	}
	for i, ch := range chunks {
		want := fmt.Sprintf("Conclusion (part %d)", i+1)
		if ch.Section != want {
			t.Errorf("chunks[%d].Section = %q, want %q", i, ch.Section, want)
		}
		if ch.Tokens > 40 {
			t.Errorf("chunks[%d].Tokens = %d, exceeds bound 40", i, ch.Tokens)
		}
	}

	var rejoined []string
	for _, ch := range chunks {
		rejoined = append(rejoined, ch.Text)
	}
	if got := strings.Join(rejoined, " "); got != strings.Join(words, " ") {
		t.Error("concatenated slices do not reproduce the section body")
	}
}

func TestChunkNumberedHeadings(t *testing.T) {
	tests := []struct {
		line string
		keep bool
		drop bool
	}{
		{"4 Experiments", true, false},
		{"4. Experiments", true, false},
		{"Limitations", true, false},
		{"Discussion", true, false},
		{"2 Related Work", false, true},
		{"Acknowledgements", false, true},
		{"plain body text", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := keepRe.MatchString(strings.ToLower(tt.line)); got != tt.keep {
				t.Errorf("keepRe.MatchString(%q) = %v, want %v", tt.line, got, tt.keep)
			}
			if got := dropRe.MatchString(strings.ToLower(tt.line)); got != tt.drop {
				t.Errorf("dropRe.MatchString(%q) = %v, want %v", tt.line, got, tt.drop)
			}
		})
	}
}
