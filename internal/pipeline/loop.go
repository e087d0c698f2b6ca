// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"

	"github.com/pdiddy/research-companion/internal/summarize"
	"github.com/pdiddy/research-companion/internal/verify"
	"github.com/pdiddy/research-companion/pkg/types"
)

// maxSummaryRetries bounds the summarize-verify loop: one retry, so at most
// two summarizer attempts per chunk.
const maxSummaryRetries = 1

// ChunkOutcome is the terminal state of the summarize-verify loop for one
// chunk. Accepted reports whether verification passed; a false value means
// the loop gave up and kept the last attempt anyway.
type ChunkOutcome struct {
	Summary      types.ChunkSummary
	Verification types.VerificationResult
	Accepted     bool
	Attempts     int
}

// Loop drives the summarizer and verifier with bounded retry. The judge
// verifier is tried first; if it errors the rule-based verifier decides.
type Loop struct {
	summarizer *summarize.Summarizer
	judge      verify.Verifier
	rules      verify.Verifier
}

// NewLoop assembles a Loop. A nil judge disables the generation-backed
// verifier entirely, leaving the rule-based one.
func NewLoop(s *summarize.Summarizer, judge, rules verify.Verifier) *Loop {
	if rules == nil {
		rules = verify.RuleVerifier{}
	}
	return &Loop{summarizer: s, judge: judge, rules: rules}
}

// Process summarizes one chunk and verifies the result. A failed verification
// triggers one fresh summarization attempt with no state carried over; if
// that also fails verification the last summary and verdict are kept and the
// outcome is marked not accepted. Exactly one summary/verification pair is
// returned either way.
func (l *Loop) Process(ctx context.Context, chunk types.Chunk, chunkID string) ChunkOutcome {
	outcome := ChunkOutcome{}
	for {
		outcome.Attempts++
		outcome.Summary = l.summarizer.Summarize(ctx, chunk.Text, chunkID)
		outcome.Verification = l.verifyOne(ctx, outcome.Summary, chunk)

		if outcome.Verification.OK {
			outcome.Accepted = true
			return outcome
		}
		if outcome.Attempts > maxSummaryRetries {
			return outcome
		}
	}
}

func (l *Loop) verifyOne(ctx context.Context, summary types.ChunkSummary, chunk types.Chunk) types.VerificationResult {
	chunks := []types.Chunk{chunk}
	if l.judge != nil {
		if result, err := l.judge.Verify(ctx, summary, chunks); err == nil {
			return result
		}
	}
	result, err := l.rules.Verify(ctx, summary, chunks)
	if err != nil {
		// The rule verifier never errors; guard against future strategies.
		return types.VerificationResult{OK: false, Issues: []types.Issue{{
			Type:    types.IssueJudgment,
			Message: "verification unavailable: " + err.Error(),
		}}}
	}
	return result
}
