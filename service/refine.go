package service

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const gddRefineSystem = `You are a search assistant for a game studio's design documents.
Given a question about game design, write a short passage (2-4 sentences) that could
plausibly appear in a design document and would answer the question. Describe mechanics,
UI flows, or rules the way a designer would document them. Do not answer the question
or explain - just write the hypothetical passage.`

const codeRefineSystem = `You are a search assistant for a C# game codebase.
Given a question about the code, write a short code snippet or documentation excerpt
that would answer it. Be realistic - write C# that might actually exist in the project,
with plausible method and field names. Keep it under 150 words. Do not explain -
just write the hypothetical code or doc comment.`

// QueryRefiner improves recall for vague queries by generating a
// hypothetical passage that is embedded in place of the raw query.
// Refinement is strictly an enhancement: any failure falls back to the
// original query, enforced here rather than at call sites.
type QueryRefiner struct {
	generator Generator
	timeout   time.Duration
}

// NewQueryRefiner creates a refiner backed by a generative capability.
// A nil generator disables refinement (Refine returns its input).
func NewQueryRefiner(generator Generator, timeout time.Duration) *QueryRefiner {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &QueryRefiner{generator: generator, timeout: timeout}
}

// Refine returns the search string to embed for the given semantic query.
// scopeHint, when non-empty, tells the model what slice of the corpus the
// search is restricted to (e.g. a section or file name).
//
// The returned string is used only for embedding; callers keep the
// original query for chat history and rerank scoring.
func (r *QueryRefiner) Refine(ctx context.Context, corpus Corpus, semanticQuery, scopeHint string) string {
	if r.generator == nil {
		return semanticQuery
	}

	system := gddRefineSystem
	if corpus == CorpusCode {
		system = codeRefineSystem
	}

	user := "Question: " + semanticQuery
	if scopeHint != "" {
		user += "\n(The search is scoped to: " + scopeHint + ")"
	}
	user += "\n\nWrite the hypothetical passage:"

	return attemptOr("query refinement", semanticQuery, func() (string, error) {
		refineCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		refined, err := r.generator.Generate(refineCtx, system, user)
		if err != nil {
			return "", err
		}
		refined = strings.TrimSpace(refined)
		if refined == "" {
			return "", fmt.Errorf("refiner returned empty output")
		}
		return refined, nil
	})
}
