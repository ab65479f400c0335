package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeGenerator struct {
	output    string
	err       error
	gotSystem string
	gotUser   string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	f.gotSystem = systemPrompt
	f.gotUser = userContent
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func TestRefineReturnsHypotheticalPassage(t *testing.T) {
	gen := &fakeGenerator{output: "The garage screen lists owned vehicles sorted by tier."}
	r := NewQueryRefiner(gen, time.Second)

	got := r.Refine(context.Background(), CorpusGDD, "how is the garage sorted", "")

	assert.Equal(t, "The garage screen lists owned vehicles sorted by tier.", got)
}

func TestRefineFailureFallsBackToOriginal(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	r := NewQueryRefiner(gen, time.Second)

	got := r.Refine(context.Background(), CorpusGDD, "how is the garage sorted", "")

	assert.Equal(t, "how is the garage sorted", got)
}

func TestRefineEmptyOutputFallsBack(t *testing.T) {
	gen := &fakeGenerator{output: "   \n  "}
	r := NewQueryRefiner(gen, time.Second)

	got := r.Refine(context.Background(), CorpusCode, "what does Refresh do", "")

	assert.Equal(t, "what does Refresh do", got)
}

func TestRefineNilGeneratorPassesThrough(t *testing.T) {
	r := NewQueryRefiner(nil, time.Second)

	got := r.Refine(context.Background(), CorpusGDD, "original", "")

	assert.Equal(t, "original", got)
}

func TestRefineIncludesScopeHint(t *testing.T) {
	gen := &fakeGenerator{output: "passage"}
	r := NewQueryRefiner(gen, time.Second)

	r.Refine(context.Background(), CorpusCode, "what does Refresh do", "HangarController.cs")

	assert.Contains(t, gen.gotUser, "HangarController.cs")
	assert.Equal(t, codeRefineSystem, gen.gotSystem)
}
