package service

import "errors"

var (
	// ErrEmbeddingUnavailable means the embedding capability failed; the
	// request cannot be served without a query vector
	ErrEmbeddingUnavailable = errors.New("embedding capability unavailable")
	// ErrSynthesisFailed means answer generation failed after retrieval
	ErrSynthesisFailed = errors.New("failed to synthesize answer")
	// ErrUnknownCorpus means the request named a corpus this service
	// does not index
	ErrUnknownCorpus = errors.New("unknown corpus")
	// ErrInvalidResumeToken means a disambiguation resume token could not
	// be decoded or referenced a missing code file
	ErrInvalidResumeToken = errors.New("invalid resume token")
	// ErrNoMemberSelected means a resume request selected no members
	ErrNoMemberSelected = errors.New("no member selected")
)
