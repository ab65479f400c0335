package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"lorebase-backend/models"

	"github.com/google/uuid"
)

// DocumentSource lists known design documents and their section paths,
// for directive resolution. Implemented by DocumentRepository.
type DocumentSource interface {
	List(ctx context.Context) ([]*models.Document, error)
	ListSections(ctx context.Context, documentID uuid.UUID) ([]string, error)
}

// CodeSource lists known code files and their members. Implemented by
// CodeFileRepository.
type CodeSource interface {
	List(ctx context.Context) ([]*models.CodeFile, error)
	ListMembers(ctx context.Context, codeFileID uuid.UUID) ([]models.Member, error)
}

// AnswerKind discriminates the success variants of AnswerQuery
type AnswerKind string

const (
	// KindAnswer is a synthesized, grounded answer
	KindAnswer AnswerKind = "answer"
	// KindDisambiguation asks the caller to pick members before answering
	KindDisambiguation AnswerKind = "disambiguation"
	// KindNoResults means no chunk cleared the similarity threshold; this
	// is a success variant, distinct from any upstream failure
	KindNoResults AnswerKind = "no_results"
)

// QueryRequest is one retrieval-QA request
type QueryRequest struct {
	Query  string
	Corpus Corpus
	// Rerank overrides the server default when non-nil
	Rerank *bool
	// TopK/TopN override the configured caps when positive
	TopK int
	TopN int
}

// QueryResult is the response contract for AnswerQuery and ResumeQuery
type QueryResult struct {
	Kind       AnswerKind      `json:"kind"`
	Answer     string          `json:"answer,omitempty"`
	Provenance []Provenance    `json:"provenance,omitempty"`
	Members    []models.Member `json:"members,omitempty"`
	// ResumeToken accompanies a disambiguation result; the caller sends
	// it back with the selected member names
	ResumeToken string `json:"resume_token,omitempty"`
}

const gddAnswerSystem = `You are an assistant answering questions about a game's design documents.
Answer ONLY from the numbered context chunks provided. Cite the chunk numbers you used,
like (Chunk 2). If the context does not contain the answer, say plainly that the
indexed documents do not cover it - never invent mechanics, numbers, or UI behavior.`

const codeAnswerSystem = `You are an assistant answering questions about a C# game codebase.
Answer ONLY from the numbered context chunks provided. Cite the chunk numbers you used,
like (Chunk 1). Quote identifiers and logic exactly as they appear in the chunks.
If the context does not contain the answer, say so plainly - never guess at code behavior.`

// AnswerService runs the retrieval pipeline:
// parse -> refine -> search -> rerank -> assemble -> synthesize.
// It is stateless across calls; the method-disambiguation round-trip is
// carried by the resume token the caller holds.
type AnswerService struct {
	cfg       Config
	embedder  Embedder
	generator Generator
	reranker  RerankClient

	docRepo    DocumentSource
	codeRepo   CodeSource
	docChunks  ChunkSearcher
	codeChunks ChunkSearcher

	refiner *QueryRefiner
	gateway *SearchGateway
}

// AnswerServiceOption is a functional option for AnswerService
type AnswerServiceOption func(*AnswerService)

// WithConfig sets the retrieval configuration
func WithConfig(cfg Config) AnswerServiceOption {
	return func(s *AnswerService) { s.cfg = cfg }
}

// WithEmbedder sets the embedding capability
func WithEmbedder(e Embedder) AnswerServiceOption {
	return func(s *AnswerService) { s.embedder = e }
}

// WithGenerator sets the generative capability (refinement + synthesis)
func WithGenerator(g Generator) AnswerServiceOption {
	return func(s *AnswerService) { s.generator = g }
}

// WithReranker sets the cross-encoder reranking capability
func WithReranker(r RerankClient) AnswerServiceOption {
	return func(s *AnswerService) { s.reranker = r }
}

// WithDocumentSource sets the document catalog
func WithDocumentSource(d DocumentSource) AnswerServiceOption {
	return func(s *AnswerService) { s.docRepo = d }
}

// WithCodeSource sets the code file catalog
func WithCodeSource(c CodeSource) AnswerServiceOption {
	return func(s *AnswerService) { s.codeRepo = c }
}

// WithDocChunkSearcher sets the GDD chunk store
func WithDocChunkSearcher(cs ChunkSearcher) AnswerServiceOption {
	return func(s *AnswerService) { s.docChunks = cs }
}

// WithCodeChunkSearcher sets the code chunk store
func WithCodeChunkSearcher(cs ChunkSearcher) AnswerServiceOption {
	return func(s *AnswerService) { s.codeChunks = cs }
}

// NewAnswerService creates an answer service
func NewAnswerService(opts ...AnswerServiceOption) *AnswerService {
	s := &AnswerService{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	s.refiner = NewQueryRefiner(s.generator, s.cfg.RefineTimeout)
	s.gateway = NewSearchGateway(s.embedder, s.cfg.EmbedTimeout)
	return s
}

// AnswerQuery runs one query through the full pipeline
func (s *AnswerService) AnswerQuery(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	if err := s.checkBindings(); err != nil {
		return nil, err
	}
	if req.Corpus != CorpusGDD && req.Corpus != CorpusCode {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCorpus, req.Corpus)
	}

	// Stage 1: directive parsing against the loaded source index
	index, err := s.loadSourceIndex(ctx, req.Corpus)
	if err != nil {
		return nil, fmt.Errorf("failed to load source index: %w", err)
	}
	parsed := index.Parse(req.Query, req.Corpus)

	// Code path: a query scoped to one multi-member file that names no
	// member pauses here for explicit selection. The pipeline never picks
	// a member silently; a wrong method's logic presented as fact is
	// worse than an extra round-trip.
	if req.Corpus == CorpusCode && len(parsed.Scope.CodeFileIDs) == 1 {
		members, err := s.codeRepo.ListMembers(ctx, parsed.Scope.CodeFileIDs[0])
		if err != nil {
			return nil, fmt.Errorf("failed to list file members: %w", err)
		}
		if len(members) >= 2 && !queryMentionsMember(parsed.Semantic, members) {
			token, err := encodeResumeToken(ResumeToken{
				Corpus:     req.Corpus,
				CodeFileID: parsed.Scope.CodeFileIDs[0],
				Query:      parsed.Semantic,
				Rerank:     req.Rerank,
			})
			if err != nil {
				return nil, err
			}
			return &QueryResult{
				Kind:        KindDisambiguation,
				Members:     members,
				ResumeToken: token,
			}, nil
		}
	}

	return s.runRetrieval(ctx, req.Corpus, parsed.Semantic, parsed.Scope, scopeHint(parsed), req)
}

// ResumeQuery continues a paused query with the caller's member selection,
// re-entering the pipeline at the search gateway with the scope narrowed
// to exactly the selected members
func (s *AnswerService) ResumeQuery(ctx context.Context, tokenStr string, selectedMembers []string) (*QueryResult, error) {
	if err := s.checkBindings(); err != nil {
		return nil, err
	}

	token, err := decodeResumeToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if len(selectedMembers) == 0 {
		return nil, ErrNoMemberSelected
	}

	known, err := s.codeRepo.ListMembers(ctx, token.CodeFileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResumeToken, err)
	}
	valid := validateSelection(selectedMembers, known)
	if len(valid) == 0 {
		return nil, ErrNoMemberSelected
	}

	scope := memberSelectionScope(token.CodeFileID, valid)
	hint := "members " + strings.Join(valid, ", ")

	req := QueryRequest{Query: token.Query, Corpus: CorpusCode, Rerank: token.Rerank}
	return s.runRetrieval(ctx, CorpusCode, token.Query, scope, hint, req)
}

// runRetrieval executes refine -> search -> rerank -> assemble -> synthesize
func (s *AnswerService) runRetrieval(
	ctx context.Context,
	corpus Corpus,
	semanticQuery string,
	scope models.RetrievalScope,
	hint string,
	req QueryRequest,
) (*QueryResult, error) {
	topK, topN := s.cfg.TopK, s.cfg.TopN
	if req.TopK > 0 {
		topK = req.TopK
	}
	if req.TopN > 0 && req.TopN <= topK {
		topN = req.TopN
	}

	// Stage 2: HYDE refinement. The refined string is embedded; the
	// original query stays the reference for reranking and synthesis.
	refined := s.refiner.Refine(ctx, corpus, semanticQuery, hint)

	// Stage 3: vector search
	store := s.docChunks
	if corpus == CorpusCode {
		store = s.codeChunks
	}
	candidates, err := s.gateway.Search(ctx, store, refined, scope, s.cfg.SimilarityThreshold, topK)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &QueryResult{Kind: KindNoResults}, nil
	}

	// Stage 4: reranking (optional per request)
	rerankOn := s.cfg.RerankEnabled
	if req.Rerank != nil {
		rerankOn = *req.Rerank
	}
	var reranker RerankClient
	if rerankOn {
		reranker = s.reranker
	}
	final := rerankCandidates(ctx, reranker, semanticQuery, candidates, topN, s.cfg.RerankTimeout)

	// Stage 5: assembly + synthesis
	assembled := AssembleContext(final, s.cfg.MaxContextChars)

	system := gddAnswerSystem
	if corpus == CorpusCode {
		system = codeAnswerSystem
	}
	user := fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION: %s\n\nAnswer from the context above:",
		assembled.Text, semanticQuery)

	synthCtx, cancel := context.WithTimeout(ctx, s.cfg.SynthesisTimeout)
	defer cancel()
	answer, err := s.generator.Generate(synthCtx, system, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	return &QueryResult{
		Kind:       KindAnswer,
		Answer:     answer,
		Provenance: assembled.Provenance,
	}, nil
}

// checkBindings verifies the required capability bindings; a missing one
// is a configuration error, not a per-request condition
func (s *AnswerService) checkBindings() error {
	if s.embedder == nil {
		return errors.New("embedder not set")
	}
	if s.generator == nil {
		return errors.New("generator not set")
	}
	if s.docChunks == nil || s.codeChunks == nil {
		return errors.New("chunk searchers not set")
	}
	if s.docRepo == nil || s.codeRepo == nil {
		return errors.New("source catalogs not set")
	}
	return nil
}

// loadSourceIndex builds the directive-resolution index for a request
func (s *AnswerService) loadSourceIndex(ctx context.Context, corpus Corpus) (*SourceIndex, error) {
	var docs []*models.Document
	var files []*models.CodeFile
	var err error

	switch corpus {
	case CorpusGDD:
		docs, err = s.docRepo.List(ctx)
	case CorpusCode:
		files, err = s.codeRepo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	index := NewSourceIndex(docs, files)
	index.SetSectionLookup(func(docID uuid.UUID) []string {
		sections, err := s.docRepo.ListSections(ctx, docID)
		if err != nil {
			log.Printf("Warning: failed to list sections for %s: %v", docID, err)
			return nil
		}
		return sections
	})
	return index, nil
}

// scopeHint describes the resolved scope for the refiner
func scopeHint(parsed ParsedQuery) string {
	if len(parsed.Matched) == 0 {
		return ""
	}
	return strings.Join(parsed.Matched, ", ")
}

// validateSelection keeps only selections that name a real member of the
// file. Matching is normalization-tolerant like directive parsing, and
// separator-insensitive so "buy_tank" selects "BuyTank": both sides are
// compared with word breaks removed.
func validateSelection(selected []string, known []models.Member) []string {
	var valid []string
	for _, sel := range selected {
		selNorm := strings.ReplaceAll(normalizeName(sel), " ", "")
		if selNorm == "" {
			continue
		}
		for _, m := range known {
			if strings.ReplaceAll(normalizeName(m.Name), " ", "") == selNorm {
				valid = append(valid, m.Name)
				break
			}
		}
	}
	return valid
}
