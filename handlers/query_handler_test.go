package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lorebase-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswerer struct {
	result *service.QueryResult
	err    error
	gotReq service.QueryRequest
}

func (f *fakeAnswerer) AnswerQuery(ctx context.Context, req service.QueryRequest) (*service.QueryResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAnswerer) ResumeQuery(ctx context.Context, token string, members []string) (*service.QueryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func setupQueryRouter(svc QueryAnswerer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewQueryHandler(svc)
	r.POST("/api/query", h.Answer)
	r.POST("/api/query/resume", h.Resume)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnswerReturnsEnvelope(t *testing.T) {
	svc := &fakeAnswerer{result: &service.QueryResult{Kind: service.KindAnswer, Answer: "the answer"}}
	r := setupQueryRouter(svc)

	w := postJSON(t, r, "/api/query", `{"query":"how does repair work","corpus":"gdd"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool                `json:"success"`
		Data    service.QueryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, service.KindAnswer, resp.Data.Kind)
	assert.Equal(t, "the answer", resp.Data.Answer)
	assert.Equal(t, service.CorpusGDD, svc.gotReq.Corpus)
}

func TestAnswerRequiresQueryAndCorpus(t *testing.T) {
	r := setupQueryRouter(&fakeAnswerer{})

	w := postJSON(t, r, "/api/query", `{"query":"no corpus"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestAnswerUnknownCorpusIs400(t *testing.T) {
	r := setupQueryRouter(&fakeAnswerer{err: service.ErrUnknownCorpus})

	w := postJSON(t, r, "/api/query", `{"query":"q","corpus":"wiki"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_CORPUS")
}

func TestAnswerEmbeddingFailureIs502(t *testing.T) {
	r := setupQueryRouter(&fakeAnswerer{err: service.ErrEmbeddingUnavailable})

	w := postJSON(t, r, "/api/query", `{"query":"q","corpus":"gdd"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "EMBEDDING_UNAVAILABLE")
}

func TestAnswerSynthesisFailureIs502(t *testing.T) {
	r := setupQueryRouter(&fakeAnswerer{err: service.ErrSynthesisFailed})

	w := postJSON(t, r, "/api/query", `{"query":"q","corpus":"gdd"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "SYNTHESIS_FAILED")
}

func TestAnswerPassesRerankOverride(t *testing.T) {
	svc := &fakeAnswerer{result: &service.QueryResult{Kind: service.KindAnswer}}
	r := setupQueryRouter(svc)

	postJSON(t, r, "/api/query", `{"query":"q","corpus":"gdd","rerank":false}`)

	require.NotNil(t, svc.gotReq.Rerank)
	assert.False(t, *svc.gotReq.Rerank)
}

func TestResumeReturnsAnswer(t *testing.T) {
	svc := &fakeAnswerer{result: &service.QueryResult{Kind: service.KindAnswer, Answer: "resumed"}}
	r := setupQueryRouter(svc)

	w := postJSON(t, r, "/api/query/resume", `{"resume_token":"tok","members":["BuyTank"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "resumed")
}

func TestResumeInvalidTokenIs400(t *testing.T) {
	r := setupQueryRouter(&fakeAnswerer{err: service.ErrInvalidResumeToken})

	w := postJSON(t, r, "/api/query/resume", `{"resume_token":"bad","members":["BuyTank"]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SELECTION")
}
