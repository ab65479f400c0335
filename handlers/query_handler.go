package handlers

import (
	"context"
	"errors"
	"net/http"

	"lorebase-backend/service"

	"github.com/gin-gonic/gin"
)

// QueryAnswerer is the retrieval pipeline surface the handler drives
type QueryAnswerer interface {
	AnswerQuery(ctx context.Context, req service.QueryRequest) (*service.QueryResult, error)
	ResumeQuery(ctx context.Context, token string, members []string) (*service.QueryResult, error)
}

// QueryHandler handles HTTP requests for retrieval QA
type QueryHandler struct {
	svc QueryAnswerer
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(svc QueryAnswerer) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type queryRequestBody struct {
	Query  string `json:"query" binding:"required"`
	Corpus string `json:"corpus" binding:"required"`
	Rerank *bool  `json:"rerank,omitempty"`
	TopK   int    `json:"top_k,omitempty"`
	TopN   int    `json:"top_n,omitempty"`
}

// Answer handles POST /api/query
func (h *QueryHandler) Answer(c *gin.Context) {
	var body queryRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "query and corpus are required",
			},
		})
		return
	}

	result, err := h.svc.AnswerQuery(c.Request.Context(), service.QueryRequest{
		Query:  body.Query,
		Corpus: service.Corpus(body.Corpus),
		Rerank: body.Rerank,
		TopK:   body.TopK,
		TopN:   body.TopN,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

type resumeRequestBody struct {
	ResumeToken string   `json:"resume_token" binding:"required"`
	Members     []string `json:"members" binding:"required"`
}

// Resume handles POST /api/query/resume
func (h *QueryHandler) Resume(c *gin.Context) {
	var body resumeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "resume_token and members are required",
			},
		})
		return
	}

	result, err := h.svc.ResumeQuery(c.Request.Context(), body.ResumeToken, body.Members)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// writeError maps pipeline errors to response envelopes. Upstream
// capability failures are retryable 502s, distinct from the no_results
// success variant the pipeline returns inline.
func (h *QueryHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownCorpus):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNKNOWN_CORPUS",
				"message": err.Error(),
			},
		})
	case errors.Is(err, service.ErrInvalidResumeToken), errors.Is(err, service.ErrNoMemberSelected):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SELECTION",
				"message": err.Error(),
			},
		})
	case errors.Is(err, service.ErrEmbeddingUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EMBEDDING_UNAVAILABLE",
				"message": "embedding provider is unavailable, retry later",
			},
		})
	case errors.Is(err, service.ErrSynthesisFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SYNTHESIS_FAILED",
				"message": "answer generation failed, retry later",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": err.Error(),
			},
		})
	}
}
