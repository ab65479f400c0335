package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"lorebase-backend/models"
	"lorebase-backend/repository"
	"lorebase-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CodeFileHandler handles HTTP requests for indexed C# files
type CodeFileHandler struct {
	fileRepo    *repository.CodeFileRepository
	chunkRepo   *repository.CodeChunkRepository
	storage     storage.Storage
	maxFileSize int64
}

// NewCodeFileHandler creates a new code file handler
func NewCodeFileHandler(fileRepo *repository.CodeFileRepository, chunkRepo *repository.CodeChunkRepository, store storage.Storage) *CodeFileHandler {
	return &CodeFileHandler{
		fileRepo:    fileRepo,
		chunkRepo:   chunkRepo,
		storage:     store,
		maxFileSize: 5 * 1024 * 1024, // 5MB
	}
}

// Upload handles POST /api/code-files. Only C# sources are accepted;
// chunking into method/class boundaries happens in the ingestion tool.
func (h *CodeFileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".cs") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Only .cs files can be indexed",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	fileID := uuid.New()
	storagePath, err := h.storage.Upload(c.Request.Context(), fileID, fileHeader.Filename, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to upload file: %v", err),
			},
		})
		return
	}

	filePath := c.PostForm("file_path")
	if filePath == "" {
		filePath = fileHeader.Filename
	}

	record := &models.CodeFile{
		DisplayName: fileHeader.Filename,
		FilePath:    filePath,
		StoragePath: storagePath,
	}
	if err := h.fileRepo.Create(c.Request.Context(), record); err != nil {
		h.storage.Delete(c.Request.Context(), storagePath)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": fmt.Sprintf("Failed to save code file record: %v", err),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    record,
	})
}

// List handles GET /api/code-files
func (h *CodeFileHandler) List(c *gin.Context) {
	files, err := h.fileRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    files,
	})
}

// Get handles GET /api/code-files/:id
func (h *CodeFileHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid code file ID format",
			},
		})
		return
	}

	record, err := h.fileRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Code file not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// Members handles GET /api/code-files/:id/members
func (h *CodeFileHandler) Members(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid code file ID format",
			},
		})
		return
	}

	members, err := h.fileRepo.ListMembers(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    members,
	})
}

// Chunks handles GET /api/code-files/:id/chunks
func (h *CodeFileHandler) Chunks(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid code file ID format",
			},
		})
		return
	}

	chunks, err := h.chunkRepo.GetBySource(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    chunks,
	})
}

// Delete handles DELETE /api/code-files/:id
func (h *CodeFileHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid code file ID format",
			},
		})
		return
	}

	record, err := h.fileRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Code file not found",
			},
		})
		return
	}

	if err := h.fileRepo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	if err := h.storage.Delete(c.Request.Context(), record.StoragePath); err != nil {
		fmt.Printf("Warning: Failed to delete stored file %s: %v\n", record.StoragePath, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"deleted": id,
		},
	})
}
