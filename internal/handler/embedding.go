package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propnest/internal/model"
)

// EmbeddingDimensions is the width of the buildings.embedding column
const EmbeddingDimensions = 1536

// maxEmbeddingBatch bounds one upload so a batch fits a single transaction
const maxEmbeddingBatch = 500

// EmbeddingUpdater stores building embeddings for similarity lookups
type EmbeddingUpdater interface {
	UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
}

// EmbeddingHandler accepts embedding uploads from the offline indexer
type EmbeddingHandler struct {
	updater EmbeddingUpdater
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(updater EmbeddingUpdater) *EmbeddingHandler {
	return &EmbeddingHandler{updater: updater}
}

// BatchUpdate handles POST /api/v1/embeddings/batch. The whole batch is
// rejected when any item is malformed; store failures are reported per item
// with 206.
func (h *EmbeddingHandler) BatchUpdate(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := validateEmbeddings(req.Embeddings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	success, failures := h.updater.UpdateEmbeddings(c.Request.Context(), req.Embeddings)
	resp := model.EmbeddingBatchResponse{
		Success: success,
		Failed:  len(req.Embeddings) - success,
		Errors:  failures,
	}

	requestLogger(c).Info("embeddings stored",
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed),
	)

	status := http.StatusOK
	if len(failures) > 0 {
		status = http.StatusPartialContent
	}
	c.JSON(status, resp)
}

func validateEmbeddings(items []model.EmbeddingItem) error {
	switch {
	case len(items) == 0:
		return errors.New("no embeddings provided")
	case len(items) > maxEmbeddingBatch:
		return fmt.Errorf("too many embeddings: %d, at most %d per batch", len(items), maxEmbeddingBatch)
	}

	seen := make(map[string]int, len(items))
	for i, item := range items {
		if prev, ok := seen[item.BuildingID]; ok {
			return fmt.Errorf("duplicate building %s at index %d and %d", item.BuildingID, prev, i)
		}
		seen[item.BuildingID] = i

		if len(item.Embedding) != EmbeddingDimensions {
			return fmt.Errorf("invalid embedding dimension at index %d, expected %d", i, EmbeddingDimensions)
		}
	}
	return nil
}
