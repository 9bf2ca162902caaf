package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/model"
)

// ExportService writes page snapshots to object storage.
type ExportService interface {
	ExportPage(ctx context.Context, userID uuid.UUID, pageID string) (string, error)
}

type Export struct {
	exportService  ExportService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewExport(exportService ExportService, contextManager model.ContextManager, logger *logger.Logger) *Export {
	return &Export{
		exportService:  exportService,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *Export) ExportPage(c *gin.Context) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		handleError(c, model.ErrUnauthorized)
		return
	}

	key, err := h.exportService.ExportPage(c.Request.Context(), userID, c.Param("pageId"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe page exported successfully",
		"key":     key,
	})
}
