package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/recipebox-server/internal/aggregate"
	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/model"
)

// PagesService defines the page, timer and unit converter operations of an account.
type PagesService interface {
	Dashboard(ctx context.Context, userID uuid.UUID) ([]model.Page, error)
	ListUnitConverters(ctx context.Context, userID uuid.UUID, pageID string) ([]model.UnitConverter, error)
	AddPage(ctx context.Context, userID uuid.UUID, in aggregate.PageInput) (model.Page, []model.Page, error)
	DeletePage(ctx context.Context, userID uuid.UUID, pageID string) ([]model.Page, error)
	AddTimer(ctx context.Context, userID uuid.UUID, in aggregate.TimerInput) ([]model.Timer, error)
	DeleteTimer(ctx context.Context, userID uuid.UUID, pageID, timerID string) ([]model.Timer, error)
	AddUnitConverter(ctx context.Context, userID uuid.UUID, pageID string, in aggregate.ConverterInput) ([]model.UnitConverter, error)
	UpdateUnitConverter(ctx context.Context, userID uuid.UUID, pageID, converterID string, in aggregate.ConverterInput) ([]model.UnitConverter, error)
	DeleteUnitConverter(ctx context.Context, userID uuid.UUID, pageID, converterID string) ([]model.UnitConverter, error)
}

// Pages handles the authenticated page endpoints.
type Pages struct {
	pagesService   PagesService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewPages creates a new Pages handler.
func NewPages(pagesService PagesService, contextManager model.ContextManager, logger *logger.Logger) *Pages {
	return &Pages{
		pagesService:   pagesService,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *Pages) Dashboard(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	pages, err := h.pagesService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome, user " + userID.String(),
		"pages":   pages,
	})
}

func (h *Pages) AddPage(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var in aggregate.PageInput
	if !bindJSON(c, &in) {
		return
	}

	page, pages, err := h.pagesService.AddPage(c.Request.Context(), userID, in)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe page added successfully",
		"page":    page,
		"pages":   pages,
	})
}

func (h *Pages) DeletePage(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	pages, err := h.pagesService.DeletePage(c.Request.Context(), userID, c.Param("pageId"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe page deleted successfully",
		"pages":   pages,
	})
}

func (h *Pages) AddTimer(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var in aggregate.TimerInput
	if !bindJSON(c, &in) {
		return
	}

	timers, err := h.pagesService.AddTimer(c.Request.Context(), userID, in)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Timer added successfully",
		"timers":  timers,
	})
}

// DeleteTimer searches every page unless the pageId query parameter scopes it.
func (h *Pages) DeleteTimer(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	timers, err := h.pagesService.DeleteTimer(c.Request.Context(), userID, c.Query("pageId"), c.Param("timerId"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Timer deleted successfully",
		"timers":  timers,
	})
}

func (h *Pages) ListUnitConverters(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	converters, err := h.pagesService.ListUnitConverters(c.Request.Context(), userID, c.Param("pageId"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unitConverters": converters})
}

func (h *Pages) AddUnitConverter(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var in aggregate.ConverterInput
	if !bindJSON(c, &in) {
		return
	}

	converters, err := h.pagesService.AddUnitConverter(c.Request.Context(), userID, c.Param("pageId"), in)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Unit converter added successfully",
		"unitConverters": converters,
	})
}

func (h *Pages) UpdateUnitConverter(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var in aggregate.ConverterInput
	if !bindJSON(c, &in) {
		return
	}

	converters, err := h.pagesService.UpdateUnitConverter(c.Request.Context(), userID, c.Param("pageId"), c.Param("converterId"), in)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Unit converter updated successfully",
		"unitConverters": converters,
	})
}

func (h *Pages) DeleteUnitConverter(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	converters, err := h.pagesService.DeleteUnitConverter(c.Request.Context(), userID, c.Param("pageId"), c.Param("converterId"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Unit converter deleted successfully",
		"unitConverters": converters,
	})
}

// userID aborts with 401 when the authenticate middleware did not run.
func (h *Pages) userID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		handleError(c, model.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msgInvalidBody})
		return false
	}
	return true
}
