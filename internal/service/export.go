package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/model"
)

// PageSnapshot is the document written for an exported page.
type PageSnapshot struct {
	UserID     string     `json:"userId"`
	ExportedAt time.Time  `json:"exportedAt"`
	Page       model.Page `json:"page"`
}

// Export writes JSON snapshots of pages to object storage.
type Export struct {
	pages   *Pages
	storage model.Storage
	logger  *logger.Logger
	now     func() time.Time
}

func NewExport(pages *Pages, storage model.Storage, logger *logger.Logger) *Export {
	return &Export{
		pages:   pages,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// ExportPage uploads the page and returns the object key it was stored under.
func (s *Export) ExportPage(ctx context.Context, userID uuid.UUID, pageID string) (string, error) {
	page, err := s.pages.GetPage(ctx, userID, pageID)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	body, err := json.Marshal(PageSnapshot{
		UserID:     userID.String(),
		ExportedAt: now,
		Page:       page,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode page snapshot: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s/%d.json", userID, page.ID, now.UnixNano())
	if err := s.storage.Upload(ctx, key, bytes.NewReader(body), int64(len(body))); err != nil {
		s.logger.Error("Export service: failed to upload snapshot",
			"user_id", userID,
			"page_id", pageID,
			"error", err.Error())
		return "", &model.PersistenceError{Op: "upload page snapshot", Err: err}
	}

	s.logger.Info("Export service: page exported",
		"user_id", userID,
		"page_id", pageID,
		"key", key)

	return key, nil
}
