package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/keepr/keepr/internal/archive"
	"github.com/keepr/keepr/internal/models"
	"github.com/keepr/keepr/internal/repository"
	"github.com/keepr/keepr/pkg/config"
	"github.com/keepr/keepr/pkg/logger"
)

// ExportService produces a personal export archive: the account's items and
// tags as JSON manifests plus the media files they reference.
type ExportService struct {
	cfg      *config.Config
	itemRepo *repository.ItemRepository
}

// NewExportService creates a new export service
func NewExportService(cfg *config.Config, itemRepo *repository.ItemRepository) *ExportService {
	return &ExportService{cfg: cfg, itemRepo: itemRepo}
}

// Export writes the archive to a temporary file and returns its path together
// with a download name. The caller owns the file and removes it when done.
func (s *ExportService) Export(user *models.User) (path string, name string, err error) {
	items, err := s.itemRepo.ListByUser(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to load items: %w", err)
	}
	tags, err := s.itemRepo.ListTagsByUser(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to load tags: %w", err)
	}

	exportedItems := make([]ExportedItem, 0, len(items))
	for _, item := range items {
		exportedItems = append(exportedItems, exportedItem(item))
	}
	exportedTags := make([]ExportedTag, 0, len(tags))
	for _, tag := range tags {
		exportedTags = append(exportedTags, exportedTag(tag))
	}

	now := time.Now()
	meta := ExportMetadata{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		ExportedAt: now,
		ItemCount:  len(exportedItems),
		TagCount:   len(exportedTags),
	}

	entries := []archive.Entry{
		archive.JSONEntry(archive.EntryItems, exportedItems),
		archive.JSONEntry(archive.EntryTags, exportedTags),
		archive.JSONEntry(archive.EntryMetadata, meta),
	}

	for i := range items {
		item := &items[i]
		if item.FilePath == "" {
			continue
		}
		src := filepath.Join(s.cfg.MediaRoot, item.FilePath)
		if _, statErr := os.Stat(src); statErr != nil {
			logger.Warn("Export skipping missing media file", map[string]interface{}{
				"item_id": item.ID,
				"path":    item.FilePath,
			})
			continue
		}
		entries = append(entries, archive.FileEntry(archive.MediaPrefix+item.FilePath, src))
	}

	tmpPath, err := tempArchivePath()
	if err != nil {
		return "", "", err
	}
	if err := archive.Build(tmpPath, entries); err != nil {
		os.Remove(tmpPath)
		return "", "", fmt.Errorf("failed to build export archive: %w", err)
	}

	name = fmt.Sprintf("keepr_export_%s.zip", now.Format("20060102_150405"))
	return tmpPath, name, nil
}
