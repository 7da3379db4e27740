package service

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keepr/keepr/internal/archive"
	"github.com/keepr/keepr/internal/models"
	"github.com/keepr/keepr/internal/monitoring"
	"github.com/keepr/keepr/pkg/config"
	"github.com/keepr/keepr/pkg/logger"
)

// ImportService merges a personal export archive into the acting account.
// Every identifier in the archive is remapped; nothing existing is deleted.
type ImportService struct {
	cfg *config.Config
	db  *gorm.DB
}

// NewImportService creates a new import service
func NewImportService(cfg *config.Config, db *gorm.DB) *ImportService {
	return &ImportService{cfg: cfg, db: db}
}

// ImportSummary is the outcome of a personal import
type ImportSummary struct {
	ItemsImported int      `json:"items_imported"`
	TagsImported  int      `json:"tags_imported"`
	FilesImported int      `json:"files_imported"`
	Errors        []string `json:"errors"`
}

// ImportPersonal reads the archive at path and merges its items, tags and
// media files into the account. A failing item is recorded and skipped; the
// rest of the archive still lands in one transaction.
func (s *ImportService) ImportPersonal(user *models.User, path string) (*ImportSummary, error) {
	kind, err := archive.DetectKind(path)
	if err != nil {
		return nil, ErrInvalidArchive
	}
	switch kind {
	case archive.KindFull:
		return nil, ErrModeMismatch
	case archive.KindPersonal:
	default:
		return nil, ErrMissingItems
	}

	var exportedItems []ExportedItem
	data, err := archive.ReadEntry(path, archive.EntryItems)
	if err != nil {
		return nil, ErrMissingItems
	}
	if err := json.Unmarshal(data, &exportedItems); err != nil {
		return nil, ErrInvalidArchive
	}

	// tags.json is optional; items carry their own tag lists as a fallback
	var exportedTags []ExportedTag
	if data, err := archive.ReadEntry(path, archive.EntryTags); err == nil {
		if err := json.Unmarshal(data, &exportedTags); err != nil {
			return nil, ErrInvalidArchive
		}
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, ErrInvalidArchive
	}
	defer reader.Close()

	summary := &ImportSummary{Errors: []string{}}
	var extracted []string

	err = s.db.Transaction(func(tx *gorm.DB) error {
		tagIDs, err := s.reconcileTags(tx, user, exportedTags, exportedItems, summary)
		if err != nil {
			return err
		}
		for i := range exportedItems {
			item := &exportedItems[i]
			files, err := s.importItem(tx, user, item, tagIDs, &reader.Reader)
			if err != nil {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("item %q: %v", item.Title, err))
				monitoring.ImportItems.WithLabelValues("failed").Inc()
				continue
			}
			monitoring.ImportItems.WithLabelValues("imported").Inc()
			summary.ItemsImported++
			summary.FilesImported += files.count
			extracted = append(extracted, files.paths...)
		}
		return nil
	})
	if err != nil {
		// the transaction rolled back; remove any media already on disk
		for _, p := range extracted {
			os.Remove(p)
		}
		return nil, fmt.Errorf("import failed: %w", err)
	}

	logger.Info("Personal import completed", map[string]interface{}{
		"user_id": user.ID,
		"items":   summary.ItemsImported,
		"tags":    summary.TagsImported,
		"files":   summary.FilesImported,
		"errors":  len(summary.Errors),
	})
	return summary, nil
}

// reconcileTags maps archive tag IDs to tag IDs in this store, reusing the
// account's tags with the same name and creating the rest.
func (s *ImportService) reconcileTags(
	tx *gorm.DB,
	user *models.User,
	tags []ExportedTag,
	items []ExportedItem,
	summary *ImportSummary,
) (map[string]string, error) {
	// collect tags referenced only from items
	seen := make(map[string]ExportedTag, len(tags))
	for _, t := range tags {
		seen[t.ID] = t
	}
	for _, item := range items {
		for _, t := range item.Tags {
			if _, ok := seen[t.ID]; !ok {
				seen[t.ID] = t
			}
		}
	}

	ids := make(map[string]string, len(seen))
	for oldID, t := range seen {
		if t.Name == "" {
			continue
		}
		var existing models.Tag
		err := tx.Where("user_id = ? AND name = ?", user.ID, t.Name).First(&existing).Error
		if err == nil {
			ids[oldID] = existing.ID
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		tag := models.Tag{UserID: user.ID, Name: t.Name, Color: t.Color}
		if err := tx.Create(&tag).Error; err != nil {
			return nil, err
		}
		ids[oldID] = tag.ID
		summary.TagsImported++
	}
	return ids, nil
}

type importedFiles struct {
	count int
	paths []string
}

// sizeLimit returns the configured ceiling for an item type's payload.
// Zero means unlimited.
func (s *ImportService) sizeLimit(t models.ItemType) int64 {
	switch t {
	case models.ItemTypeText, models.ItemTypeLogin:
		return s.cfg.MaxTextSize
	case models.ItemTypeImage:
		return s.cfg.MaxImageSize
	case models.ItemTypeVideo:
		return s.cfg.MaxVideoSize
	default:
		return s.cfg.MaxFileSize
	}
}

// importItem creates one item inside its own savepoint so a failure rolls
// back that item alone, not the whole import.
func (s *ImportService) importItem(
	tx *gorm.DB,
	user *models.User,
	rec *ExportedItem,
	tagIDs map[string]string,
	reader *zip.Reader,
) (importedFiles, error) {
	var files importedFiles

	if !models.ValidItemType(rec.Type) {
		return files, fmt.Errorf("unknown item type %q", rec.Type)
	}
	limit := s.sizeLimit(rec.Type)
	if limit > 0 && int64(len(rec.Content)) > limit {
		return files, fmt.Errorf("content exceeds the %d byte limit", limit)
	}

	err := tx.Transaction(func(tx *gorm.DB) error {
		item := models.Item{
			ID:           uuid.New().String(),
			UserID:       user.ID,
			Type:         rec.Type,
			Title:        rec.Title,
			Content:      rec.Content,
			FileName:     rec.FileName,
			FileSize:     rec.FileSize,
			FileMimetype: rec.FileMimetype,
			CreatedAt:    rec.CreatedAt,
			UpdatedAt:    rec.UpdatedAt,
		}

		if rec.FileName != "" {
			entry := archive.FindBySuffix(reader, rec.FileName)
			if entry != nil {
				if limit > 0 && int64(entry.UncompressedSize64) > limit {
					return fmt.Errorf("file %s exceeds the %d byte limit",
						rec.FileName, limit)
				}
				relPath := filepath.Join(user.ID, item.ID+"-"+filepath.Base(rec.FileName))
				destPath := filepath.Join(s.cfg.MediaRoot, relPath)
				if err := archive.ExtractEntry(entry, destPath); err != nil {
					return fmt.Errorf("failed to extract %s: %w", rec.FileName, err)
				}
				item.FilePath = relPath
				files.count++
				files.paths = append(files.paths, destPath)
			}
		}

		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		for _, t := range rec.Tags {
			newID, ok := tagIDs[t.ID]
			if !ok {
				continue
			}
			link := models.ItemTag{ItemID: item.ID, TagID: newID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// roll back the extracted file along with the savepoint
		for _, p := range files.paths {
			os.Remove(p)
		}
		return importedFiles{}, err
	}
	return files, nil
}
