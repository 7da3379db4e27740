package service

import (
	"context"
	"fmt"

	"github.com/keepr/keepr/internal/archive"
	"github.com/keepr/keepr/internal/dbdump"
	"github.com/keepr/keepr/internal/models"
	"github.com/keepr/keepr/internal/monitoring"
	"github.com/keepr/keepr/internal/repository"
	"github.com/keepr/keepr/pkg/config"
	"github.com/keepr/keepr/pkg/logger"
)

// RestoreService replaces the entire store with the contents of a full
// backup archive. Destructive; gated on privilege and explicit confirmation.
type RestoreService struct {
	cfg       *config.Config
	dumper    dbdump.Dumper
	backupSvc *BackupService
	itemRepo  *repository.ItemRepository
	userRepo  *repository.UserRepository
}

// NewRestoreService creates a new restore service
func NewRestoreService(
	cfg *config.Config,
	dumper dbdump.Dumper,
	backupSvc *BackupService,
	itemRepo *repository.ItemRepository,
	userRepo *repository.UserRepository,
) *RestoreService {
	return &RestoreService{
		cfg:       cfg,
		dumper:    dumper,
		backupSvc: backupSvc,
		itemRepo:  itemRepo,
		userRepo:  userRepo,
	}
}

// RestoreResult reports the state of the store after a full restore
type RestoreResult struct {
	Users         int64    `json:"users_restored"`
	Items         int64    `json:"items_restored"`
	Tags          int64    `json:"tags_restored"`
	FilesRestored int      `json:"files_restored"`
	Warnings      []string `json:"warnings"`
}

// RestoreFull validates the archive, takes a best-effort safety snapshot,
// then replaces the database and media tree with the archive's contents.
// The acting session is invalidated along with everything else.
func (s *RestoreService) RestoreFull(
	ctx context.Context,
	user *models.User,
	path string,
	confirmed bool,
) (*RestoreResult, error) {
	if !user.IsSuperuser {
		return nil, ErrForbidden
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	kind, err := archive.DetectKind(path)
	if err != nil {
		return nil, ErrInvalidArchive
	}
	if kind != archive.KindFull {
		return nil, ErrNotFullBackup
	}

	// The payload must match the running database engine
	ok, err := archive.HasEntry(path, s.dumper.EntryName())
	if err != nil {
		return nil, ErrInvalidArchive
	}
	if !ok {
		return nil, ErrDialectMismatch
	}

	result := &RestoreResult{Warnings: []string{}}

	// Safety snapshot of the current state; its failure must not block the
	// restore the operator already confirmed.
	if snapPath, err := s.backupSvc.SnapshotFull(ctx); err != nil {
		logger.Warn("Pre-restore snapshot failed", map[string]interface{}{"error": err.Error()})
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("pre-restore snapshot failed: %v", err))
	} else {
		logger.Info("Pre-restore snapshot stored", map[string]interface{}{"path": snapPath})
	}

	// Media first: files from the archive overwrite current ones, files
	// present locally but absent from the archive are left in place. If the
	// database step below fails, the extracted media stays extracted.
	extracted, warnings, err := archive.ExtractTree(path, archive.MediaPrefix, s.cfg.MediaRoot)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("media restore failed: %v", err))
	}
	result.FilesRestored = extracted
	result.Warnings = append(result.Warnings, warnings...)

	payload, err := archive.OpenEntry(path, s.dumper.EntryName())
	if err != nil {
		return nil, ErrInvalidArchive
	}
	if err := s.dumper.Restore(ctx, payload); err != nil {
		payload.Close()
		monitoring.RestoreRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("database restore failed: %w", err)
	}
	payload.Close()
	monitoring.RestoreRuns.WithLabelValues("success").Inc()

	if result.Users, err = s.userRepo.Count(); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("user count failed: %v", err))
	}
	if result.Items, err = s.itemRepo.CountAll(); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("item count failed: %v", err))
	}
	if result.Tags, err = s.itemRepo.CountTags(); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("tag count failed: %v", err))
	}

	logger.Info("Full restore completed", map[string]interface{}{
		"users":    result.Users,
		"items":    result.Items,
		"tags":     result.Tags,
		"files":    result.FilesRestored,
		"warnings": len(result.Warnings),
	})
	return result, nil
}
