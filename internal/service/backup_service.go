package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/keepr/keepr/internal/archive"
	"github.com/keepr/keepr/internal/dbdump"
	"github.com/keepr/keepr/internal/models"
	"github.com/keepr/keepr/internal/monitoring"
	"github.com/keepr/keepr/internal/repository"
	"github.com/keepr/keepr/internal/storage"
	"github.com/keepr/keepr/pkg/config"
	"github.com/keepr/keepr/pkg/logger"
)

const backupKeepCount = 6

// FullScope is the naming and key scope used when a privileged account backs
// up the entire store instead of its own subtree.
const FullScope = "full"

// BackupService runs one backup invocation to completion:
// Start -> NeedCheck -> {Skip | Build -> Dispatch -> Record}.
type BackupService struct {
	cfg        *config.Config
	dumper     dbdump.Dumper
	backupRepo *repository.BackupRepository
	itemRepo   *repository.ItemRepository
}

// NewBackupService creates a new backup service
func NewBackupService(
	cfg *config.Config,
	dumper dbdump.Dumper,
	backupRepo *repository.BackupRepository,
	itemRepo *repository.ItemRepository,
) *BackupService {
	return &BackupService{
		cfg:        cfg,
		dumper:     dumper,
		backupRepo: backupRepo,
		itemRepo:   itemRepo,
	}
}

// BackupResult is the outcome of one backup run
type BackupResult struct {
	Status        models.BackupStatus `json:"status"`
	Message       string              `json:"message"`
	ItemsBackedUp int64               `json:"items_backed_up,omitempty"`
	FilesBackedUp int64               `json:"files_backed_up,omitempty"`
	Locations     []string            `json:"backup_locations,omitempty"`
}

// Run performs a backup for the acting account. A privileged account backs
// up the entire store; others back up only their own scope. The temporary
// archive is removed on every exit path.
func (s *BackupService) Run(ctx context.Context, user *models.User) (*BackupResult, error) {
	settings, err := s.backupRepo.Settings(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup settings: %w", err)
	}

	// Configuration errors are rejected before any side effect
	if !settings.LocalBackupEnabled && !settings.S3Enabled {
		return nil, ErrNotConfigured
	}
	if settings.LocalBackupEnabled && s.cfg.LocalBackupDir == "" {
		return nil, ErrLocalDirMissing
	}

	full := user.IsSuperuser
	scope := user.ID
	if full {
		scope = FullScope
	}

	itemCount, err := s.countItems(user, full)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	// NeedCheck: in change-triggered mode an unchanged item count makes the
	// run a no-op that never touches the file system.
	if settings.BackupOnNewItem && itemCount <= settings.LastItemCount {
		s.appendLog(&models.BackupLog{
			UserID:        user.ID,
			Status:        models.BackupStatusSkipped,
			Message:       "No new items since last backup",
			ItemsBackedUp: itemCount,
		})
		monitoring.BackupRuns.WithLabelValues(string(models.BackupStatusSkipped), scope).Inc()
		return &BackupResult{
			Status:        models.BackupStatusSkipped,
			Message:       "No new items to backup",
			ItemsBackedUp: itemCount,
		}, nil
	}

	result, err := s.run(ctx, user, settings, scope, full, itemCount)
	if err != nil {
		s.appendLog(&models.BackupLog{
			UserID:  user.ID,
			Status:  models.BackupStatusFailed,
			Message: err.Error(),
		})
		monitoring.BackupRuns.WithLabelValues(string(models.BackupStatusFailed), scope).Inc()
		return nil, err
	}

	monitoring.BackupRuns.WithLabelValues(string(models.BackupStatusSuccess), scope).Inc()
	return result, nil
}

func (s *BackupService) run(
	ctx context.Context,
	user *models.User,
	settings *models.BackupSettings,
	scope string,
	full bool,
	itemCount int64,
) (*BackupResult, error) {
	start := time.Now()

	tmpPath, err := tempArchivePath()
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	filesCount, err := s.buildArchive(ctx, tmpPath, user.ID, full)
	if err != nil {
		return nil, err
	}

	// Dispatch
	now := time.Now()
	var locations []string

	if settings.LocalBackupEnabled {
		if err := s.storeLocal(tmpPath, scope, now); err != nil {
			return nil, err
		}
		locations = append(locations, "local")
	}

	if settings.S3Enabled {
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  settings.S3Endpoint,
			Region:    settings.S3Region,
			Bucket:    settings.S3BucketName,
			AccessKey: settings.S3AccessKey,
			SecretKey: settings.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		if err := client.Upload(ctx, tmpPath, storage.BackupKey(scope, now)); err != nil {
			return nil, err
		}
		locations = append(locations, "S3")
	}

	// Record
	if err := s.backupRepo.RecordRun(settings, itemCount, now); err != nil {
		return nil, fmt.Errorf("failed to record backup state: %w", err)
	}

	message := fmt.Sprintf("Backup completed successfully (%s)", strings.Join(locations, " and "))
	destinations, _ := json.Marshal(locations)
	s.appendLog(&models.BackupLog{
		UserID:        user.ID,
		Status:        models.BackupStatusSuccess,
		Message:       message,
		ItemsBackedUp: itemCount,
		FilesBackedUp: filesCount,
		Destinations:  destinations,
	})

	monitoring.BackupDuration.Observe(time.Since(start).Seconds())
	logger.Info("Backup completed", map[string]interface{}{
		"user_id":   user.ID,
		"scope":     scope,
		"items":     itemCount,
		"files":     filesCount,
		"locations": locations,
	})

	return &BackupResult{
		Status:        models.BackupStatusSuccess,
		Message:       message,
		ItemsBackedUp: itemCount,
		FilesBackedUp: filesCount,
		Locations:     locations,
	}, nil
}

// buildArchive assembles the dump plus the relevant media subtree at dest
// and returns the number of media files included.
func (s *BackupService) buildArchive(ctx context.Context, dest, userID string, full bool) (int64, error) {
	entries := []archive.Entry{{
		Name: s.dumper.EntryName(),
		WriteTo: func(w io.Writer) error {
			return s.dumper.Dump(ctx, w)
		},
	}}

	var media []archive.Entry
	var err error
	if full {
		media, err = archive.TreeEntries(s.cfg.MediaRoot, archive.MediaPrefix)
	} else {
		media, err = archive.TreeEntries(
			filepath.Join(s.cfg.MediaRoot, userID),
			archive.MediaPrefix+userID+"/")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to collect media files: %w", err)
	}
	entries = append(entries, media...)

	if err := archive.Build(dest, entries); err != nil {
		return 0, err
	}
	return int64(len(media)), nil
}

// storeLocal copies the archive into the local backup directory under a
// timestamped scope-prefixed name and prunes old copies.
func (s *BackupService) storeLocal(archivePath, scope string, now time.Time) error {
	if err := os.MkdirAll(s.cfg.LocalBackupDir, 0755); err != nil {
		return fmt.Errorf("failed to create local backup directory: %w", err)
	}

	name := fmt.Sprintf("backup_%s_%s.zip", scope, now.Format("20060102_150405"))
	if err := copyFile(archivePath, filepath.Join(s.cfg.LocalBackupDir, name)); err != nil {
		return fmt.Errorf("failed to store local backup: %w", err)
	}

	PruneBackups(s.cfg.LocalBackupDir, fmt.Sprintf("backup_%s_*.zip", scope), backupKeepCount)
	return nil
}

// SnapshotFull builds a full-store archive into the local backup directory,
// the same way a privileged local backup would. Used as the pre-restore
// safety snapshot. Returns the snapshot path.
func (s *BackupService) SnapshotFull(ctx context.Context) (string, error) {
	if s.cfg.LocalBackupDir == "" {
		return "", ErrLocalDirMissing
	}

	tmpPath, err := tempArchivePath()
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpPath)

	if _, err := s.buildArchive(ctx, tmpPath, "", true); err != nil {
		return "", err
	}

	now := time.Now()
	if err := s.storeLocal(tmpPath, FullScope, now); err != nil {
		return "", err
	}
	name := fmt.Sprintf("backup_%s_%s.zip", FullScope, now.Format("20060102_150405"))
	return filepath.Join(s.cfg.LocalBackupDir, name), nil
}

func (s *BackupService) countItems(user *models.User, full bool) (int64, error) {
	if full {
		return s.itemRepo.CountAll()
	}
	return s.itemRepo.CountByUser(user.ID)
}

// appendLog records a run outcome; log failures must not mask the outcome
func (s *BackupService) appendLog(log *models.BackupLog) {
	if err := s.backupRepo.AppendLog(log); err != nil {
		logger.Error("Failed to append backup log", err, map[string]interface{}{
			"user_id": log.UserID,
			"status":  log.Status,
		})
	}
}

func tempArchivePath() (string, error) {
	tmp, err := os.CreateTemp("", "keepr-backup-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary archive: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	return path, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
