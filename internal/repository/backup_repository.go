package repository

import (
	"time"

	"github.com/keepr/keepr/internal/models"
	"gorm.io/gorm"
)

// BackupRepository handles database operations for backup settings and logs
type BackupRepository struct {
	db *gorm.DB
}

// NewBackupRepository creates a new backup repository
func NewBackupRepository(db *gorm.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

// Settings returns the account's backup settings. The row is created at
// account creation time, so a missing row is an error, not a cue to create
// one here.
func (r *BackupRepository) Settings(userID string) (*models.BackupSettings, error) {
	var settings models.BackupSettings
	if err := r.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings persists a settings change
func (r *BackupRepository) UpdateSettings(settings *models.BackupSettings) error {
	return r.db.Save(settings).Error
}

// RecordRun updates the change-detection state after a successful backup
func (r *BackupRepository) RecordRun(settings *models.BackupSettings, itemCount int64, at time.Time) error {
	settings.LastBackupAt = &at
	settings.LastItemCount = itemCount
	return r.db.Model(settings).Updates(map[string]interface{}{
		"last_backup_at":  at,
		"last_item_count": itemCount,
	}).Error
}

// AppendLog appends one immutable backup log record
func (r *BackupRepository) AppendLog(log *models.BackupLog) error {
	return r.db.Create(log).Error
}

// RecentLogs returns the account's newest log records, bounded by limit
func (r *BackupRepository) RecentLogs(userID string, limit int) ([]models.BackupLog, error) {
	var logs []models.BackupLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
