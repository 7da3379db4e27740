package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BackupStatus is the outcome of one backup run
type BackupStatus string

const (
	BackupStatusSuccess BackupStatus = "success"
	BackupStatusFailed  BackupStatus = "failed"
	BackupStatusSkipped BackupStatus = "skipped"
)

// BackupSettings holds one account's backup configuration. A row is created
// when the account is created and is guaranteed present afterwards; it is
// mutated only through the settings-update operation.
type BackupSettings struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"uniqueIndex;size:36;not null" json:"-"`

	// Schedule
	IntervalHours   uint `gorm:"default:24" json:"interval_hours"`
	BackupOnNewItem bool `gorm:"default:true" json:"backup_on_new_item"`

	// Local backup
	LocalBackupEnabled bool `gorm:"default:false" json:"local_backup_enabled"`

	// S3 backup
	S3Enabled    bool   `gorm:"default:false" json:"s3_enabled"`
	S3BucketName string `gorm:"size:255" json:"s3_bucket_name"`
	S3AccessKey  string `gorm:"size:255" json:"s3_access_key"`
	S3SecretKey  string `gorm:"size:255" json:"-"` // presence-masked in API responses
	S3Region     string `gorm:"size:100;default:us-east-1" json:"s3_region"`
	S3Endpoint   string `gorm:"size:255" json:"s3_endpoint"`

	// State of the last run
	LastBackupAt  *time.Time `json:"last_backup_at"`
	LastItemCount int64      `gorm:"default:0" json:"last_item_count"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (BackupSettings) TableName() string {
	return "backup_settings"
}

// BackupLog is one append-only record of a backup run. Immutable once
// created; listed newest-first.
type BackupLog struct {
	ID            uint           `gorm:"primaryKey" json:"-"`
	UserID        string         `gorm:"index;size:36;not null" json:"-"`
	Status        BackupStatus   `gorm:"size:20;not null" json:"status"`
	Message       string         `gorm:"type:text" json:"message"`
	ItemsBackedUp int64          `gorm:"default:0" json:"items_backed_up"`
	FilesBackedUp int64          `gorm:"default:0" json:"files_backed_up"`
	Destinations  datatypes.JSON `json:"destinations,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (BackupLog) TableName() string {
	return "backup_logs"
}

// BeforeUpdate rejects mutation of existing log rows
func (BackupLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrInvalidData
}
