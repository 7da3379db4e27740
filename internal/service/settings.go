package service

import (
	"context"
	"fmt"

	"github.com/keepr/keepr/internal/models"
	"github.com/keepr/keepr/internal/storage"
)

// SecretMask is what the API shows instead of a stored secret key. Sending
// it back on update means "keep the stored value".
const SecretMask = "********"

// SettingsView is the API shape of backup settings, secrets masked
type SettingsView struct {
	IntervalHours      uint    `json:"backup_interval_hours"`
	BackupOnNewItem    bool    `json:"backup_on_new_item"`
	LocalBackupEnabled bool    `json:"local_backup_enabled"`
	S3Enabled          bool    `json:"s3_enabled"`
	S3BucketName       string  `json:"s3_bucket_name"`
	S3AccessKey        string  `json:"s3_access_key"`
	S3SecretKey        string  `json:"s3_secret_key"`
	S3Region           string  `json:"s3_region"`
	S3Endpoint         string  `json:"s3_endpoint"`
	LastBackupAt       *string `json:"last_backup_at"`
	LastItemCount      int64   `json:"last_item_count"`
}

// SettingsUpdate carries a partial settings change; nil fields keep their
// stored values.
type SettingsUpdate struct {
	IntervalHours      *uint   `json:"backup_interval_hours"`
	BackupOnNewItem    *bool   `json:"backup_on_new_item"`
	LocalBackupEnabled *bool   `json:"local_backup_enabled"`
	S3Enabled          *bool   `json:"s3_enabled"`
	S3BucketName       *string `json:"s3_bucket_name"`
	S3AccessKey        *string `json:"s3_access_key"`
	S3SecretKey        *string `json:"s3_secret_key"`
	S3Region           *string `json:"s3_region"`
	S3Endpoint         *string `json:"s3_endpoint"`
}

// Settings returns the account's settings in masked API form
func (s *BackupService) Settings(userID string) (*SettingsView, error) {
	settings, err := s.backupRepo.Settings(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup settings: %w", err)
	}
	return maskedView(settings), nil
}

// UpdateSettings applies a partial update and returns the new masked view.
// A secret key equal to the mask leaves the stored secret untouched.
func (s *BackupService) UpdateSettings(userID string, update *SettingsUpdate) (*SettingsView, error) {
	settings, err := s.backupRepo.Settings(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup settings: %w", err)
	}

	if update.IntervalHours != nil {
		settings.IntervalHours = *update.IntervalHours
	}
	if update.BackupOnNewItem != nil {
		settings.BackupOnNewItem = *update.BackupOnNewItem
	}
	if update.LocalBackupEnabled != nil {
		settings.LocalBackupEnabled = *update.LocalBackupEnabled
	}
	if update.S3Enabled != nil {
		settings.S3Enabled = *update.S3Enabled
	}
	if update.S3BucketName != nil {
		settings.S3BucketName = *update.S3BucketName
	}
	if update.S3AccessKey != nil {
		settings.S3AccessKey = *update.S3AccessKey
	}
	if update.S3SecretKey != nil && *update.S3SecretKey != SecretMask {
		settings.S3SecretKey = *update.S3SecretKey
	}
	if update.S3Region != nil {
		settings.S3Region = *update.S3Region
	}
	if update.S3Endpoint != nil {
		settings.S3Endpoint = *update.S3Endpoint
	}

	if err := s.backupRepo.UpdateSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to save backup settings: %w", err)
	}
	return maskedView(settings), nil
}

// S3TestRequest carries credentials to probe before saving them; nil fields
// fall back to the stored settings.
type S3TestRequest struct {
	S3BucketName *string `json:"s3_bucket_name"`
	S3AccessKey  *string `json:"s3_access_key"`
	S3SecretKey  *string `json:"s3_secret_key"`
	S3Region     *string `json:"s3_region"`
	S3Endpoint   *string `json:"s3_endpoint"`
}

// TestS3 opens a connection and checks that the bucket exists and is
// reachable. Credentials come from the request where given, from the stored
// settings otherwise, so unsaved form values can be validated. A secret
// equal to the mask means the stored secret.
func (s *BackupService) TestS3(ctx context.Context, userID string, req *S3TestRequest) error {
	settings, err := s.backupRepo.Settings(userID)
	if err != nil {
		return fmt.Errorf("failed to load backup settings: %w", err)
	}

	probe := storage.S3Config{
		Endpoint:  settings.S3Endpoint,
		Region:    settings.S3Region,
		Bucket:    settings.S3BucketName,
		AccessKey: settings.S3AccessKey,
		SecretKey: settings.S3SecretKey,
	}
	if req != nil {
		if req.S3BucketName != nil {
			probe.Bucket = *req.S3BucketName
		}
		if req.S3AccessKey != nil {
			probe.AccessKey = *req.S3AccessKey
		}
		if req.S3SecretKey != nil && *req.S3SecretKey != SecretMask {
			probe.SecretKey = *req.S3SecretKey
		}
		if req.S3Region != nil {
			probe.Region = *req.S3Region
		}
		if req.S3Endpoint != nil {
			probe.Endpoint = *req.S3Endpoint
		}
	}

	client, err := storage.NewS3Client(probe)
	if err != nil {
		return err
	}
	return client.TestConnection(ctx)
}

// RecentLogs returns the newest run records for the account
func (s *BackupService) RecentLogs(userID string, limit int) ([]models.BackupLog, error) {
	return s.backupRepo.RecentLogs(userID, limit)
}

func maskedView(settings *models.BackupSettings) *SettingsView {
	view := &SettingsView{
		IntervalHours:      settings.IntervalHours,
		BackupOnNewItem:    settings.BackupOnNewItem,
		LocalBackupEnabled: settings.LocalBackupEnabled,
		S3Enabled:          settings.S3Enabled,
		S3BucketName:       settings.S3BucketName,
		S3AccessKey:        settings.S3AccessKey,
		S3Region:           settings.S3Region,
		S3Endpoint:         settings.S3Endpoint,
		LastItemCount:      settings.LastItemCount,
	}
	if settings.S3SecretKey != "" {
		view.S3SecretKey = SecretMask
	}
	if settings.LastBackupAt != nil {
		ts := settings.LastBackupAt.UTC().Format("2006-01-02T15:04:05Z")
		view.LastBackupAt = &ts
	}
	return view
}
