package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepr/keepr/internal/storage"
)

func TestSettingsMasksSecret(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := newBackupService(t, env)

	stored, err := env.backupRepo.Settings(user.ID)
	require.NoError(t, err)
	stored.S3SecretKey = "super-secret"
	require.NoError(t, env.backupRepo.UpdateSettings(stored))

	view, err := svc.Settings(user.ID)
	require.NoError(t, err)
	assert.Equal(t, SecretMask, view.S3SecretKey)
}

func TestSettingsEmptySecretNotMasked(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := newBackupService(t, env)

	view, err := svc.Settings(user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.S3SecretKey)
}

func TestUpdateSettingsKeepsSecretWhenMaskSentBack(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := newBackupService(t, env)

	stored, err := env.backupRepo.Settings(user.ID)
	require.NoError(t, err)
	stored.S3SecretKey = "super-secret"
	require.NoError(t, env.backupRepo.UpdateSettings(stored))

	mask := SecretMask
	enabled := true
	bucket := "my-bucket"
	_, err = svc.UpdateSettings(user.ID, &SettingsUpdate{
		S3Enabled:    &enabled,
		S3BucketName: &bucket,
		S3SecretKey:  &mask,
	})
	require.NoError(t, err)

	stored, err = env.backupRepo.Settings(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "super-secret", stored.S3SecretKey, "mask round trip must not overwrite the secret")
	assert.True(t, stored.S3Enabled)
	assert.Equal(t, "my-bucket", stored.S3BucketName)
}

func TestUpdateSettingsPartial(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := newBackupService(t, env)

	interval := uint(48)
	view, err := svc.UpdateSettings(user.ID, &SettingsUpdate{IntervalHours: &interval})
	require.NoError(t, err)
	assert.Equal(t, uint(48), view.IntervalHours)
	// untouched fields keep their defaults
	assert.True(t, view.BackupOnNewItem)
	assert.False(t, view.S3Enabled)
}

func TestUpdateSettingsNewSecret(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := newBackupService(t, env)

	secret := "fresh-secret"
	view, err := svc.UpdateSettings(user.ID, &SettingsUpdate{S3SecretKey: &secret})
	require.NoError(t, err)
	assert.Equal(t, SecretMask, view.S3SecretKey)

	stored, err := env.backupRepo.Settings(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-secret", stored.S3SecretKey)
}

func TestTestS3IncompleteWithoutStoredOrRequestCredentials(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := newBackupService(t, env)

	bucket := "candidate-bucket"
	err := svc.TestS3(context.Background(), user.ID, &S3TestRequest{S3BucketName: &bucket})
	assert.ErrorIs(t, err, storage.ErrIncompleteSettings)
}

func TestTestS3RequestCredentialsOverrideStored(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := newBackupService(t, env)

	// nothing stored; the request alone must be enough to attempt the probe
	bucket := "candidate-bucket"
	access := "ak"
	secret := "sk"
	endpoint := "http://127.0.0.1:1"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := svc.TestS3(ctx, user.ID, &S3TestRequest{
		S3BucketName: &bucket,
		S3AccessKey:  &access,
		S3SecretKey:  &secret,
		S3Endpoint:   &endpoint,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrIncompleteSettings)
}

func TestTestS3MaskedSecretFallsBackToStored(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := newBackupService(t, env)

	stored, err := env.backupRepo.Settings(user.ID)
	require.NoError(t, err)
	stored.S3BucketName = "saved-bucket"
	stored.S3AccessKey = "saved-ak"
	stored.S3SecretKey = "saved-sk"
	stored.S3Endpoint = "http://127.0.0.1:1"
	require.NoError(t, env.backupRepo.UpdateSettings(stored))

	// sending the mask back must resolve to the stored secret, so the probe
	// proceeds past credential validation
	mask := SecretMask
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = svc.TestS3(ctx, user.ID, &S3TestRequest{S3SecretKey: &mask})
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrIncompleteSettings)
}

func TestTestS3NoRequestUsesStoredSettings(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := newBackupService(t, env)

	err := svc.TestS3(context.Background(), user.ID, nil)
	assert.ErrorIs(t, err, storage.ErrIncompleteSettings)
}
