package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/keepr/keepr/internal/models"
	"github.com/keepr/keepr/internal/repository"
	"github.com/keepr/keepr/pkg/config"
)

// testEnv wires a file-backed sqlite store and a scratch media tree, the same
// shape a small deployment runs with.
type testEnv struct {
	cfg        *config.Config
	db         *gorm.DB
	userRepo   *repository.UserRepository
	itemRepo   *repository.ItemRepository
	backupRepo *repository.BackupRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()

	cfg := &config.Config{
		AppName:        "keepr-test",
		DatabaseType:   "sqlite",
		DatabasePath:   filepath.Join(root, "keepr.sqlite3"),
		MediaRoot:      filepath.Join(root, "media"),
		LocalBackupDir: filepath.Join(root, "backups"),
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	return &testEnv{
		cfg:        cfg,
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		itemRepo:   repository.NewItemRepository(db),
		backupRepo: repository.NewBackupRepository(db),
	}
}

func (e *testEnv) createUser(t *testing.T, username string, superuser bool) *models.User {
	t.Helper()
	user := &models.User{
		Email:       username + "@example.com",
		Username:    username,
		IsStaff:     superuser,
		IsSuperuser: superuser,
	}
	require.NoError(t, user.SetPassword("test-password"))
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *testEnv) createItem(t *testing.T, user *models.User, title string, tags ...string) *models.Item {
	t.Helper()
	item := &models.Item{
		UserID: user.ID,
		Type:   models.ItemTypeText,
		Title:  title,
		Content: "content of " + title,
	}
	require.NoError(t, e.db.Create(item).Error)

	for _, name := range tags {
		tag := &models.Tag{UserID: user.ID, Name: name}
		require.NoError(t,
			e.db.Where("user_id = ? AND name = ?", user.ID, name).
				FirstOrCreate(tag).Error)
		require.NoError(t, e.db.Create(&models.ItemTag{ItemID: item.ID, TagID: tag.ID}).Error)
	}
	return item
}

func (e *testEnv) enableLocalBackup(t *testing.T, user *models.User) {
	t.Helper()
	settings, err := e.backupRepo.Settings(user.ID)
	require.NoError(t, err)
	settings.LocalBackupEnabled = true
	require.NoError(t, e.backupRepo.UpdateSettings(settings))
}
