package repository

import (
	"fmt"

	"github.com/keepr/keepr/internal/models"
	"github.com/keepr/keepr/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB initializes the database connection for the dialect selected in the
// configuration. Only "postgres" and "sqlite" are supported; there is no
// runtime detection of a third dialect.
func InitDB(cfg *config.Config) error {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.Debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	var err error
	switch cfg.DatabaseType {
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUser, cfg.DatabasePass, cfg.DatabaseName)
		DB, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

	case "sqlite", "sqlite3":
		DB, err = gorm.Open(sqlite.Open(cfg.DatabasePath), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to open sqlite database: %w", err)
		}

	default:
		return fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}

	return Migrate(DB)
}

// Migrate creates or updates the schema for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.Tag{},
		&models.ItemTag{},
		&models.BackupSettings{},
		&models.BackupLog{},
	)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
