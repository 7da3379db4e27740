package dbdump

import (
	"context"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm"

	"github.com/keepr/keepr/internal/archive"
)

// SQLiteDumper copies the single-file embedded store byte for byte. Unlike
// the postgres variant there is no server to disconnect from, but the
// process's own connection pool holds descriptors to the store file, so a
// restore must recycle those connections or every later query would keep
// reading the replaced inode.
type SQLiteDumper struct {
	path string
	db   *gorm.DB
}

// NewSQLiteDumper creates a dumper for the store file at path. db may be nil
// when no pool is attached to the file.
func NewSQLiteDumper(path string, db *gorm.DB) *SQLiteDumper {
	return &SQLiteDumper{path: path, db: db}
}

func (s *SQLiteDumper) EntryName() string {
	return archive.EntrySQLite
}

// Dump streams the store file to w
func (s *SQLiteDumper) Dump(ctx context.Context, w io.Writer) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open database file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read database file: %w", err)
	}
	return nil
}

// Restore replaces the store file wholesale with the payload from r. Pooled
// connections are dropped before the swap and again after it, so the first
// query after a restore opens the restored file.
func (s *SQLiteDumper) Restore(ctx context.Context, r io.Reader) error {
	if err := s.recyclePool(); err != nil {
		return err
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing database file: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create database file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write database file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write database file: %w", err)
	}

	return s.recyclePool()
}

// recyclePool closes every idle connection so the pool reopens against the
// current store file. Shrinking the idle pool to zero closes its connections
// immediately; restoring the size lets fresh ones be pooled again.
func (s *SQLiteDumper) recyclePool() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(0)
	sqlDB.SetMaxIdleConns(2)
	return nil
}
