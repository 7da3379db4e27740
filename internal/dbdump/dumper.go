// Package dbdump abstracts full logical dump and destructive restore over
// the two supported storage dialects. The variant is selected once at
// startup from configuration; callers hold a single Dumper for the process
// lifetime.
package dbdump

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/keepr/keepr/pkg/config"
)

// Dumper produces a full dump of the active database and restores from one.
// Restore is always destructive to the previous state; neither operation is
// reversible.
type Dumper interface {
	// EntryName is the archive entry name the dump payload is stored under
	EntryName() string
	// Dump writes the full logical state of the database to w
	Dump(ctx context.Context, w io.Writer) error
	// Restore replaces the database wholesale with the payload read from r
	Restore(ctx context.Context, r io.Reader) error
}

// New selects the dumper variant for the configured dialect. db is the live
// connection pool; the sqlite variant needs it to recycle connections around
// a restore, the postgres variant manages sessions server-side.
func New(cfg *config.Config, db *gorm.DB) (Dumper, error) {
	switch cfg.DatabaseType {
	case "postgres", "postgresql":
		return NewPostgresDumper(cfg), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDumper(cfg.DatabasePath, db), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}
}
