package dbdump

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cast"

	"github.com/keepr/keepr/internal/archive"
	"github.com/keepr/keepr/pkg/config"
)

// PostgresDumper shells out to pg_dump/psql for logical dump and restore
type PostgresDumper struct {
	host     string
	port     int
	user     string
	password string
	database string
}

// NewPostgresDumper creates a dumper for the configured PostgreSQL server
func NewPostgresDumper(cfg *config.Config) *PostgresDumper {
	return &PostgresDumper{
		host:     cfg.DatabaseHost,
		port:     cfg.DatabasePort,
		user:     cfg.DatabaseUser,
		password: cfg.DatabasePass,
		database: cfg.DatabaseName,
	}
}

func (p *PostgresDumper) EntryName() string {
	return archive.EntrySQLDump
}

// Dump captures pg_dump's stdout as the dump payload. A non-zero exit is
// fatal and reported with the tool's stderr.
func (p *PostgresDumper) Dump(ctx context.Context, w io.Writer) error {
	cmd := exec.CommandContext(ctx, "pg_dump",
		"-h", p.host,
		"-p", cast.ToString(p.port),
		"-U", p.user,
		p.database)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+p.password)

	var stderr bytes.Buffer
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pg_dump failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Restore terminates other sessions on the target database, drops and
// recreates it, then replays the dump through psql's stdin. Blocking and
// synchronous; a non-zero psql exit aborts the restore.
func (p *PostgresDumper) Restore(ctx context.Context, r io.Reader) error {
	if err := p.recreateDatabase(ctx); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "psql",
		"-h", p.host,
		"-p", cast.ToString(p.port),
		"-U", p.user,
		"-v", "ON_ERROR_STOP=1",
		p.database)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+p.password)

	var stderr bytes.Buffer
	cmd.Stdin = r
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("psql restore failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// recreateDatabase connects to the maintenance database, kicks every other
// session off the target database and drops/recreates it.
func (p *PostgresDumper) recreateDatabase(ctx context.Context) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/postgres?sslmode=disable",
		p.user, p.password, p.host, p.port)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to create maintenance connection: %w", err)
	}
	defer db.Close()

	_, err = db.ExecContext(ctx,
		`SELECT pg_terminate_backend(pid) FROM pg_stat_activity
		 WHERE datname = $1 AND pid <> pg_backend_pid()`, p.database)
	if err != nil {
		return fmt.Errorf("failed to terminate active connections: %w", err)
	}

	if _, err = db.ExecContext(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %q`, p.database)); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	if _, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE DATABASE %q`, p.database)); err != nil {
		return fmt.Errorf("failed to recreate database: %w", err)
	}
	return nil
}
