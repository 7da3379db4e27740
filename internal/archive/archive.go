// Package archive builds and reads the zip containers used by backup,
// export, import and restore. An archive is self-describing: the entries it
// carries determine whether it is a personal export or a full backup.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Well-known entry names
const (
	EntryItems    = "items.json"
	EntryTags     = "tags.json"
	EntryMetadata = "metadata.json"
	EntrySQLDump  = "database.sql"
	EntrySQLite   = "database.sqlite3"
	MediaPrefix   = "media/"
)

// Entry is one named archive member and the writer that produces its bytes
type Entry struct {
	Name    string
	WriteTo func(w io.Writer) error
}

// FileEntry streams a file from disk into the archive
func FileEntry(name, path string) Entry {
	return Entry{
		Name: name,
		WriteTo: func(w io.Writer) error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			if _, err := io.Copy(w, f); err != nil {
				return fmt.Errorf("failed to add %s to archive: %w", path, err)
			}
			return nil
		},
	}
}

// JSONEntry serializes v with indentation. encoding/json emits struct fields
// in declaration order and map keys sorted, which keeps output diffable.
func JSONEntry(name string, v interface{}) Entry {
	return Entry{
		Name: name,
		WriteTo: func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
}

// TreeEntries returns file entries for every regular file under dir, named
// prefix + path-relative-to-dir. A missing dir yields no entries.
func TreeEntries(dir, prefix string) ([]Entry, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var entries []Entry
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		entries = append(entries, FileEntry(prefix+filepath.ToSlash(rel), path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Build assembles a deflate-compressed zip at dest from the given entries,
// in order. It writes to a partial file first and renames on success, so a
// failed build never leaves a valid-looking archive at dest.
func Build(dest string, entries []Entry) error {
	partial := dest + ".partial"

	f, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		w, err := zw.Create(entry.Name)
		if err != nil {
			return discardPartial(zw, f, partial, entry.Name, err)
		}
		if err := entry.WriteTo(w); err != nil {
			return discardPartial(zw, f, partial, entry.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(partial)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(partial)
		return fmt.Errorf("failed to close archive file: %w", err)
	}

	return os.Rename(partial, dest)
}

func discardPartial(zw *zip.Writer, f *os.File, partial, name string, err error) error {
	zw.Close()
	f.Close()
	os.Remove(partial)
	return fmt.Errorf("failed to write archive entry %s: %w", name, err)
}
