package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies an archive by its contents
type Kind int

const (
	KindUnknown Kind = iota
	KindPersonal
	KindFull
)

// ErrNotArchive marks a file that is not a readable zip container
var ErrNotArchive = errors.New("not a valid archive")

// DetectKind opens the archive and classifies it: a full backup carries a
// database payload at the root, a personal export carries items.json. An
// archive with neither is KindUnknown.
func DetectKind(path string) (Kind, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return KindUnknown, ErrNotArchive
	}
	defer r.Close()

	for _, f := range r.File {
		switch f.Name {
		case EntrySQLDump, EntrySQLite:
			return KindFull, nil
		}
	}
	for _, f := range r.File {
		if f.Name == EntryItems {
			return KindPersonal, nil
		}
	}
	return KindUnknown, nil
}

// ReadEntry returns the full contents of one named entry
func ReadEntry(path, name string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, ErrNotArchive
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open archive entry %s: %w", name, err)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("archive entry %s not found", name)
}

// HasEntry reports whether the archive holds an entry with the exact name
func HasEntry(path, name string) (bool, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false, ErrNotArchive
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == name {
			return true, nil
		}
	}
	return false, nil
}

type entryReader struct {
	io.ReadCloser
	container *zip.ReadCloser
}

func (r *entryReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.container.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenEntry returns a streaming reader for one named entry. Closing the
// reader also closes the underlying archive.
func OpenEntry(path, name string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, ErrNotArchive
	}

	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("failed to open archive entry %s: %w", name, err)
			}
			return &entryReader{ReadCloser: rc, container: r}, nil
		}
	}
	r.Close()
	return nil, fmt.Errorf("archive entry %s not found", name)
}

// FindBySuffix returns the first entry under media/ whose path ends with the
// given filename. The archive's internal layout may not match the
// destination's, so lookup is by suffix, not by full path.
func FindBySuffix(r *zip.Reader, filename string) *zip.File {
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, MediaPrefix) {
			continue
		}
		if f.Name == MediaPrefix+filename || strings.HasSuffix(f.Name, "/"+filename) {
			return f
		}
	}
	return nil
}

// ExtractEntry writes one archive member to destPath, creating parent
// directories and overwriting any existing file.
func ExtractEntry(f *zip.File, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return out.Close()
}

// ExtractTree extracts every entry under prefix into destRoot, stripping the
// prefix. Entries escaping destRoot are skipped. Per-file failures are
// collected, not fatal; the count of extracted files and the failure
// messages are returned.
func ExtractTree(path, prefix, destRoot string) (int, []string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return 0, nil, ErrNotArchive
	}
	defer r.Close()

	extracted := 0
	var warnings []string
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, prefix) || f.FileInfo().IsDir() {
			continue
		}
		rel := filepath.Clean(strings.TrimPrefix(f.Name, prefix))
		if rel == "." || strings.HasPrefix(rel, "..") {
			warnings = append(warnings, fmt.Sprintf("skipped unsafe path %s", f.Name))
			continue
		}
		if err := ExtractEntry(f, filepath.Join(destRoot, rel)); err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		extracted++
	}
	return extracted, warnings, nil
}
