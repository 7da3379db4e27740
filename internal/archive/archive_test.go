package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestArchive(t *testing.T, entries []Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	require.NoError(t, Build(path, entries))
	return path
}

func stringEntry(name, content string) Entry {
	return Entry{
		Name: name,
		WriteTo: func(w io.Writer) error {
			_, err := io.WriteString(w, content)
			return err
		},
	}
}

func TestBuildWritesAllEntries(t *testing.T) {
	path := writeTestArchive(t, []Entry{
		stringEntry("items.json", `[]`),
		stringEntry("media/u1/photo.jpg", "jpeg-bytes"),
	})

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"items.json", "media/u1/photo.jpg"}, names)
}

func TestBuildFailureLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	err := Build(path, []Entry{
		stringEntry("items.json", `[]`),
		{Name: "bad", WriteTo: func(w io.Writer) error {
			return errors.New("source vanished")
		}},
	})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "destination must not exist after a failed build")
	_, statErr = os.Stat(path + ".partial")
	assert.True(t, os.IsNotExist(statErr), "partial file must be cleaned up")
}

func TestDetectKind(t *testing.T) {
	personal := writeTestArchive(t, []Entry{stringEntry(EntryItems, `[]`)})
	full := writeTestArchive(t, []Entry{stringEntry(EntrySQLDump, "-- dump")})
	// a full backup made from an embedded store that also carries manifests
	fullSQLite := writeTestArchive(t, []Entry{
		stringEntry(EntryItems, `[]`),
		stringEntry(EntrySQLite, "binary"),
	})
	unknown := writeTestArchive(t, []Entry{stringEntry("readme.txt", "hi")})

	for name, tc := range map[string]struct {
		path string
		want Kind
	}{
		"personal":           {personal, KindPersonal},
		"full":               {full, KindFull},
		"full wins over items": {fullSQLite, KindFull},
		"unknown":            {unknown, KindUnknown},
	} {
		t.Run(name, func(t *testing.T) {
			kind, err := DetectKind(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, kind)
		})
	}
}

func TestDetectKindRejectsNonArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-zip.zip")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	_, err := DetectKind(path)
	assert.ErrorIs(t, err, ErrNotArchive)
}

func TestFindBySuffix(t *testing.T) {
	path := writeTestArchive(t, []Entry{
		stringEntry("media/old-user/2024/photo.jpg", "a"),
		stringEntry("media/old-user/notes.txt", "b"),
		stringEntry("photo.jpg", "outside media, must not match"),
	})

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	f := FindBySuffix(&r.Reader, "photo.jpg")
	require.NotNil(t, f)
	assert.Equal(t, "media/old-user/2024/photo.jpg", f.Name)

	assert.Nil(t, FindBySuffix(&r.Reader, "missing.png"))
}

func TestExtractTreeSkipsUnsafePaths(t *testing.T) {
	path := writeTestArchive(t, []Entry{
		stringEntry("media/u1/a.txt", "a"),
		stringEntry("media/../../escape.txt", "evil"),
	})

	dest := t.TempDir()
	count, warnings, err := ExtractTree(path, MediaPrefix, dest)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, warnings, 1)

	data, err := os.ReadFile(filepath.Join(dest, "u1", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	_, statErr := os.Stat(filepath.Join(filepath.Dir(dest), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpenEntryStreamsAndCloses(t *testing.T) {
	path := writeTestArchive(t, []Entry{stringEntry(EntrySQLDump, "-- full dump")})

	rc, err := OpenEntry(path, EntrySQLDump)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "-- full dump", string(data))

	_, err = OpenEntry(path, "missing.json")
	assert.Error(t, err)
}

func TestHasEntry(t *testing.T) {
	path := writeTestArchive(t, []Entry{stringEntry(EntrySQLite, "x")})

	ok, err := HasEntry(path, EntrySQLite)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasEntry(path, EntrySQLDump)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTreeEntriesMissingDir(t *testing.T) {
	entries, err := TreeEntries(filepath.Join(t.TempDir(), "absent"), MediaPrefix)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
