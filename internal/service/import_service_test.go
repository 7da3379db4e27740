package service

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepr/keepr/internal/archive"
	"github.com/keepr/keepr/internal/models"
)

func TestExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)

	env.createItem(t, alice, "meeting notes", "work")
	env.createItem(t, alice, "shopping list", "home")

	// a file-backed item with a real media file
	photo := &models.Item{
		UserID:       alice.ID,
		Type:         models.ItemTypeImage,
		Title:        "vacation photo",
		FilePath:     filepath.Join(alice.ID, "photo.jpg"),
		FileName:     "photo.jpg",
		FileSize:     4,
		FileMimetype: "image/jpeg",
	}
	require.NoError(t, env.db.Create(photo).Error)
	mediaFile := filepath.Join(env.cfg.MediaRoot, photo.FilePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(mediaFile), 0755))
	require.NoError(t, os.WriteFile(mediaFile, []byte("jpeg"), 0644))

	exportSvc := NewExportService(env.cfg, env.itemRepo)
	path, name, err := exportSvc.Export(alice)
	require.NoError(t, err)
	defer os.Remove(path)
	assert.Contains(t, name, "keepr_export_")

	kind, err := archive.DetectKind(path)
	require.NoError(t, err)
	assert.Equal(t, archive.KindPersonal, kind)

	// bob already owns a "work" tag; import must reuse it, not duplicate it
	existingTag := &models.Tag{UserID: bob.ID, Name: "work", Color: "#112233"}
	require.NoError(t, env.db.Create(existingTag).Error)

	importSvc := NewImportService(env.cfg, env.db)
	summary, err := importSvc.ImportPersonal(bob, path)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.ItemsImported)
	assert.Equal(t, 1, summary.TagsImported) // only "home" is new
	assert.Equal(t, 1, summary.FilesImported)
	assert.Empty(t, summary.Errors)

	var bobTags []models.Tag
	require.NoError(t, env.db.Where("user_id = ?", bob.ID).Find(&bobTags).Error)
	assert.Len(t, bobTags, 2)

	var imported models.Item
	require.NoError(t, env.db.
		Where("user_id = ? AND title = ?", bob.ID, "vacation photo").
		First(&imported).Error)
	assert.NotEqual(t, photo.ID, imported.ID, "item IDs must be remapped")
	assert.FileExists(t, filepath.Join(env.cfg.MediaRoot, imported.FilePath))

	// the link rows point at bob's reused tag
	var link models.ItemTag
	var notes models.Item
	require.NoError(t, env.db.
		Where("user_id = ? AND title = ?", bob.ID, "meeting notes").
		First(&notes).Error)
	require.NoError(t, env.db.Where("item_id = ?", notes.ID).First(&link).Error)
	assert.Equal(t, existingTag.ID, link.TagID)
}

func TestImportPreservesTimestamps(t *testing.T) {
	env := newTestEnv(t)
	bob := env.createUser(t, "bob", false)

	created := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	path := writePersonalArchive(t, []ExportedItem{{
		ID:        "src-1",
		Type:      models.ItemTypeText,
		Title:     "old note",
		Content:   "aged",
		CreatedAt: created,
		UpdatedAt: created,
		Tags:      []ExportedTag{},
	}}, nil)

	importSvc := NewImportService(env.cfg, env.db)
	summary, err := importSvc.ImportPersonal(bob, path)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ItemsImported)

	var item models.Item
	require.NoError(t, env.db.Where("user_id = ?", bob.ID).First(&item).Error)
	assert.Equal(t, created.Unix(), item.CreatedAt.Unix())
}

func TestImportIsolatesBadItems(t *testing.T) {
	env := newTestEnv(t)
	bob := env.createUser(t, "bob", false)

	items := []ExportedItem{
		{ID: "1", Type: models.ItemTypeText, Title: "good one", Tags: []ExportedTag{}},
		{ID: "2", Type: "hologram", Title: "bad type", Tags: []ExportedTag{}},
		{ID: "3", Type: models.ItemTypeText, Title: "good two", Tags: []ExportedTag{}},
		{ID: "4", Type: models.ItemTypeText, Title: "good three", Tags: []ExportedTag{}},
	}
	path := writePersonalArchive(t, items, nil)

	importSvc := NewImportService(env.cfg, env.db)
	summary, err := importSvc.ImportPersonal(bob, path)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.ItemsImported)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "bad type")

	var count int64
	require.NoError(t, env.db.Model(&models.Item{}).
		Where("user_id = ?", bob.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestImportMatchesMediaBySuffix(t *testing.T) {
	env := newTestEnv(t)
	bob := env.createUser(t, "bob", false)

	// media stored under a foreign layout; only the filename lines up
	path := writePersonalArchive(t, []ExportedItem{{
		ID:       "1",
		Type:     models.ItemTypeFile,
		Title:    "attachment",
		FileName: "report.pdf",
		Tags:     []ExportedTag{},
	}}, map[string]string{
		"media/some-other-user/2022/report.pdf": "pdf-bytes",
	})

	importSvc := NewImportService(env.cfg, env.db)
	summary, err := importSvc.ImportPersonal(bob, path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ItemsImported)
	assert.Equal(t, 1, summary.FilesImported)

	var item models.Item
	require.NoError(t, env.db.Where("user_id = ?", bob.ID).First(&item).Error)
	require.NotEmpty(t, item.FilePath)
	data, err := os.ReadFile(filepath.Join(env.cfg.MediaRoot, item.FilePath))
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))
}

func TestImportMissingMediaStillImportsItem(t *testing.T) {
	env := newTestEnv(t)
	bob := env.createUser(t, "bob", false)

	path := writePersonalArchive(t, []ExportedItem{{
		ID:       "1",
		Type:     models.ItemTypeFile,
		Title:    "lost attachment",
		FileName: "gone.pdf",
		Tags:     []ExportedTag{},
	}}, nil)

	importSvc := NewImportService(env.cfg, env.db)
	summary, err := importSvc.ImportPersonal(bob, path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ItemsImported)
	assert.Equal(t, 0, summary.FilesImported)
}

func TestImportRejectsOversizedContent(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.MaxTextSize = 8
	bob := env.createUser(t, "bob", false)

	items := []ExportedItem{
		{ID: "1", Type: models.ItemTypeText, Title: "short", Content: "ok", Tags: []ExportedTag{}},
		{ID: "2", Type: models.ItemTypeText, Title: "huge", Content: "far too much text", Tags: []ExportedTag{}},
	}
	path := writePersonalArchive(t, items, nil)

	importSvc := NewImportService(env.cfg, env.db)
	summary, err := importSvc.ImportPersonal(bob, path)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ItemsImported)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "huge")
	assert.Contains(t, summary.Errors[0], "limit")
}

func TestImportRejectsOversizedMedia(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.MaxFileSize = 3
	bob := env.createUser(t, "bob", false)

	path := writePersonalArchive(t, []ExportedItem{{
		ID:       "1",
		Type:     models.ItemTypeFile,
		Title:    "attachment",
		FileName: "report.pdf",
		Tags:     []ExportedTag{},
	}}, map[string]string{
		"media/bob/report.pdf": "nine byte",
	})

	importSvc := NewImportService(env.cfg, env.db)
	summary, err := importSvc.ImportPersonal(bob, path)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.ItemsImported)
	assert.Equal(t, 0, summary.FilesImported)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "limit")

	// nothing was written under the media root for the rejected file
	matches, err := filepath.Glob(filepath.Join(env.cfg.MediaRoot, bob.ID, "*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestImportRejectsFullBackup(t *testing.T) {
	env := newTestEnv(t)
	bob := env.createUser(t, "bob", false)

	path := writeRawArchive(t, map[string]string{
		archive.EntrySQLite: "binary",
	})

	importSvc := NewImportService(env.cfg, env.db)
	_, err := importSvc.ImportPersonal(bob, path)
	assert.ErrorIs(t, err, ErrModeMismatch)
}

func TestImportRejectsArchiveWithoutItems(t *testing.T) {
	env := newTestEnv(t)
	bob := env.createUser(t, "bob", false)

	path := writeRawArchive(t, map[string]string{"readme.txt": "hello"})

	importSvc := NewImportService(env.cfg, env.db)
	_, err := importSvc.ImportPersonal(bob, path)
	assert.ErrorIs(t, err, ErrMissingItems)
}

func TestImportRejectsGarbageFile(t *testing.T) {
	env := newTestEnv(t)
	bob := env.createUser(t, "bob", false)

	path := filepath.Join(t.TempDir(), "garbage.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	importSvc := NewImportService(env.cfg, env.db)
	_, err := importSvc.ImportPersonal(bob, path)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

// writePersonalArchive builds an export-shaped archive from raw manifests
func writePersonalArchive(t *testing.T, items []ExportedItem, media map[string]string) string {
	t.Helper()
	entries := map[string]string{}
	data, err := json.Marshal(items)
	require.NoError(t, err)
	entries[archive.EntryItems] = string(data)
	entries[archive.EntryTags] = "[]"
	for name, content := range media {
		entries[name] = content
	}
	return writeRawArchive(t, entries)
}

func writeRawArchive(t *testing.T, files map[string]string) string {
	t.Helper()
	entries := make([]archive.Entry, 0, len(files))
	for name, content := range files {
		content := content
		entries = append(entries, archive.Entry{
			Name: name,
			WriteTo: func(w io.Writer) error {
				_, err := io.WriteString(w, content)
				return err
			},
		})
	}
	path := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, archive.Build(path, entries))
	return path
}
