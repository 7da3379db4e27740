package service

import (
	"time"

	"github.com/keepr/keepr/internal/models"
)

// ExportedTag is the wire form of a tag in tags.json and item tag lists
type ExportedTag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ExportedItem is the wire form of an item in items.json. Identifiers are
// not portable across stores; import treats them as foreign keys to remap.
type ExportedItem struct {
	ID           string          `json:"id"`
	Type         models.ItemType `json:"type"`
	Title        string          `json:"title"`
	Content      string          `json:"content,omitempty"`
	FileName     string          `json:"file_name,omitempty"`
	FileSize     int64           `json:"file_size,omitempty"`
	FileMimetype string          `json:"file_mimetype,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Tags         []ExportedTag   `json:"tags"`
}

// ExportMetadata records export provenance in metadata.json
type ExportMetadata struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	ExportedAt time.Time `json:"exported_at"`
	ItemCount  int       `json:"item_count"`
	TagCount   int       `json:"tag_count"`
}

func exportedTag(t models.Tag) ExportedTag {
	return ExportedTag{ID: t.ID, Name: t.Name, Color: t.Color}
}

func exportedItem(item models.Item) ExportedItem {
	rec := ExportedItem{
		ID:           item.ID,
		Type:         item.Type,
		Title:        item.Title,
		Content:      item.Content,
		FileName:     item.FileName,
		FileSize:     item.FileSize,
		FileMimetype: item.FileMimetype,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
		Tags:         []ExportedTag{},
	}
	for _, it := range item.ItemTags {
		rec.Tags = append(rec.Tags, exportedTag(it.Tag))
	}
	return rec
}
