package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemType classifies what an item stores
type ItemType string

const (
	ItemTypeText  ItemType = "text"
	ItemTypeLogin ItemType = "login"
	ItemTypeImage ItemType = "image"
	ItemTypeVideo ItemType = "video"
	ItemTypeFile  ItemType = "file"
)

// ValidItemType reports whether t is a known item type
func ValidItemType(t ItemType) bool {
	switch t {
	case ItemTypeText, ItemTypeLogin, ItemTypeImage, ItemTypeVideo, ItemTypeFile:
		return true
	}
	return false
}

// Item is a single vault entry. Text and login items carry Content; file
// backed items carry File* metadata and a path relative to the media root.
type Item struct {
	ID     string   `gorm:"primaryKey;size:36" json:"id"`
	UserID string   `gorm:"index;size:36;not null" json:"user_id"`
	Type   ItemType `gorm:"size:10;not null;index" json:"type"`

	Title   string `gorm:"size:500" json:"title"`
	Content string `gorm:"type:text" json:"content,omitempty"`

	FilePath     string `gorm:"size:1000" json:"-"` // relative to media root
	FileName     string `gorm:"size:500" json:"file_name,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	FileMimetype string `gorm:"size:200" json:"file_mimetype,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ItemTags []ItemTag `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Item) TableName() string {
	return "items"
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// Tag labels items; names are unique per user
type Tag struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"index:idx_tags_user_name,unique;size:36;not null" json:"user_id"`
	Name   string `gorm:"index:idx_tags_user_name,unique;size:100;not null" json:"name"`
	Color  string `gorm:"size:7" json:"color"` // hex color, e.g. "#ff5733"
}

func (Tag) TableName() string {
	return "tags"
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// ItemTag is the many-to-many association between items and tags
type ItemTag struct {
	ItemID string `gorm:"primaryKey;size:36" json:"item_id"`
	TagID  string `gorm:"primaryKey;size:36" json:"tag_id"`

	Tag Tag `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"tag"`
}

func (ItemTag) TableName() string {
	return "item_tags"
}
