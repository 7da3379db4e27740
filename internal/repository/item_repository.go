package repository

import (
	"github.com/keepr/keepr/internal/models"
	"gorm.io/gorm"
)

// ItemRepository handles database operations for items and tags
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// CountByUser counts items owned by a user
func (r *ItemRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Item{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountAll counts items across all users
func (r *ItemRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Item{}).Count(&count).Error
	return count, err
}

// CountTags counts tags across all users
func (r *ItemRepository) CountTags() (int64, error) {
	var count int64
	err := r.db.Model(&models.Tag{}).Count(&count).Error
	return count, err
}

// ListByUser returns a user's items newest-first with tags preloaded
func (r *ItemRepository) ListByUser(userID string) ([]models.Item, error) {
	var items []models.Item
	err := r.db.Where("user_id = ?", userID).
		Preload("ItemTags.Tag").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ListTagsByUser returns a user's tags ordered by name
func (r *ItemRepository) ListTagsByUser(userID string) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.Where("user_id = ?", userID).Order("name").Find(&tags).Error
	return tags, err
}
