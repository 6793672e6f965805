package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tarbeev/planner/internal/model"
)

// TagRepository manages task tags.
type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// GetOrCreate finds a tag by its normalized name, creating it if missing.
// Names are stored trimmed and lowercased.
func (r *TagRepository) GetOrCreate(ctx context.Context, userID, name string) (*model.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}

	var tag model.Tag
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error
	switch {
	case err == nil:
		return &tag, nil
	case err == gorm.ErrRecordNotFound:
		tag = model.Tag{ID: uuid.NewString(), UserID: userID, Name: name}
		if err := db.Create(&tag).Error; err != nil {
			return nil, fmt.Errorf("create tag: %w", err)
		}
		return &tag, nil
	default:
		return nil, fmt.Errorf("find tag: %w", err)
	}
}

func (r *TagRepository) ListByUser(ctx context.Context, userID string) ([]model.Tag, error) {
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
