package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tarbeev/planner/internal/model"
)

// DayNoteRepository handles per-day free-text notes.
type DayNoteRepository struct {
	db *gorm.DB
}

func NewDayNoteRepository(db *gorm.DB) *DayNoteRepository {
	return &DayNoteRepository{db: db}
}

// Upsert stores the note for (userID, date), replacing existing content.
func (r *DayNoteRepository) Upsert(ctx context.Context, userID string, date time.Time, contentText string) (*model.DayNote, error) {
	date = model.DateOnly(date)
	db := r.db.WithContext(ctx)

	var note model.DayNote
	err := db.Where("user_id = ? AND date = ?", userID, date).First(&note).Error
	switch {
	case err == nil:
		note.ContentText = contentText
		if err := db.Save(&note).Error; err != nil {
			return nil, fmt.Errorf("update note: %w", err)
		}
		return &note, nil
	case err == gorm.ErrRecordNotFound:
		note = model.DayNote{ID: uuid.NewString(), UserID: userID, Date: date, ContentText: contentText}
		if err := db.Create(&note).Error; err != nil {
			return nil, fmt.Errorf("create note: %w", err)
		}
		return &note, nil
	default:
		return nil, fmt.Errorf("find note: %w", err)
	}
}

func (r *DayNoteRepository) GetByDate(ctx context.Context, userID string, date time.Time) (*model.DayNote, error) {
	var note model.DayNote
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, model.DateOnly(date)).First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *DayNoteRepository) ListBetween(ctx context.Context, userID string, start, end time.Time) ([]model.DayNote, error) {
	var notes []model.DayNote
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, model.DateOnly(start), model.DateOnly(end)).
		Order("date ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// SearchContent finds notes whose text contains the term (case-insensitive).
func (r *DayNoteRepository) SearchContent(ctx context.Context, userID, term string, limit int) ([]model.DayNote, error) {
	var notes []model.DayNote
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND content_text LIKE ?", userID, "%"+term+"%").
		Order("date DESC").
		Limit(limit).
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}
