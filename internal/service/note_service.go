package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tarbeev/planner/internal/model"
	"github.com/tarbeev/planner/internal/repository"
)

// NoteService manages per-day free-text notes.
type NoteService struct {
	noteRepo *repository.DayNoteRepository
}

func NewNoteService(noteRepo *repository.DayNoteRepository) *NoteService {
	return &NoteService{noteRepo: noteRepo}
}

// SaveNote creates or replaces the note for the given day.
func (s *NoteService) SaveNote(ctx context.Context, user *model.User, date time.Time, contentText string) (*model.DayNote, error) {
	return s.noteRepo.Upsert(ctx, user.ID, date, contentText)
}

// GetNote returns the day's note, or nil when none exists.
func (s *NoteService) GetNote(ctx context.Context, user *model.User, date time.Time) (*model.DayNote, error) {
	note, err := s.noteRepo.GetByDate(ctx, user.ID, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}
