package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tarbeev/planner/internal/model"
)

// HistoryRepository reads the append-only task audit trail. Writes happen
// alongside the task mutations that produce them, inside the same
// transaction (see TaskRepository).
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) ListByTask(ctx context.Context, taskID string) ([]model.TaskHistory, error) {
	var records []model.TaskHistory
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindRollover returns the rollover record that moved the task onto
// toDate, or nil when the task has not rolled to that day.
func (r *HistoryRepository) FindRollover(ctx context.Context, taskID string, toDate time.Time) (*model.TaskHistory, error) {
	var record model.TaskHistory
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND kind = ? AND to_date = ?", taskID, model.HistoryRollover, model.DateOnly(toDate)).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
