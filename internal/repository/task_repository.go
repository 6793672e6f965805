package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tarbeev/planner/internal/model"
)

// TaskRepository handles CRUD for tasks and the transactional rollover
// write the engine depends on.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task at the end of its day column and records a
// "create" history entry, in one transaction.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = model.StatusOpen
	}
	task.ScheduledFor = model.DateOnly(task.ScheduledFor)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos sql.NullInt64
		if err := tx.Model(&model.Task{}).
			Where("user_id = ? AND scheduled_for = ?", task.UserID, task.ScheduledFor).
			Select("MAX(position_index)").
			Scan(&maxPos).Error; err != nil {
			return err
		}
		task.PositionIndex = 0
		if maxPos.Valid {
			task.PositionIndex = int(maxPos.Int64) + 1
		}

		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return tx.Create(&model.TaskHistory{
			ID:     uuid.NewString(),
			TaskID: task.ID,
			Kind:   model.HistoryCreate,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("user_id = ? AND id = ?", userID, taskID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) ListScheduledBetween(ctx context.Context, userID string, start, end time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("user_id = ? AND scheduled_for >= ? AND scheduled_for <= ?",
			userID, model.DateOnly(start), model.DateOnly(end)).
		Order("scheduled_for ASC, position_index ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update saves the task and appends a history entry of the given kind.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task, historyKind string) error {
	task.ScheduledFor = model.DateOnly(task.ScheduledFor)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		return tx.Create(&model.TaskHistory{
			ID:     uuid.NewString(),
			TaskID: task.ID,
			Kind:   historyKind,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// SetTags replaces the task's tag set. Tags must already exist; only
// the join rows change here.
func (r *TaskRepository) SetTags(ctx context.Context, task *model.Task, tags []model.Tag) error {
	if err := r.db.WithContext(ctx).Model(task).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("set task tags: %w", err)
	}
	task.Tags = tags
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// SearchText finds tasks whose title or description contains the term.
func (r *TaskRepository) SearchText(ctx context.Context, userID, term string, limit int) ([]model.Task, error) {
	var tasks []model.Task
	like := "%" + term + "%"
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("user_id = ? AND (title LIKE ? OR description LIKE ?)", userID, like, like).
		Order("scheduled_for DESC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// SearchByTag finds tasks carrying a tag whose name contains the term.
func (r *TaskRepository) SearchByTag(ctx context.Context, userID, term string, limit int) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Joins("JOIN task_tags ON task_tags.task_id = tasks.id").
		Joins("JOIN tags ON tags.id = task_tags.tag_id").
		Where("tasks.user_id = ? AND tags.name LIKE ?", userID, "%"+term+"%").
		Order("tasks.scheduled_for DESC").
		Limit(limit).
		Distinct().
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindOpenScheduledOn returns the rollover candidate set: open tasks
// sitting on the given day.
func (r *TaskRepository) FindOpenScheduledOn(ctx context.Context, userID string, date time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND scheduled_for = ?", userID, model.StatusOpen, model.DateOnly(date)).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// RollForward moves one task from one day to the next inside a single
// transaction: the rollover audit lookup, the task update, and the audit
// insert commit together or not at all. Returns false without touching
// the task when an audit record for (taskID, to) already exists, which
// makes a repeated invocation for the same day a no-op. A concurrent
// racer that slips past the lookup still fails on the unique
// (task_id, to_date) index and is reported the same way.
func (r *TaskRepository) RollForward(ctx context.Context, taskID string, from, to time.Time, newCount int, backfilled bool) (bool, error) {
	from = model.DateOnly(from)
	to = model.DateOnly(to)
	rolled := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.TaskHistory
		err := tx.Where("task_id = ? AND kind = ? AND to_date = ?", taskID, model.HistoryRollover, to).
			First(&existing).Error
		if err == nil {
			return nil // already rolled to this day
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Model(&model.Task{}).Where("id = ?", taskID).Updates(map[string]interface{}{
			"scheduled_for":  to,
			"rollover_count": newCount,
		}).Error; err != nil {
			return err
		}

		if err := tx.Create(&model.TaskHistory{
			ID:                 uuid.NewString(),
			TaskID:             taskID,
			Kind:               model.HistoryRollover,
			FromDate:           &from,
			ToDate:             &to,
			RolloverCountAfter: newCount,
			Backfilled:         backfilled,
		}).Error; err != nil {
			return err
		}

		rolled = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race to a concurrent rollover of the same task/day.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("roll task %s forward: %w", taskID, err)
	}
	return rolled, nil
}
