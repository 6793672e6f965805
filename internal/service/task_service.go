package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tarbeev/planner/internal/model"
	"github.com/tarbeev/planner/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title        string
	Description  string
	ScheduledFor time.Time
	DueDate      *time.Time
	Priority     string
	Tags         []string
}

// TaskUpdate carries a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	PositionIndex *int
	ScheduledFor  *time.Time
	DueDate       *time.Time
	ClearDueDate  bool
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
	tagRepo  *repository.TagRepository
	noteRepo *repository.DayNoteRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, tagRepo *repository.TagRepository, noteRepo *repository.DayNoteRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, tagRepo: tagRepo, noteRepo: noteRepo}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.ScheduledFor.IsZero() {
		return nil, fmt.Errorf("scheduledFor is required")
	}

	task := model.Task{
		UserID:       user.ID,
		Title:        input.Title,
		Description:  input.Description,
		Status:       model.StatusOpen,
		ScheduledFor: model.DateOnly(input.ScheduledFor),
		DueDate:      input.DueDate,
		Priority:     input.Priority,
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	if len(input.Tags) > 0 {
		var tags []model.Tag
		for _, name := range input.Tags {
			tag, err := s.tagRepo.GetOrCreate(ctx, user.ID, name)
			if err != nil {
				return nil, err
			}
			if tag != nil {
				tags = append(tags, *tag)
			}
		}
		if err := s.taskRepo.SetTags(ctx, &task, tags); err != nil {
			return nil, err
		}
	}

	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID string) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// UpdateTask applies a partial update and records the matching history
// kind: complete/reopen when the status changed, edit otherwise.
func (s *TaskService) UpdateTask(ctx context.Context, user *model.User, taskID string, update TaskUpdate) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	kind := model.HistoryEdit
	if update.Status != nil && *update.Status != task.Status {
		switch *update.Status {
		case model.StatusDone:
			kind = model.HistoryComplete
		case model.StatusOpen:
			kind = model.HistoryReopen
		default:
			return nil, fmt.Errorf("invalid status %q", *update.Status)
		}
		task.Status = *update.Status
	}
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.PositionIndex != nil {
		task.PositionIndex = *update.PositionIndex
	}
	if update.ScheduledFor != nil {
		task.ScheduledFor = model.DateOnly(*update.ScheduledFor)
	}
	if update.ClearDueDate {
		task.DueDate = nil
	} else if update.DueDate != nil {
		task.DueDate = update.DueDate
	}

	if err := s.taskRepo.Update(ctx, task, kind); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID string) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}

// Day is one calendar day of the planner view: its tasks in column
// order plus the day's note, if any.
type Day struct {
	Date  string         `json:"date"`
	Tasks []model.Task   `json:"tasks"`
	Note  *model.DayNote `json:"note"`
}

// DayView returns every day in [start, end] in order, days without
// tasks or notes included, so the UI can render a full week at once.
func (s *TaskService) DayView(ctx context.Context, user *model.User, start, end time.Time) ([]Day, error) {
	start = model.DateOnly(start)
	end = model.DateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("end date before start date")
	}

	tasks, err := s.taskRepo.ListScheduledBetween(ctx, user.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	notes, err := s.noteRepo.ListBetween(ctx, user.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	tasksByDay := make(map[string][]model.Task)
	for _, task := range tasks {
		key := model.FormatDate(task.ScheduledFor)
		tasksByDay[key] = append(tasksByDay[key], task)
	}
	notesByDay := make(map[string]*model.DayNote)
	for i := range notes {
		notesByDay[model.FormatDate(notes[i].Date)] = &notes[i]
	}

	var days []Day
	for d := start; !d.After(end); d = model.AddDays(d, 1) {
		key := model.FormatDate(d)
		day := Day{Date: key, Tasks: tasksByDay[key], Note: notesByDay[key]}
		if day.Tasks == nil {
			day.Tasks = []model.Task{}
		}
		days = append(days, day)
	}
	return days, nil
}
