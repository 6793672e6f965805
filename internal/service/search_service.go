package service

import (
	"context"
	"strings"

	"github.com/tarbeev/planner/internal/model"
	"github.com/tarbeev/planner/internal/repository"
)

const searchLimit = 20

// SearchResults holds matches across tasks and day notes.
type SearchResults struct {
	Tasks []model.Task    `json:"tasks"`
	Notes []model.DayNote `json:"notes"`
}

// SearchService runs substring search over tasks and notes. Queries
// shorter than two characters return nothing; a leading # switches to
// tag search, which matches tasks only.
type SearchService struct {
	taskRepo *repository.TaskRepository
	noteRepo *repository.DayNoteRepository
}

func NewSearchService(taskRepo *repository.TaskRepository, noteRepo *repository.DayNoteRepository) *SearchService {
	return &SearchService{taskRepo: taskRepo, noteRepo: noteRepo}
}

func (s *SearchService) Query(ctx context.Context, user *model.User, query string) (SearchResults, error) {
	results := SearchResults{Tasks: []model.Task{}, Notes: []model.DayNote{}}

	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return results, nil
	}

	if term, ok := strings.CutPrefix(query, "#"); ok {
		tasks, err := s.taskRepo.SearchByTag(ctx, user.ID, term, searchLimit)
		if err != nil {
			return results, err
		}
		if tasks != nil {
			results.Tasks = tasks
		}
		return results, nil
	}

	tasks, err := s.taskRepo.SearchText(ctx, user.ID, query, searchLimit)
	if err != nil {
		return results, err
	}
	if tasks != nil {
		results.Tasks = tasks
	}

	notes, err := s.noteRepo.SearchContent(ctx, user.ID, query, searchLimit)
	if err != nil {
		return results, err
	}
	if notes != nil {
		results.Notes = notes
	}
	return results, nil
}
