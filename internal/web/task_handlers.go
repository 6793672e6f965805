package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/tarbeev/planner/internal/model"
	"github.com/tarbeev/planner/internal/service"
)

type taskRequest struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	ScheduledFor  *string  `json:"scheduledFor"`
	DueDate       *string  `json:"dueDate"`
	Priority      *string  `json:"priority"`
	Status        *string  `json:"status"`
	PositionIndex *int     `json:"positionIndex"`
	Tags          []string `json:"tags"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == nil || req.ScheduledFor == nil {
		writeError(w, http.StatusBadRequest, "title and scheduledFor are required")
		return
	}

	scheduledFor, err := model.ParseDate(*req.ScheduledFor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scheduledFor date")
		return
	}

	input := service.TaskInput{
		Title:        *req.Title,
		ScheduledFor: scheduledFor,
		Tags:         req.Tags,
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Priority != nil {
		input.Priority = *req.Priority
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := model.ParseDate(*req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dueDate")
			return
		}
		input.DueDate = &due
	}

	task, err := s.tasks.CreateTask(r.Context(), user, input)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	update := service.TaskUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		PositionIndex: req.PositionIndex,
	}
	if req.ScheduledFor != nil {
		scheduledFor, err := model.ParseDate(*req.ScheduledFor)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid scheduledFor date")
			return
		}
		update.ScheduledFor = &scheduledFor
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			update.ClearDueDate = true
		} else {
			due, err := model.ParseDate(*req.DueDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid dueDate")
				return
			}
			update.DueDate = &due
		}
	}

	task, err := s.tasks.UpdateTask(r.Context(), user, r.PathValue("id"), update)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	if err := s.tasks.DeleteTask(r.Context(), user, r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, "delete task failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	start, err1 := model.ParseDate(r.URL.Query().Get("start"))
	end, err2 := model.ParseDate(r.URL.Query().Get("end"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "start and end dates are required")
		return
	}

	days, err := s.tasks.DayView(r.Context(), user, start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	results, err := s.search.Query(r.Context(), user, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, results)
}
