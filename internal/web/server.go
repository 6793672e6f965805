package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/tarbeev/planner/internal/model"
	"github.com/tarbeev/planner/internal/repository"
	"github.com/tarbeev/planner/internal/rollover"
	"github.com/tarbeev/planner/internal/service"
)

// Server exposes the planner REST API plus the two rollover trigger
// endpoints an external scheduler or operator hits.
type Server struct {
	users       *repository.UserRepository
	tasks       *service.TaskService
	notes       *service.NoteService
	search      *service.SearchService
	coordinator *rollover.Coordinator
	executor    *rollover.Executor
}

func New(
	users *repository.UserRepository,
	tasks *service.TaskService,
	notes *service.NoteService,
	search *service.SearchService,
	coordinator *rollover.Coordinator,
	executor *rollover.Executor,
) *Server {
	return &Server{
		users:       users,
		tasks:       tasks,
		notes:       notes,
		search:      search,
		coordinator: coordinator,
		executor:    executor,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("GET /api/days", s.handleDays)
	mux.HandleFunc("GET /api/day-notes/{date}", s.handleGetNote)
	mux.HandleFunc("PUT /api/day-notes/{date}", s.handlePutNote)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/internal/rollover", s.handleRollover)
	mux.HandleFunc("POST /api/internal/backfill", s.handleBackfill)
	return mux
}

// currentUser resolves the caller from the X-User-ID header. Credential
// auth lives outside this service; the header marks the trust boundary
// where the real deployment's session layer hands us a user id.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) *model.User {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return nil
	}
	user, err := s.users.FindByID(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return nil
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup user failed")
		return nil
	}
	return user
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
