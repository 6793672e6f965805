package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/tarbeev/planner/internal/rollover"
)

// handleRollover runs fleet rollover now. Normally the in-process cron
// fires this; the endpoint lets an operator or external scheduler force
// a run, which is safe because every roll is idempotent.
func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	report, err := s.coordinator.RunAll(r.Context())
	if err != nil {
		log.Printf("web: fleet rollover: %v", err)
		writeError(w, http.StatusInternalServerError, "rollover failed")
		return
	}

	log.Printf("rollover: %d tasks rolled for %d users", report.TasksRolled, len(report.Results))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"usersProcessed":   len(report.Results),
		"totalTasksRolled": report.TasksRolled,
		"results":          report.Results,
	})
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Days   int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.Days <= 0 {
		writeError(w, http.StatusBadRequest, "userId and a positive days count are required")
		return
	}

	user, err := s.users.FindByID(r.Context(), req.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "unknown user")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup user failed")
		return
	}

	results, err := s.executor.Backfill(r.Context(), user.ID, user.Timezone, req.Days)
	if err != nil {
		if errors.Is(err, rollover.ErrUnknownTimezone) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("web: backfill user %s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "backfill failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}
