package web

import (
	"encoding/json"
	"net/http"

	"github.com/tarbeev/planner/internal/model"
)

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	note, err := s.notes.GetNote(r.Context(), user, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load note failed")
		return
	}
	if note == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"note": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"note": note})
}

func (s *Server) handlePutNote(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	var req struct {
		ContentText string `json:"contentText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	note, err := s.notes.SaveNote(r.Context(), user, date, req.ContentText)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "save note failed")
		return
	}
	writeJSON(w, http.StatusOK, note)
}
