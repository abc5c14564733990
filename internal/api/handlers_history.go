package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/luisdotcom/db-hub/internal/history"
)

const maxHistoryLimit = 1000

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			s.writeError(w, r, badRequest("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}
	entries, err := s.app.History.List(r.Context(), owner(r), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type historyRequest struct {
	QueryText       string  `json:"query_text"`
	DatabaseName    string  `json:"database_name"`
	Status          string  `json:"status"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	RowsAffected    int64   `json:"rows_affected"`
}

func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.QueryText) == "" {
		s.writeError(w, r, badRequest("query_text is required"))
		return
	}
	e, err := s.app.History.Add(r.Context(), history.Entry{
		Owner:           owner(r),
		QueryText:       req.QueryText,
		DatabaseLabel:   req.DatabaseName,
		Status:          history.Status(req.Status),
		ExecutionTimeMs: req.ExecutionTimeMs,
		RowsAffected:    req.RowsAffected,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(pathParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, r, badRequest("invalid history id %q", pathParam(r, "id")))
		return
	}
	if err := s.app.History.DeleteOne(r.Context(), owner(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Success: true, Message: "History entry deleted successfully"})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.History.Clear(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "History cleared successfully",
		"deleted": n,
	})
}
