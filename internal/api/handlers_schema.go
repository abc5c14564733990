package api

import (
	"context"
	"net/http"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/dialect"
	"github.com/luisdotcom/db-hub/internal/metadata"
)

func tableHandler[T any](s *Server, get func(ctx context.Context, t dbconn.Target, database, table string) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := get(r.Context(), targetParam(r), databaseParam(r), pathParam(r, "table"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if out == nil {
			out = []T{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleTableSchema(w http.ResponseWriter, r *http.Request) {
	table := pathParam(r, "table")
	cols, err := s.app.Metadata.GetTableSchema(r.Context(), targetParam(r), databaseParam(r), table)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": table, "columns": cols})
}

func (s *Server) handleTableDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.app.Metadata.TableDetail(r.Context(), targetParam(r), databaseParam(r), pathParam(r, "table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePrimaryKeys(w http.ResponseWriter, r *http.Request) {
	tableHandler(s, s.app.Metadata.ListPrimaryKeys)(w, r)
}

func (s *Server) handleIndexes(w http.ResponseWriter, r *http.Request) {
	tableHandler(s, s.app.Metadata.ListIndexes)(w, r)
}

func (s *Server) handleForeignKeys(w http.ResponseWriter, r *http.Request) {
	tableHandler(s, s.app.Metadata.ListForeignKeys)(w, r)
}

func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	obj, err := dialect.ParseObjectType(pathParam(r, "type"))
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}
	name := pathParam(r, "name")
	def, err := s.app.Metadata.Definition(r.Context(), targetParam(r), databaseParam(r), obj, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"type": string(obj), "name": name, "definition": def})
}

type quickActionRequest struct {
	targetBody
	// Dialect skips target classification when set.
	Dialect string             `json:"dialect"`
	Object  metadata.ObjectRef `json:"object"`
	Action  metadata.Action    `json:"action"`
	Limit   int                `json:"limit"`
}

// handleQuickAction renders SQL for the editor without running it.
func (s *Server) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	var req quickActionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var (
		d   dialect.Dialect
		err error
	)
	if req.Dialect != "" {
		d, err = dialect.Parse(req.Dialect)
		if err != nil {
			err = badRequest("%v", err)
		}
	} else {
		d, err = s.app.Resolver.Classify(r.Context(), req.target())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sqlText, err := metadata.QuickAction(d, req.Object, req.Action, req.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sql": sqlText, "dialect": string(d)})
}
