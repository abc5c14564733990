package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/query"
)

// targetBody is the connection part of JSON requests. database_type is the
// older name of target.
type targetBody struct {
	Target           string `json:"target"`
	DatabaseType     string `json:"database_type"`
	ConnectionString string `json:"connection_string"`
	Database         string `json:"database"`
}

func (b targetBody) target() dbconn.Target {
	name := b.Target
	if name == "" {
		name = b.DatabaseType
	}
	return dbconn.Target{Name: name, ConnectionString: b.ConnectionString}
}

func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// targetParam reads {target} plus the optional connection_string query
// parameter used by custom targets.
func targetParam(r *http.Request) dbconn.Target {
	return dbconn.Target{
		Name:             pathParam(r, "target"),
		ConnectionString: r.URL.Query().Get("connection_string"),
	}
}

func databaseParam(r *http.Request) string {
	return r.URL.Query().Get("database")
}

type executeRequest struct {
	targetBody
	Query string `json:"query"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.app.Query.Execute(r.Context(), query.Request{
		Owner:    owner(r),
		Target:   req.target(),
		Database: req.Database,
		SQL:      req.Query,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t := dbconn.Target{Name: q.Get("target"), ConnectionString: q.Get("connection_string")}
	d, err := s.app.Resolver.Classify(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"target":  t.String(),
		"dialect": string(d),
		"label":   d.Label(),
	})
}

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := s.app.Metadata.ListDatabases(r.Context(), targetParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dbs)
}

// databaseName reads the database to create or drop from the path, the
// database_name query parameter or a {"name"} body, in that order.
func databaseName(r *http.Request) (string, error) {
	if name := pathParam(r, "name"); name != "" {
		return name, nil
	}
	if name := r.URL.Query().Get("database_name"); name != "" {
		return name, nil
	}
	if r.ContentLength == 0 {
		return "", badRequest("database name is required")
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		return "", err
	}
	if strings.TrimSpace(body.Name) == "" {
		return "", badRequest("database name is required")
	}
	return body.Name, nil
}

func (s *Server) handleCreateDatabase(w http.ResponseWriter, r *http.Request) {
	name, err := databaseName(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.app.Metadata.CreateDatabase(r.Context(), targetParam(r), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageBody{Success: true, Message: fmt.Sprintf("Database '%s' created successfully", name)})
}

func (s *Server) handleDropDatabase(w http.ResponseWriter, r *http.Request) {
	name, err := databaseName(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.app.Metadata.DropDatabase(r.Context(), targetParam(r), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Success: true, Message: fmt.Sprintf("Database '%s' deleted successfully", name)})
}

// listHandler adapts a per-database catalog listing to a handler.
func listHandler[T any](s *Server, list func(ctx context.Context, t dbconn.Target, database string) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := list(r.Context(), targetParam(r), databaseParam(r))
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

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	listHandler(s, s.app.Metadata.ListTables)(w, r)
}

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	listHandler(s, s.app.Metadata.ListViews)(w, r)
}

func (s *Server) handleListProcedures(w http.ResponseWriter, r *http.Request) {
	listHandler(s, s.app.Metadata.ListProcedures)(w, r)
}

func (s *Server) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	listHandler(s, s.app.Metadata.ListFunctions)(w, r)
}

func (s *Server) handleListTriggers(w http.ResponseWriter, r *http.Request) {
	listHandler(s, s.app.Metadata.ListTriggers)(w, r)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cat, err := s.app.Metadata.Refresh(r.Context(), targetParam(r), databaseParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	status, err := s.app.Metadata.TestConnection(r.Context(), targetParam(r), databaseParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
