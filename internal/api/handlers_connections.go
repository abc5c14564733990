package api

import (
	"net/http"
	"strconv"

	"github.com/luisdotcom/db-hub/internal/profile"
)

func connectionID(r *http.Request) (int64, error) {
	raw := pathParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest("invalid connection id %q", raw)
	}
	return id, nil
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Profiles.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []profile.Profile{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id, err := connectionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.app.Profiles.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var in profile.Input
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.app.Profiles.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateConnection(w http.ResponseWriter, r *http.Request) {
	id, err := connectionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in profile.Input
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.app.Profiles.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	id, err := connectionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.app.Profiles.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Success: true, Message: "Connection deleted"})
}
