package api

import (
	"errors"
	"net/http"

	"github.com/luisdotcom/db-hub/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	token, expires, err := s.sessions.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("failed login attempt", "username", req.Username, "request_id", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Invalid credentials", RequestID: RequestIDFromContext(r.Context())})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, s.sessions.SessionCookie(token, expires))
	s.logger.Info("user logged in", "username", req.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Login successful",
		"token":      token,
		"expires_at": expires,
	})
}

// handleSession never fails: an absent or stale session reports
// authenticated=false.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	user, err := s.sessions.Validate(token)
	if err != nil {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, Username: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		s.sessions.Logout(token)
	}
	http.SetCookie(w, s.sessions.ClearCookie())
	writeJSON(w, http.StatusOK, messageBody{Success: true, Message: "Logged out successfully"})
}

// owner is the authenticated principal that history entries belong to.
func owner(r *http.Request) string {
	name, _ := auth.PrincipalFromContext(r.Context())
	return name
}
