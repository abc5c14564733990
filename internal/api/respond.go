package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/history"
	"github.com/luisdotcom/db-hub/internal/metadata"
	"github.com/luisdotcom/db-hub/internal/mutation"
	"github.com/luisdotcom/db-hub/internal/profile"
	"github.com/luisdotcom/db-hub/internal/query"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 4 << 20

type errorBody struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

type messageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		malformed    *dbconn.MalformedConnectionStringError
		unknown      *dbconn.UnknownTargetError
		precondition *mutation.PreconditionError
		invalid      *metadata.InvalidRequestError
		execErr      *query.ExecutionError
		fetchErr     *metadata.FetchError
		validation   *profile.ValidationError
		badRequest   *requestError
	)
	switch {
	case errors.As(err, &badRequest),
		errors.As(err, &malformed),
		errors.As(err, &precondition),
		errors.As(err, &invalid),
		errors.As(err, &validation),
		errors.As(err, &execErr),
		errors.Is(err, query.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.As(err, &unknown),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, metadata.ErrSystemDatabase):
		return http.StatusForbidden
	case errors.Is(err, profile.ErrDuplicateName):
		return http.StatusConflict
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError renders err with its own message. Engine messages pass through
// unchanged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := RequestIDFromContext(r.Context())
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"request_id", id, "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, errorBody{Detail: err.Error(), RequestID: id})
}

// requestError reports a malformed client payload.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decode reads a JSON body into v. Numbers decode as json.Number.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
