package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"vydaje/internal/core"
	"vydaje/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", log.FieldError, err)
	}
}

// badRequest reports malformed input the decoder or parser rejected.
func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognized
// is treated as an internal failure and its detail kept out of the body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var missing core.MissingFieldError
	if errors.As(err, &missing) {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: missing.Error(), Field: missing.Field})
		return
	}

	var denied core.PermissionError
	if errors.As(err, &denied) {
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: denied.Error()})
		return
	}

	switch {
	case errors.Is(err, core.ErrUnknownGroup),
		errors.Is(err, core.ErrUnknownTransaction),
		errors.Is(err, core.ErrUnknownCategory):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrDuplicateMember),
		errors.Is(err, core.ErrDuplicateCategory),
		errors.Is(err, core.ErrLastGroup),
		errors.Is(err, core.ErrLastCategory):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidSplitMode),
		errors.Is(err, core.ErrNotMember),
		errors.Is(err, core.ErrGroupTooSmall):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err,
		)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
