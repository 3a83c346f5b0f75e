package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/koustreak/JoinPilot/internal/errs"
)

// errorPayload is the single error shape every endpoint returns.
type errorPayload struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("failed to encode response: %v", err)
	}
}

// writeError maps the errs taxonomy onto HTTP status codes and renders a
// single descriptive message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var p errorPayload
	p.Error.Kind = errs.KindOf(err).String()
	p.Error.Message = err.Error()
	s.writeJSON(w, statusFor(err), p)
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindInvalidInput, errs.ErrKindAmbiguous:
		return http.StatusBadRequest
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// queryInt reads an integer query parameter, falling back to def on
// absence or garbage.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
