package arenaserver

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// errorResponse is the error body for every non-2xx response.
type errorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON marshals v before touching the response so an encoding
// failure can still produce a clean 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding response failed", zap.Error(err))
		http.Error(w, `{"detail":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a status code with a detail body.
func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

// nullableID renders an empty id as JSON null rather than "".
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// formatDeadline renders a turn deadline as RFC3339, or null outside
// active combat.
func formatDeadline(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
