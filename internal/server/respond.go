package server

import (
	"encoding/json"
	"net/http"

	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("response encode failed", logx.Err(err))
	}
}

// writeMessage emits the API's error body shape: {"message": "..."}.
func (s *Server) writeMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"message": msg})
}

// decodeJSON reads a request body strictly; unknown fields are an error so
// typos surface instead of silently dropping fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
