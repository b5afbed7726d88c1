package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/robolab/robomgr/internal/store"
	"github.com/robolab/robomgr/pkg/interactive"
	"github.com/robolab/robomgr/pkg/ports"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service-layer errors to HTTP statuses: missing
// resources to 404, illegal state to 409, everything else to 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interactive.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, ports.ErrProbeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interactive.ErrSessionNotRunning),
		errors.Is(err, interactive.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, interactive.ErrEmptyArgv):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON parses the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// tailSnapshot caps the output payload of a poll response. The session
// keeps its full buffer; only the response carries a bounded tail.
func (s *Server) tailSnapshot(snap interactive.Snapshot) interactive.Snapshot {
	if len(snap.Output) > s.tailBytes {
		snap.Output = snap.Output[len(snap.Output)-s.tailBytes:]
	}
	return snap
}
