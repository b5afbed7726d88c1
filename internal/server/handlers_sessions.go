package server

import (
	"net/http"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.sessions.List()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tailSnapshot(snap))
}

func (s *Server) handleSendEnter(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.SendEnter(id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Enter sent", "session_id": id})
}

func (s *Server) handleSendInput(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.sessions.SendText(id, req.Text); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Input sent", "session_id": id})
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tailSnapshot(snap))
}

// handleDisposeSession cancels the session if it is still live, then
// removes it from the registry.
func (s *Server) handleDisposeSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := s.sessions.Cancel(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.sessions.Dispose(id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
