package server

import (
	"net/http"
)

func (s *Server) handleListPorts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ports": s.ports.Identified()})
}

func (s *Server) handleStartProbe(w http.ResponseWriter, r *http.Request) {
	id, snapshot, err := s.ports.StartProbe()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"probe_id": id,
		"ports":    snapshot,
		"message":  "Disconnect the arm you want to identify, then call detect.",
	})
}

func (s *Server) handleDetectPort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ArmName string `json:"arm_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ArmName == "" {
		writeError(w, http.StatusBadRequest, "arm_name is required")
		return
	}

	res, err := s.ports.Detect(r.PathValue("id"), req.ArmName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRefreshProbe(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.ports.Refresh(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ports": snapshot})
}

func (s *Server) handleSetPort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Port string `json:"port"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Port == "" {
		writeError(w, http.StatusBadRequest, "port is required")
		return
	}

	arm := r.PathValue("arm")
	if err := s.ports.SetPort(arm, req.Port); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"arm_name": arm, "port": req.Port})
}

func (s *Server) handleDeletePort(w http.ResponseWriter, r *http.Request) {
	existed, err := s.ports.RemovePort(r.PathValue("arm"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "port mapping not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearPorts(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Clear(); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
