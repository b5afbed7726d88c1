package server

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
)

func (s *Server) handleRunCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Argv []string `json:"argv"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := s.commands.Run(req.Argv)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"commands": s.commands.List()})
}

func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	rec, err := s.commands.Get(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCancelCommand(w http.ResponseWriter, r *http.Request) {
	rec, err := s.commands.Cancel(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleClearCommands(w http.ResponseWriter, r *http.Request) {
	s.commands.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleFindSerialPorts lists the serial ports currently connected.
// The genuine find-port tool is interactive (it asks the operator to
// replug the arm); plain listing is enough for the dashboard's port
// picker, and the probe flow under /api/ports covers identification.
func (s *Server) handleFindSerialPorts(w http.ResponseWriter, r *http.Request) {
	found, err := s.ports.Scan()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ports": found})
}

// handleListVideoDevices reports /dev/video* capture devices.
func (s *Server) handleListVideoDevices(w http.ResponseWriter, r *http.Request) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	type device struct {
		Index int    `json:"index"`
		Path  string `json:"path"`
	}
	devices := make([]device, 0, len(paths))
	for _, p := range paths {
		idx, err := strconv.Atoi(strings.TrimPrefix(p, "/dev/video"))
		if err != nil {
			continue
		}
		devices = append(devices, device{Index: idx, Path: p})
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

// handleChmodPort relaxes permissions on a serial device so the
// robot tools can open it without the operator shelling in.
func (s *Server) handleChmodPort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Port        string `json:"port"`
		Permissions string `json:"permissions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Port == "" {
		writeError(w, http.StatusBadRequest, "port is required")
		return
	}
	if req.Permissions == "" {
		req.Permissions = "666"
	}

	rec, err := s.commands.Run([]string{"chmod", req.Permissions, req.Port})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
