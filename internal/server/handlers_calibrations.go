package server

import (
	"net/http"

	"github.com/robolab/robomgr/pkg/calibration"
)

func (s *Server) handleListCalibrations(w http.ResponseWriter, r *http.Request) {
	// Prefer the watcher's cached snapshot when it is running.
	if s.calWatcher != nil {
		writeJSON(w, http.StatusOK, map[string]any{"calibrations": s.calWatcher.Snapshot()})
		return
	}

	entries, err := s.calibrations.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calibrations": entries})
}

func (s *Server) handlePruneCalibrations(w http.ResponseWriter, r *http.Request) {
	removed, err := s.calibrations.PruneCorrupt()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (s *Server) handleResetCalibration(w http.ResponseWriter, r *http.Request) {
	kind := calibration.Kind(r.URL.Query().Get("kind"))
	switch kind {
	case "":
		kind = calibration.KindAll
	case calibration.KindRobot, calibration.KindTeleop, calibration.KindAll:
	default:
		writeError(w, http.StatusBadRequest, "kind must be robot, teleop, or all")
		return
	}

	removed, err := s.calibrations.Reset(r.PathValue("id"), kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}
