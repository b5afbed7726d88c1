package server

import (
	"net/http"

	"github.com/robolab/robomgr/pkg/workflow"
)

// startWorkflow validates a descriptor and launches it as an
// interactive session.
func (s *Server) startWorkflow(w http.ResponseWriter, desc workflow.Descriptor) {
	if err := desc.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	snap, err := s.sessions.Start(desc.Argv())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.logger.Info().
		Str("workflow", desc.Kind()).
		Str("session_id", snap.ID).
		Msg("Workflow session started")
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	var req workflow.Calibrate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	// Empty calibration files left by an interrupted run crash the CLI's
	// JSON parser, so clear them out before starting a fresh run.
	if s.calibrations != nil {
		if _, err := s.calibrations.PruneCorrupt(); err != nil {
			s.logger.Warn().Err(err).Msg("Calibration prune failed")
		}
	}

	s.startWorkflow(w, req)
}

func (s *Server) handleTeleoperate(w http.ResponseWriter, r *http.Request) {
	var req workflow.Teleoperate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if s.calibrations != nil {
		if _, err := s.calibrations.PruneCorrupt(); err != nil {
			s.logger.Warn().Err(err).Msg("Calibration prune failed")
		}
	}

	s.startWorkflow(w, req)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	var req workflow.Replay
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.startWorkflow(w, req)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req workflow.Train
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.startWorkflow(w, req)
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	var req workflow.Eval
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.startWorkflow(w, req)
}

func (s *Server) handleFindCameras(w http.ResponseWriter, r *http.Request) {
	var req workflow.FindCameras
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	s.startWorkflow(w, req)
}
