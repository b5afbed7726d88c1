package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/robolab/robomgr/internal/store"
	"github.com/robolab/robomgr/pkg/recording"
)

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg store.RecordingConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := s.recordings.CreateConfig(&cfg)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeServiceError(w, err)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.recordings.ListConfigs()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": configs})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.recordings.GetConfig(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg store.RecordingConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	cfg.ID = r.PathValue("id")

	if err := s.recordings.UpdateConfig(&cfg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeServiceError(w, err)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.recordings.DeleteConfig(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStartRecording launches a lerobot-record session from a stored
// config and registers the dataset it will produce. With
// ?force_override=true the previously recorded dataset directory is
// removed first.
func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	configID := r.PathValue("id")
	force := r.URL.Query().Get("force_override") == "true"

	rec, err := s.recordings.BuildRecord(configID, force)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeServiceError(w, err)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	dataset, err := s.recordings.CreateDataset(configID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	snap, err := s.sessions.Start(rec.Argv())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := s.recordings.UpdateDatasetStatus(dataset.ID, recording.DatasetRecording, -1); err != nil {
		s.logger.Error().Err(err).Str("dataset_id", dataset.ID).Msg("Failed to mark dataset recording")
	}

	s.logger.Info().
		Str("config_id", configID).
		Str("dataset_id", dataset.ID).
		Str("session_id", snap.ID).
		Msg("Recording session started")
	writeJSON(w, http.StatusCreated, map[string]any{
		"session":    snap,
		"dataset_id": dataset.ID,
	})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.recordings.ListDatasets(r.URL.Query().Get("config_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": datasets})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	d, err := s.recordings.GetDataset(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdateDataset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status            string `json:"status"`
		CompletedEpisodes *int   `json:"completed_episodes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	completed := -1
	if req.CompletedEpisodes != nil {
		completed = *req.CompletedEpisodes
	}
	if err := s.recordings.UpdateDatasetStatus(r.PathValue("id"), req.Status, completed); err != nil {
		writeServiceError(w, err)
		return
	}

	d, err := s.recordings.GetDataset(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	removeFiles := r.URL.Query().Get("remove_files") == "true"
	if err := s.recordings.DeleteDataset(r.PathValue("id"), removeFiles); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateEpisode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EpisodeNum int `json:"episode_num"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	e, err := s.recordings.CreateEpisode(r.PathValue("id"), req.EpisodeNum)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleListEpisodes(w http.ResponseWriter, r *http.Request) {
	episodes, err := s.recordings.ListEpisodes(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"episodes": episodes})
}

func (s *Server) handleUpdateEpisode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid episode id")
		return
	}

	var e store.Episode
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	e.ID = id

	if err := s.recordings.UpdateEpisode(&e); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
