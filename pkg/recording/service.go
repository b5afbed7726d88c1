// Package recording orchestrates dataset recording: persisted recording
// configurations, datasets, and per-episode bookkeeping, plus turning a
// stored configuration into a runnable lerobot-record workflow.
package recording

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robolab/robomgr/internal/store"
	"github.com/robolab/robomgr/pkg/workflow"
)

// Dataset status values as they progress through a recording run.
const (
	DatasetCreated    = "created"
	DatasetRecording  = "recording"
	DatasetCompleted  = "completed"
	DatasetFailed     = "failed"
	DatasetCancelled  = "cancelled"
)

// Service manages recording configs, datasets, and episodes.
type Service struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewService creates a recording service on top of the store.
func NewService(st *store.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger.With().Str("component", "recording").Logger(),
	}
}

// CreateConfig validates and persists a new recording config.
func (s *Service) CreateConfig(c *store.RecordingConfig) (*store.RecordingConfig, error) {
	c.ID = uuid.NewString()
	if c.Cameras == nil {
		c.Cameras = []workflow.Camera{}
	}
	if err := s.buildRecord(c).Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateConfig(c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("config_id", c.ID).Str("name", c.Name).Msg("Recording config created")
	return c, nil
}

// GetConfig fetches a config by id.
func (s *Service) GetConfig(id string) (*store.RecordingConfig, error) {
	return s.store.GetConfig(id)
}

// ListConfigs returns all configs.
func (s *Service) ListConfigs() ([]*store.RecordingConfig, error) {
	return s.store.ListConfigs()
}

// UpdateConfig validates and replaces a config.
func (s *Service) UpdateConfig(c *store.RecordingConfig) error {
	if c.Cameras == nil {
		c.Cameras = []workflow.Camera{}
	}
	if err := s.buildRecord(c).Validate(); err != nil {
		return err
	}
	return s.store.UpdateConfig(c)
}

// DeleteConfig removes a config and its datasets.
func (s *Service) DeleteConfig(id string) error {
	return s.store.DeleteConfig(id)
}

// CreateDataset starts tracking a new recording run of a config.
func (s *Service) CreateDataset(configID string) (*store.Dataset, error) {
	cfg, err := s.store.GetConfig(configID)
	if err != nil {
		return nil, err
	}

	d := &store.Dataset{
		ID:            uuid.NewString(),
		ConfigID:      cfg.ID,
		RepoID:        cfg.RepoID,
		Status:        DatasetCreated,
		TotalEpisodes: cfg.NumEpisodes,
		SingleTask:    cfg.SingleTask,
	}
	if err := s.store.CreateDataset(d); err != nil {
		return nil, err
	}
	s.logger.Info().Str("dataset_id", d.ID).Str("config_id", configID).Msg("Dataset created")
	return d, nil
}

// GetDataset fetches a dataset by id.
func (s *Service) GetDataset(id string) (*store.Dataset, error) {
	return s.store.GetDataset(id)
}

// ListDatasets returns datasets, optionally filtered by config.
func (s *Service) ListDatasets(configID string) ([]*store.Dataset, error) {
	return s.store.ListDatasets(configID)
}

// UpdateDatasetStatus moves a dataset through its lifecycle. completed
// below zero leaves the episode count untouched.
func (s *Service) UpdateDatasetStatus(id, status string, completed int) error {
	return s.store.UpdateDatasetStatus(id, status, completed)
}

// DeleteDataset removes a dataset's rows and, when removeFiles is set,
// the recorded files on disk as well.
func (s *Service) DeleteDataset(id string, removeFiles bool) error {
	d, err := s.store.GetDataset(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDataset(id); err != nil {
		return err
	}
	if removeFiles {
		if err := s.RemoveDatasetFiles(d.RepoID); err != nil {
			return err
		}
	}
	return nil
}

// CreateEpisode registers an episode within a dataset.
func (s *Service) CreateEpisode(datasetID string, episodeNum int) (*store.Episode, error) {
	if _, err := s.store.GetDataset(datasetID); err != nil {
		return nil, err
	}
	e := &store.Episode{DatasetID: datasetID, EpisodeNum: episodeNum}
	if err := s.store.CreateEpisode(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListEpisodes returns a dataset's episodes.
func (s *Service) ListEpisodes(datasetID string) ([]*store.Episode, error) {
	return s.store.ListEpisodes(datasetID)
}

// UpdateEpisode updates an episode's status and timing.
func (s *Service) UpdateEpisode(e *store.Episode) error {
	return s.store.UpdateEpisode(e)
}

// BuildRecord turns a stored config into a record workflow. With
// forceOverride the existing dataset directory is removed first, since
// lerobot-record refuses to overwrite a dataset in place.
func (s *Service) BuildRecord(configID string, forceOverride bool) (workflow.Record, error) {
	cfg, err := s.store.GetConfig(configID)
	if err != nil {
		return workflow.Record{}, err
	}

	rec := s.buildRecord(cfg)
	if err := rec.Validate(); err != nil {
		return workflow.Record{}, err
	}

	if forceOverride {
		if err := s.RemoveDatasetFiles(cfg.RepoID); err != nil {
			return workflow.Record{}, err
		}
	}
	return rec, nil
}

func (s *Service) buildRecord(cfg *store.RecordingConfig) workflow.Record {
	return workflow.Record{
		RobotType:    cfg.RobotType,
		RobotPort:    cfg.RobotPort,
		RobotID:      cfg.RobotID,
		Cameras:      cfg.Cameras,
		TeleopType:   cfg.TeleopType,
		TeleopPort:   cfg.TeleopPort,
		TeleopID:     cfg.TeleopID,
		PolicyPath:   cfg.PolicyPath,
		PolicyType:   cfg.PolicyType,
		PolicyDevice: cfg.PolicyDevice,
		RepoID:       cfg.RepoID,
		NumEpisodes:  cfg.NumEpisodes,
		SingleTask:   cfg.SingleTask,
		FPS:          cfg.FPS,
		EpisodeTimeS: cfg.EpisodeTimeS,
		ResetTimeS:   cfg.ResetTimeS,
		PushToHub:    cfg.PushToHub,
		DisplayData:  cfg.DisplayData,
		PlaySounds:   cfg.PlaySounds,
	}
}

// RemoveDatasetFiles deletes a dataset's on-disk directory under the
// lerobot cache. Missing directories are not an error.
func (s *Service) RemoveDatasetFiles(repoID string) error {
	dir, err := DatasetDir(repoID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	s.logger.Info().Str("path", dir).Msg("Removing dataset directory")
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove dataset directory: %w", err)
	}
	return nil
}

// DatasetDir returns where lerobot stores a dataset locally.
func DatasetDir(repoID string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cache", "huggingface", "lerobot", repoID), nil
}
