package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robolab/robomgr/pkg/workflow"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// RecordingConfig is a persisted recording configuration.
type RecordingConfig struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	RobotType    workflow.DeviceType `json:"robot_type"`
	RobotPort    string              `json:"robot_port"`
	RobotID      string              `json:"robot_id"`
	Cameras      []workflow.Camera   `json:"cameras"`
	TeleopType   workflow.DeviceType `json:"teleop_type,omitempty"`
	TeleopPort   string              `json:"teleop_port,omitempty"`
	TeleopID     string              `json:"teleop_id,omitempty"`
	PolicyPath   string              `json:"policy_path,omitempty"`
	PolicyType   string              `json:"policy_type,omitempty"`
	PolicyDevice string              `json:"policy_device,omitempty"`
	RepoID       string              `json:"repo_id"`
	NumEpisodes  int                 `json:"num_episodes"`
	SingleTask   string              `json:"single_task"`
	FPS          int                 `json:"fps"`
	EpisodeTimeS int                 `json:"episode_time_s"`
	ResetTimeS   int                 `json:"reset_time_s"`
	DisplayData  bool                `json:"display_data"`
	PlaySounds   bool                `json:"play_sounds"`
	PushToHub    bool                `json:"push_to_hub"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Dataset tracks one recording run of a config.
type Dataset struct {
	ID                string    `json:"id"`
	ConfigID          string    `json:"config_id"`
	RepoID            string    `json:"repo_id"`
	Status            string    `json:"status"`
	TotalEpisodes     int       `json:"total_episodes"`
	CompletedEpisodes int       `json:"completed_episodes"`
	SingleTask        string    `json:"single_task"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Episode tracks one episode within a dataset. SessionID correlates the
// episode with the interactive session that recorded it.
type Episode struct {
	ID          int64      `json:"id"`
	DatasetID   string     `json:"dataset_id"`
	EpisodeNum  int        `json:"episode_num"`
	Status      string     `json:"status"`
	SessionID   string     `json:"session_id,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationS   float64    `json:"duration_s,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

const configColumns = `id, name, description, robot_type, robot_port, robot_id, cameras,
	teleop_type, teleop_port, teleop_id, policy_path, policy_type, policy_device,
	repo_id, num_episodes, single_task, fps, episode_time_s, reset_time_s,
	display_data, play_sounds, push_to_hub, created_at, updated_at`

// CreateConfig inserts a new recording config.
func (s *Store) CreateConfig(c *RecordingConfig) error {
	cameras, err := json.Marshal(c.Cameras)
	if err != nil {
		return fmt.Errorf("failed to marshal cameras: %w", err)
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = s.db.Exec(`INSERT INTO recording_configs (`+configColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, string(c.RobotType), c.RobotPort, c.RobotID, string(cameras),
		nullable(string(c.TeleopType)), nullable(c.TeleopPort), nullable(c.TeleopID),
		nullable(c.PolicyPath), nullable(c.PolicyType), nullable(c.PolicyDevice),
		c.RepoID, c.NumEpisodes, c.SingleTask, c.FPS, c.EpisodeTimeS, c.ResetTimeS,
		boolInt(c.DisplayData), boolInt(c.PlaySounds), boolInt(c.PushToHub),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	return nil
}

// GetConfig fetches one config by id.
func (s *Store) GetConfig(id string) (*RecordingConfig, error) {
	row := s.db.QueryRow(`SELECT `+configColumns+` FROM recording_configs WHERE id = ?`, id)
	return scanConfig(row)
}

// ListConfigs returns all configs ordered by creation time.
func (s *Store) ListConfigs() ([]*RecordingConfig, error) {
	rows, err := s.db.Query(`SELECT ` + configColumns + ` FROM recording_configs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	defer rows.Close()

	var configs []*RecordingConfig
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// UpdateConfig replaces the mutable fields of a config.
func (s *Store) UpdateConfig(c *RecordingConfig) error {
	cameras, err := json.Marshal(c.Cameras)
	if err != nil {
		return fmt.Errorf("failed to marshal cameras: %w", err)
	}
	c.UpdatedAt = time.Now().UTC()

	res, err := s.db.Exec(`UPDATE recording_configs SET
		name = ?, description = ?, robot_type = ?, robot_port = ?, robot_id = ?, cameras = ?,
		teleop_type = ?, teleop_port = ?, teleop_id = ?,
		policy_path = ?, policy_type = ?, policy_device = ?,
		repo_id = ?, num_episodes = ?, single_task = ?, fps = ?,
		episode_time_s = ?, reset_time_s = ?, display_data = ?, play_sounds = ?, push_to_hub = ?,
		updated_at = ?
		WHERE id = ?`,
		c.Name, c.Description, string(c.RobotType), c.RobotPort, c.RobotID, string(cameras),
		nullable(string(c.TeleopType)), nullable(c.TeleopPort), nullable(c.TeleopID),
		nullable(c.PolicyPath), nullable(c.PolicyType), nullable(c.PolicyDevice),
		c.RepoID, c.NumEpisodes, c.SingleTask, c.FPS,
		c.EpisodeTimeS, c.ResetTimeS, boolInt(c.DisplayData), boolInt(c.PlaySounds), boolInt(c.PushToHub),
		c.UpdatedAt.Format(time.RFC3339), c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update config: %w", err)
	}
	return requireAffected(res)
}

// DeleteConfig removes a config and, via cascade, its datasets.
func (s *Store) DeleteConfig(id string) error {
	res, err := s.db.Exec(`DELETE FROM recording_configs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete config: %w", err)
	}
	return requireAffected(res)
}

// CreateDataset inserts a new dataset row.
func (s *Store) CreateDataset(d *Dataset) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = "created"
	}

	_, err := s.db.Exec(`INSERT INTO datasets
		(id, config_id, repo_id, status, total_episodes, completed_episodes, single_task, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ConfigID, d.RepoID, d.Status, d.TotalEpisodes, d.CompletedEpisodes, d.SingleTask,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// GetDataset fetches one dataset by id.
func (s *Store) GetDataset(id string) (*Dataset, error) {
	row := s.db.QueryRow(`SELECT id, config_id, repo_id, status, total_episodes, completed_episodes,
		single_task, created_at, updated_at FROM datasets WHERE id = ?`, id)
	return scanDataset(row)
}

// ListDatasets returns datasets, optionally filtered by config id.
func (s *Store) ListDatasets(configID string) ([]*Dataset, error) {
	query := `SELECT id, config_id, repo_id, status, total_episodes, completed_episodes,
		single_task, created_at, updated_at FROM datasets`
	args := []any{}
	if configID != "" {
		query += ` WHERE config_id = ?`
		args = append(args, configID)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

// UpdateDatasetStatus updates the dataset status and, when completed
// is non-negative, the completed episode count.
func (s *Store) UpdateDatasetStatus(id, status string, completed int) error {
	var res sql.Result
	var err error
	if completed >= 0 {
		res, err = s.db.Exec(`UPDATE datasets SET status = ?, completed_episodes = ?, updated_at = ? WHERE id = ?`,
			status, completed, time.Now().UTC().Format(time.RFC3339), id)
	} else {
		res, err = s.db.Exec(`UPDATE datasets SET status = ?, updated_at = ? WHERE id = ?`,
			status, time.Now().UTC().Format(time.RFC3339), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}
	return requireAffected(res)
}

// DeleteDataset removes a dataset and its episodes.
func (s *Store) DeleteDataset(id string) error {
	res, err := s.db.Exec(`DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return requireAffected(res)
}

// CreateEpisode inserts a new episode row and fills in its id.
func (s *Store) CreateEpisode(e *Episode) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	if e.Status == "" {
		e.Status = "pending"
	}

	res, err := s.db.Exec(`INSERT INTO episodes (dataset_id, episode_num, status, session_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.DatasetID, e.EpisodeNum, e.Status, nullable(e.SessionID), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create episode: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return err
}

// ListEpisodes returns a dataset's episodes in episode order.
func (s *Store) ListEpisodes(datasetID string) ([]*Episode, error) {
	rows, err := s.db.Query(`SELECT id, dataset_id, episode_num, status, session_id,
		started_at, completed_at, duration_s, created_at
		FROM episodes WHERE dataset_id = ? ORDER BY episode_num`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// UpdateEpisode updates an episode's status, timing, and session link.
func (s *Store) UpdateEpisode(e *Episode) error {
	res, err := s.db.Exec(`UPDATE episodes SET status = ?, session_id = ?, started_at = ?, completed_at = ?, duration_s = ?
		WHERE id = ?`,
		e.Status, nullable(e.SessionID), nullableTime(e.StartedAt), nullableTime(e.CompletedAt), e.DurationS, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update episode: %w", err)
	}
	return requireAffected(res)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConfig(row scanner) (*RecordingConfig, error) {
	var (
		c                                  RecordingConfig
		cameras                            string
		teleopType, teleopPort, teleopID   sql.NullString
		policyPath, policyType, policyDev  sql.NullString
		displayData, playSounds, pushToHub int
		createdAt, updatedAt               string
		robotType                          string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Description, &robotType, &c.RobotPort, &c.RobotID, &cameras,
		&teleopType, &teleopPort, &teleopID, &policyPath, &policyType, &policyDev,
		&c.RepoID, &c.NumEpisodes, &c.SingleTask, &c.FPS, &c.EpisodeTimeS, &c.ResetTimeS,
		&displayData, &playSounds, &pushToHub, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	c.RobotType = workflow.DeviceType(robotType)
	c.TeleopType = workflow.DeviceType(nullString(teleopType))
	c.TeleopPort = nullString(teleopPort)
	c.TeleopID = nullString(teleopID)
	c.PolicyPath = nullString(policyPath)
	c.PolicyType = nullString(policyType)
	c.PolicyDevice = nullString(policyDev)
	c.DisplayData = displayData != 0
	c.PlaySounds = playSounds != 0
	c.PushToHub = pushToHub != 0

	if err := json.Unmarshal([]byte(cameras), &c.Cameras); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cameras: %w", err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

func scanDataset(row scanner) (*Dataset, error) {
	var (
		d                    Dataset
		createdAt, updatedAt string
	)
	err := row.Scan(&d.ID, &d.ConfigID, &d.RepoID, &d.Status, &d.TotalEpisodes,
		&d.CompletedEpisodes, &d.SingleTask, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan dataset: %w", err)
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &d, nil
}

func scanEpisode(row scanner) (*Episode, error) {
	var (
		e                                 Episode
		sessionID                         sql.NullString
		startedAt, completedAt, createdAt sql.NullString
		duration                          sql.NullFloat64
	)
	err := row.Scan(&e.ID, &e.DatasetID, &e.EpisodeNum, &e.Status, &sessionID,
		&startedAt, &completedAt, &duration, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan episode: %w", err)
	}
	e.SessionID = nullString(sessionID)
	e.DurationS = duration.Float64
	if startedAt.Valid {
		if t, err := time.Parse(time.RFC3339, startedAt.String); err == nil {
			e.StartedAt = &t
		}
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			e.CompletedAt = &t
		}
	}
	if createdAt.Valid {
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
	}
	return &e, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
