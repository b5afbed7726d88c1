// Package calibration manages the lerobot calibration file store on disk:
// listing calibrated devices, pruning empty files that would crash the
// JSON parser on the next run, and resetting calibrations on request.
//
// The on-disk layout is lerobot's own:
//
//	<root>/robots/<type_dir>/<id>.json
//	<root>/teleoperators/<type_dir>/<id>.json
//
// where type_dir collapses so100/so101 into so_leader or so_follower.
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robolab/robomgr/pkg/workflow"
)

// Kind distinguishes robot (follower) calibrations from teleoperator ones.
type Kind string

const (
	KindRobot  Kind = "robot"
	KindTeleop Kind = "teleop"
	KindAll    Kind = "all"
)

// Entry describes one calibration file found under the calibration root.
type Entry struct {
	DeviceID   string    `json:"device_id"`
	Kind       Kind      `json:"kind"`
	TypeDir    string    `json:"type_dir"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	Corrupt    bool      `json:"corrupt"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Service exposes the calibration store. All methods are safe for
// concurrent use; the mutex serializes prune and reset against listing.
type Service struct {
	mu     sync.Mutex
	root   string
	logger zerolog.Logger
}

// NewService creates a calibration service over root, typically
// ~/.cache/huggingface/lerobot/calibration.
func NewService(root string, logger zerolog.Logger) *Service {
	return &Service{
		root:   root,
		logger: logger.With().Str("component", "calibration").Logger(),
	}
}

// Root returns the calibration root directory.
func (s *Service) Root() string { return s.root }

// FilePath returns where the calibration file for a device lives,
// whether or not it exists yet.
func (s *Service) FilePath(dt workflow.DeviceType, deviceID string, teleop bool) string {
	return filepath.Join(s.root, kindDir(teleop), typeDir(dt), deviceID+".json")
}

// List walks the calibration root and returns every calibration file,
// flagging empty or unparseable ones as corrupt.
func (s *Service) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []Entry
	for _, kd := range []string{"robots", "teleoperators"} {
		base := filepath.Join(s.root, kd)
		found, err := s.listDir(base, kindFromDir(kd))
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

func (s *Service) listDir(base string, kind Kind) ([]Entry, error) {
	typeDirs, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration dir %s: %w", base, err)
	}

	var entries []Entry
	for _, td := range typeDirs {
		if !td.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(base, td.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read calibration dir: %w", err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}
			path := filepath.Join(base, td.Name(), f.Name())
			info, err := f.Info()
			if err != nil {
				continue
			}
			entries = append(entries, Entry{
				DeviceID:   strings.TrimSuffix(f.Name(), ".json"),
				Kind:       kind,
				TypeDir:    td.Name(),
				Path:       path,
				SizeBytes:  info.Size(),
				Corrupt:    isCorrupt(path, info.Size()),
				ModifiedAt: info.ModTime(),
			})
		}
	}
	return entries, nil
}

// PruneCorrupt removes empty or unparseable calibration files and
// returns the paths it deleted. lerobot writes the file before filling
// it, so a crash mid-calibration leaves a zero-byte file behind that
// breaks every subsequent run.
func (s *Service) PruneCorrupt() ([]string, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for _, e := range entries {
		if !e.Corrupt {
			continue
		}
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove corrupt calibration %s: %w", e.Path, err)
		}
		s.logger.Warn().Str("path", e.Path).Msg("Removed corrupt calibration file")
		removed = append(removed, e.Path)
	}
	return removed, nil
}

// Reset deletes calibration files for a device id so the operator can
// re-calibrate from scratch. KindAll removes both the robot and the
// teleoperator files. It returns the paths actually deleted.
func (s *Service) Reset(deviceID string, kind Kind) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var targets []string
	if kind == KindRobot || kind == KindAll {
		targets = append(targets,
			filepath.Join(s.root, "robots", "so_follower", deviceID+".json"),
			filepath.Join(s.root, "robots", "so_leader", deviceID+".json"),
		)
	}
	if kind == KindTeleop || kind == KindAll {
		targets = append(targets,
			filepath.Join(s.root, "teleoperators", "so_leader", deviceID+".json"),
			filepath.Join(s.root, "teleoperators", "so_follower", deviceID+".json"),
		)
	}

	var removed []string
	for _, path := range targets {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to reset calibration %s: %w", path, err)
		}
		s.logger.Info().Str("path", path).Msg("Calibration file reset")
		removed = append(removed, path)
	}
	return removed, nil
}

// isCorrupt reports whether a calibration file is empty or not valid JSON.
func isCorrupt(path string, size int64) bool {
	if size == 0 {
		return true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	return !json.Valid(data)
}

// typeDir maps a device type to its lerobot calibration directory.
// so100 and so101 share hardware, so they share calibration dirs.
func typeDir(dt workflow.DeviceType) string {
	if dt.Leader() {
		return "so_leader"
	}
	return "so_follower"
}

func kindDir(teleop bool) string {
	if teleop {
		return "teleoperators"
	}
	return "robots"
}

func kindFromDir(dir string) Kind {
	if dir == "teleoperators" {
		return KindTeleop
	}
	return KindRobot
}
