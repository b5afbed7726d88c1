// Package ports implements the guided port identification flow: snapshot
// the connected serial ports, have the operator unplug one arm, snapshot
// again, and identify the arm's port from the diff. Identified mappings
// are persisted so they survive restarts.
package ports

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// ErrProbeNotFound is returned for unknown probe ids.
var ErrProbeNotFound = errors.New("probe not found")

// Scanner lists currently connected serial device paths.
type Scanner interface {
	Scan() ([]string, error)
}

// GlobScanner scans the filesystem for serial devices matching globs,
// the same patterns lerobot's find_available_ports uses.
type GlobScanner struct {
	Globs []string
}

// Scan implements Scanner.
func (g GlobScanner) Scan() ([]string, error) {
	var ports []string
	for _, pattern := range g.Globs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid serial glob %q: %w", pattern, err)
		}
		ports = append(ports, matches...)
	}
	sort.Strings(ports)
	return ports, nil
}

// Store persists identified arm-to-port mappings.
type Store interface {
	SavePort(armName, port string) error
	ListPorts() (map[string]string, error)
	DeletePort(armName string) (bool, error)
	DeleteAllPorts() error
}

// DetectResult is the outcome of one detection attempt.
type DetectResult struct {
	ProbeID      string   `json:"probe_id"`
	ArmName      string   `json:"arm_name"`
	DetectedPort string   `json:"detected_port,omitempty"`
	PortsDiff    []string `json:"ports_diff"`
	Message      string   `json:"message"`
}

// Service runs identification probes and caches identified ports.
type Service struct {
	mu         sync.Mutex
	probes     map[string][]string
	identified map[string]string

	scanner Scanner
	store   Store
	logger  zerolog.Logger
}

// NewService creates a port identification service, loading previously
// identified ports from the store.
func NewService(scanner Scanner, store Store, logger zerolog.Logger) (*Service, error) {
	identified, err := store.ListPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to load identified ports: %w", err)
	}

	return &Service{
		probes:     make(map[string][]string),
		identified: identified,
		scanner:    scanner,
		store:      store,
		logger:     logger.With().Str("component", "ports").Logger(),
	}, nil
}

// Scan lists the serial ports currently connected.
func (s *Service) Scan() ([]string, error) {
	return s.scanner.Scan()
}

// StartProbe snapshots the currently connected ports and returns the
// probe id plus the snapshot. The operator should now disconnect one arm.
func (s *Service) StartProbe() (string, []string, error) {
	before, err := s.scanner.Scan()
	if err != nil {
		return "", nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate probe id: %w", err)
	}

	s.mu.Lock()
	s.probes[id] = before
	s.mu.Unlock()

	s.logger.Info().Str("probe_id", id).Int("ports", len(before)).Msg("Port probe started")
	return id, before, nil
}

// Detect scans again and diffs against the probe snapshot. Exactly one
// disappeared port identifies the arm; zero or multiple changed ports
// leave the mapping unset with an explanatory message.
func (s *Service) Detect(probeID, armName string) (DetectResult, error) {
	s.mu.Lock()
	before, ok := s.probes[probeID]
	s.mu.Unlock()
	if !ok {
		return DetectResult{}, ErrProbeNotFound
	}

	after, err := s.scanner.Scan()
	if err != nil {
		return DetectResult{}, err
	}

	diff := missingFrom(before, after)
	res := DetectResult{ProbeID: probeID, ArmName: armName, PortsDiff: diff}

	switch len(diff) {
	case 1:
		port := diff[0]
		if err := s.store.SavePort(armName, port); err != nil {
			return DetectResult{}, err
		}
		s.mu.Lock()
		s.identified[armName] = port
		s.mu.Unlock()
		res.DetectedPort = port
		res.Message = fmt.Sprintf("Identified! The %s arm is on port %s. You can reconnect it now.", armName, port)
		s.logger.Info().Str("arm", armName).Str("port", port).Msg("Port identified")
	case 0:
		res.Message = "No port change detected. Make sure you disconnected the USB cable and try again."
	default:
		res.Message = fmt.Sprintf("Multiple ports changed (%s). Please disconnect only one arm at a time.", strings.Join(diff, ", "))
	}
	return res, nil
}

// Refresh re-scans and replaces the probe snapshot, used after the
// operator reconnects an arm between detections.
func (s *Service) Refresh(probeID string) ([]string, error) {
	ports, err := s.scanner.Scan()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.probes[probeID]; !ok {
		return nil, ErrProbeNotFound
	}
	s.probes[probeID] = ports
	return ports, nil
}

// Identified returns a copy of all identified arm-to-port mappings.
func (s *Service) Identified() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.identified))
	for k, v := range s.identified {
		out[k] = v
	}
	return out
}

// SetPort manually records a mapping, e.g. typed in by the operator.
func (s *Service) SetPort(armName, port string) error {
	if err := s.store.SavePort(armName, port); err != nil {
		return err
	}
	s.mu.Lock()
	s.identified[armName] = port
	s.mu.Unlock()
	return nil
}

// RemovePort deletes one mapping; it reports whether it existed.
func (s *Service) RemovePort(armName string) (bool, error) {
	existed, err := s.store.DeletePort(armName)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	delete(s.identified, armName)
	s.mu.Unlock()
	return existed, nil
}

// Clear drops all probes and identified mappings.
func (s *Service) Clear() error {
	if err := s.store.DeleteAllPorts(); err != nil {
		return err
	}
	s.mu.Lock()
	s.probes = make(map[string][]string)
	s.identified = make(map[string]string)
	s.mu.Unlock()
	return nil
}

// missingFrom returns the sorted elements of before absent from after.
func missingFrom(before, after []string) []string {
	present := make(map[string]bool, len(after))
	for _, p := range after {
		present[p] = true
	}
	var missing []string
	for _, p := range before {
		if !present[p] {
			missing = append(missing, p)
		}
	}
	sort.Strings(missing)
	return missing
}
