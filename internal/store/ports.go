package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SavePort upserts an arm name to port path mapping.
func (s *Store) SavePort(armName, port string) error {
	_, err := s.db.Exec(`
		INSERT INTO identified_ports (arm_name, port, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(arm_name) DO UPDATE SET port = excluded.port, updated_at = excluded.updated_at`,
		armName, port, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save port: %w", err)
	}
	return nil
}

// ListPorts returns all identified arm to port mappings.
func (s *Store) ListPorts() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT arm_name, port FROM identified_ports`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ports: %w", err)
	}
	defer rows.Close()

	ports := make(map[string]string)
	for rows.Next() {
		var name, port string
		if err := rows.Scan(&name, &port); err != nil {
			return nil, fmt.Errorf("failed to scan port row: %w", err)
		}
		ports[name] = port
	}
	return ports, rows.Err()
}

// DeletePort removes one mapping; it reports whether a row existed.
func (s *Store) DeletePort(armName string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM identified_ports WHERE arm_name = ?`, armName)
	if err != nil {
		return false, fmt.Errorf("failed to delete port: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAllPorts removes every mapping.
func (s *Store) DeleteAllPorts() error {
	if _, err := s.db.Exec(`DELETE FROM identified_ports`); err != nil {
		return fmt.Errorf("failed to delete ports: %w", err)
	}
	return nil
}

// nullString converts sql.NullString to a plain string.
func nullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
