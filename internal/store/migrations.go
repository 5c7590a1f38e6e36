package store

import "fmt"

// migrate creates the license_keys table for the active backend. The schema
// is a single flat table; key_code uniqueness is the only constraint the
// application relies on. Timestamps are epoch seconds (see Store doc).
func (s *Store) migrate() error {
	var migrations []string

	switch s.driver {
	case "sqlite":
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS license_keys (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				key_code TEXT UNIQUE NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				duration_hours INTEGER NOT NULL DEFAULT 24,
				used_by_ip TEXT,
				created_at INTEGER NOT NULL,
				first_used_at INTEGER
			)`,
		}
	case "pgx":
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS license_keys (
				id BIGSERIAL PRIMARY KEY,
				key_code TEXT UNIQUE NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				duration_hours BIGINT NOT NULL DEFAULT 24,
				used_by_ip TEXT,
				created_at BIGINT NOT NULL,
				first_used_at BIGINT
			)`,
		}
	case "mysql":
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS license_keys (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				key_code VARCHAR(64) UNIQUE NOT NULL,
				name VARCHAR(255) NOT NULL DEFAULT '',
				duration_hours BIGINT NOT NULL DEFAULT 24,
				used_by_ip VARCHAR(64),
				created_at BIGINT NOT NULL,
				first_used_at BIGINT
			)`,
		}
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
