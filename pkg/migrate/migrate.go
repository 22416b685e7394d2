// Package migrate versions the SQLite configuration database. The
// running service never migrates anything; the offline tooling
// (cmd/config-convert) uses this to create and upgrade the schema the
// read-only provider expects.
package migrate

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration is one versioned schema step.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Source loads migrations and tracks the applied schema version.
type Source interface {
	Migrations() ([]Migration, error)
	CurrentVersion(db *sql.DB) (int, error)
	SetVersion(db Execer, version int) error
	EnsureVersionTable(db *sql.DB) error
}

// Migrator applies migrations from a Source to a database.
type Migrator struct {
	db     *sql.DB
	source Source
}

// NewMigrator creates a migrator over db.
func NewMigrator(db *sql.DB, source Source) *Migrator {
	return &Migrator{db: db, source: source}
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	return m.To(-1)
}

// To migrates up or down until target is the current version. A target
// of -1 means the latest known version.
func (m *Migrator) To(target int) error {
	if err := m.source.EnsureVersionTable(m.db); err != nil {
		return fmt.Errorf("ensuring version table: %w", err)
	}

	current, err := m.source.CurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("reading current version: %w", err)
	}

	migrations, err := m.source.Migrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	if target == -1 {
		if len(migrations) == 0 {
			return nil
		}
		target = migrations[len(migrations)-1].Version
	}

	if target < current {
		return m.Down(target)
	}

	for _, mig := range migrations {
		if mig.Version > current && mig.Version <= target {
			if err := m.apply(mig, true); err != nil {
				return fmt.Errorf("applying migration %d: %w", mig.Version, err)
			}
		}
	}
	return nil
}

// Down reverts migrations until target is the current version.
func (m *Migrator) Down(target int) error {
	if err := m.source.EnsureVersionTable(m.db); err != nil {
		return fmt.Errorf("ensuring version table: %w", err)
	}

	current, err := m.source.CurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("reading current version: %w", err)
	}
	if target >= current {
		return fmt.Errorf("target version %d must be below current version %d", target, current)
	}

	migrations, err := m.source.Migrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version > migrations[j].Version
	})

	for _, mig := range migrations {
		if mig.Version > target && mig.Version <= current {
			if err := m.apply(mig, false); err != nil {
				return fmt.Errorf("reverting migration %d: %w", mig.Version, err)
			}
		}
	}
	return nil
}

// Current reports the highest applied version, creating the version
// table when needed.
func (m *Migrator) Current() (int, error) {
	if err := m.source.EnsureVersionTable(m.db); err != nil {
		return 0, fmt.Errorf("ensuring version table: %w", err)
	}
	return m.source.CurrentVersion(m.db)
}

// Pending lists migrations newer than the current version, oldest
// first.
func (m *Migrator) Pending() ([]Migration, error) {
	current, err := m.Current()
	if err != nil {
		return nil, err
	}

	migrations, err := m.source.Migrations()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range migrations {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Version < pending[j].Version
	})
	return pending, nil
}

// apply runs one migration step inside a transaction; the version
// table update commits atomically with the schema change.
func (m *Migrator) apply(mig Migration, up bool) error {
	stmt := mig.Up
	newVersion := mig.Version
	if !up {
		stmt = mig.Down
		newVersion = mig.Version - 1
	}
	if stmt == "" {
		direction := "up"
		if !up {
			direction = "down"
		}
		return fmt.Errorf("migration %d has no %s SQL", mig.Version, direction)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}
	if err := m.source.SetVersion(tx, newVersion); err != nil {
		return fmt.Errorf("updating schema version: %w", err)
	}
	return tx.Commit()
}
