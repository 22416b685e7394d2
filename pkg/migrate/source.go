package migrate

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	regexp "github.com/wasilibs/go-re2"
)

// Migration filenames: NNN_description.up.sql / NNN_description.down.sql.
var (
	upPattern   = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)
	downPattern = regexp.MustCompile(`^(\d+)_(.+)\.down\.sql$`)
)

// FSSource loads migrations from a filesystem, embedded or on disk.
type FSSource struct {
	fsys         fs.FS
	versionTable string
}

// NewFSSource creates a migration source over fsys. table names the
// version-tracking table; empty means "schema_migrations".
func NewFSSource(fsys fs.FS, table string) *FSSource {
	if table == "" {
		table = "schema_migrations"
	}
	return &FSSource{fsys: fsys, versionTable: table}
}

// Migrations reads every up/down pair from the filesystem, sorted by
// version.
func (s *FSSource) Migrations() ([]Migration, error) {
	byVersion := make(map[int]*Migration)

	err := fs.WalkDir(s.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		up := true
		matches := upPattern.FindStringSubmatch(name)
		if matches == nil {
			matches = downPattern.FindStringSubmatch(name)
			up = false
		}
		if matches == nil {
			return nil
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return fmt.Errorf("invalid version in migration file %s: %w", name, err)
		}

		content, err := fs.ReadFile(s.fsys, path)
		if err != nil {
			return fmt.Errorf("reading migration file %s: %w", path, err)
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{
				Version: version,
				Name:    strings.ReplaceAll(matches[2], "_", " "),
			}
			byVersion[version] = mig
		}
		if up {
			mig.Up = string(content)
		} else {
			mig.Down = string(content)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking migration filesystem: %w", err)
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		migrations = append(migrations, *mig)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// EnsureVersionTable creates the version-tracking table if missing.
func (s *FSSource) EnsureVersionTable(db *sql.DB) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, s.versionTable)

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("creating version table: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied version, 0 when none.
func (s *FSSource) CurrentVersion(db *sql.DB) (int, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", s.versionTable)

	var version int
	if err := db.QueryRow(query).Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// SetVersion records version as the current schema version. Rows above
// it are cleared so a downgrade is visible to the MAX-based read.
func (s *FSSource) SetVersion(db Execer, version int) error {
	clear := fmt.Sprintf("DELETE FROM %s WHERE version > ?", s.versionTable)
	if _, err := db.Exec(clear, version); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	if version == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (version, applied_at)
		VALUES (?, CURRENT_TIMESTAMP)
	`, s.versionTable)
	if _, err := db.Exec(query, version); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return nil
}
