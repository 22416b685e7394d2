package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database
// configuration. The provider is read-only: rows are maintained by
// external tooling and read once at startup.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	aprs, err := s.GetAPRSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load APRS config: %w", err)
	}
	config.APRS = *aprs

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	pipeline, err := s.GetPipelineConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}
	config.Pipeline = *pipeline

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	return config, nil
}

// GetAPRSConfig returns the APRS-IS connection settings from the
// default config row.
func (s *SQLiteProvider) GetAPRSConfig() (*APRSData, error) {
	query := `
		SELECT callsign, passcode, server, filter
		FROM configs
		WHERE name = 'default'
	`

	var aprs APRSData
	var callsign, passcode, server, filter sql.NullString

	err := s.db.QueryRow(query).Scan(&callsign, &passcode, &server, &filter)
	if err == sql.ErrNoRows {
		return &aprs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query config row: %w", err)
	}

	aprs.Callsign = callsign.String
	aprs.Passcode = passcode.String
	aprs.Server = server.String
	aprs.Filter = filter.String
	return &aprs, nil
}

// GetPipelineConfig returns the pipeline tunables from the default
// config row.
func (s *SQLiteProvider) GetPipelineConfig() (*PipelineData, error) {
	query := `
		SELECT queue_size, workers
		FROM configs
		WHERE name = 'default'
	`

	var pipeline PipelineData
	var queueSize, workers sql.NullInt64

	err := s.db.QueryRow(query).Scan(&queueSize, &workers)
	if err == sql.ErrNoRows {
		return &pipeline, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query config row: %w", err)
	}

	pipeline.QueueSize = int(queueSize.Int64)
	pipeline.Workers = int(workers.Int64)
	return &pipeline, nil
}

// GetStorageConfig returns storage backend configurations from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	query := `
		SELECT backend_type, connection_string, hosts
		FROM storage_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default') AND enabled = 1
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backendType string
		var connectionString, hosts sql.NullString

		if err := rows.Scan(&backendType, &connectionString, &hosts); err != nil {
			return nil, fmt.Errorf("failed to scan storage config row: %w", err)
		}

		switch backendType {
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{
				ConnectionString: connectionString.String,
			}
		case "memcache":
			storage.Memcache = &MemcacheData{
				Hosts: splitHosts(hosts.String),
			}
		}
	}

	return storage, rows.Err()
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	query := `
		SELECT type, cert, key, port, listen_addr,
		       rate_limit_rps, rate_limit_burst, cors_origin
		FROM controller_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default') AND enabled = 1
		ORDER BY id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query controller configs: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var controller ControllerData
		var cert, key, listenAddr, corsOrigin sql.NullString
		var port, rateLimitBurst sql.NullInt64
		var rateLimitRPS sql.NullFloat64

		err := rows.Scan(
			&controller.Type, &cert, &key, &port, &listenAddr,
			&rateLimitRPS, &rateLimitBurst, &corsOrigin,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan controller config row: %w", err)
		}

		switch controller.Type {
		case "rest", "restserver":
			controller.RESTServer = &RESTServerData{
				Cert:           cert.String,
				Key:            key.String,
				Port:           int(port.Int64),
				ListenAddr:     listenAddr.String,
				RateLimitRPS:   rateLimitRPS.Float64,
				RateLimitBurst: int(rateLimitBurst.Int64),
				CORSOrigin:     corsOrigin.String,
			}
		}

		controllers = append(controllers, controller)
	}

	return controllers, rows.Err()
}

// IsReadOnly returns true: SQLite configs are managed externally
func (s *SQLiteProvider) IsReadOnly() bool {
	return true
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig writes the complete configuration in one transaction,
// replacing any existing row set. The running service never calls
// this; it exists for the offline conversion tooling.
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.clearConfig(tx, "default"); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	configID, err := s.insertConfig(tx, "default", configData)
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	if err := s.insertStorageConfigs(tx, configID, &configData.Storage); err != nil {
		return fmt.Errorf("failed to insert storage configs: %w", err)
	}

	for i := range configData.Controllers {
		if err := s.insertController(tx, configID, &configData.Controllers[i]); err != nil {
			return fmt.Errorf("failed to insert %s controller: %w", configData.Controllers[i].Type, err)
		}
	}

	return tx.Commit()
}

// clearConfig removes the named config row and its dependent sections.
func (s *SQLiteProvider) clearConfig(tx *sql.Tx, name string) error {
	var id int64
	err := tx.QueryRow(`SELECT id FROM configs WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	queries := []string{
		`DELETE FROM storage_configs WHERE config_id = ?`,
		`DELETE FROM controller_configs WHERE config_id = ?`,
		`DELETE FROM configs WHERE id = ?`,
	}
	for _, query := range queries {
		if _, err := tx.Exec(query, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertConfig(tx *sql.Tx, name string, configData *ConfigData) (int64, error) {
	query := `
		INSERT INTO configs (name, callsign, passcode, server, filter, queue_size, workers)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.Exec(query, name,
		configData.APRS.Callsign, configData.APRS.Passcode,
		configData.APRS.Server, configData.APRS.Filter,
		configData.Pipeline.QueueSize, configData.Pipeline.Workers,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteProvider) insertStorageConfigs(tx *sql.Tx, configID int64, storage *StorageData) error {
	if storage.TimescaleDB != nil {
		query := `
			INSERT INTO storage_configs (config_id, backend_type, enabled, connection_string)
			VALUES (?, 'timescaledb', 1, ?)
		`
		if _, err := tx.Exec(query, configID, storage.TimescaleDB.ConnectionString); err != nil {
			return err
		}
	}

	if storage.Memcache != nil {
		query := `
			INSERT INTO storage_configs (config_id, backend_type, enabled, hosts)
			VALUES (?, 'memcache', 1, ?)
		`
		if _, err := tx.Exec(query, configID, joinHosts(storage.Memcache.Hosts)); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLiteProvider) insertController(tx *sql.Tx, configID int64, controller *ControllerData) error {
	query := `
		INSERT INTO controller_configs (
			config_id, type, enabled, cert, key, port, listen_addr,
			rate_limit_rps, rate_limit_burst, cors_origin
		) VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?)
	`

	var cert, key, listenAddr, corsOrigin sql.NullString
	var port, rateLimitBurst sql.NullInt64
	var rateLimitRPS sql.NullFloat64

	if rc := controller.RESTServer; rc != nil {
		cert = sql.NullString{String: rc.Cert, Valid: rc.Cert != ""}
		key = sql.NullString{String: rc.Key, Valid: rc.Key != ""}
		listenAddr = sql.NullString{String: rc.ListenAddr, Valid: rc.ListenAddr != ""}
		corsOrigin = sql.NullString{String: rc.CORSOrigin, Valid: rc.CORSOrigin != ""}
		port = sql.NullInt64{Int64: int64(rc.Port), Valid: rc.Port != 0}
		rateLimitBurst = sql.NullInt64{Int64: int64(rc.RateLimitBurst), Valid: rc.RateLimitBurst != 0}
		rateLimitRPS = sql.NullFloat64{Float64: rc.RateLimitRPS, Valid: rc.RateLimitRPS != 0}
	}

	_, err := tx.Exec(query,
		configID, controller.Type, cert, key, port, listenAddr,
		rateLimitRPS, rateLimitBurst, corsOrigin,
	)
	return err
}
