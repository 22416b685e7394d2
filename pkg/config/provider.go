package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetAPRSConfig() (*APRSData, error)
	GetStorageConfig() (*StorageData, error)
	GetPipelineConfig() (*PipelineData, error)
	GetControllers() ([]ControllerData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// Defaults applied by ApplyDefaults for options the source left unset.
const (
	DefaultCallsign = "N0CALL"
	DefaultPasscode = "-1" // receive-only
	DefaultServer   = "rotate.aprs2.net:14580"
	DefaultFilter   = "r/52/21/500"

	DefaultQueueSize = 10000
	DefaultWorkers   = 4
)

// ConfigData represents the complete configuration structure
type ConfigData struct {
	APRS        APRSData         `json:"aprs"`
	Storage     StorageData      `json:"storage,omitempty"`
	Pipeline    PipelineData     `json:"pipeline,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// APRSData holds the APRS-IS upstream connection configuration
type APRSData struct {
	Callsign string `json:"callsign,omitempty"`
	// Passcode is the APRS-IS login passcode. "-1" logs in receive-only;
	// "auto" derives the passcode from the callsign.
	Passcode string `json:"passcode,omitempty"`
	Server   string `json:"server,omitempty"`
	Filter   string `json:"filter,omitempty"`
}

// StorageData holds the configuration for the storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	Memcache    *MemcacheData    `json:"memcache,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

type MemcacheData struct {
	Hosts []string `json:"hosts"`
}

// PipelineData holds the packet-processing tunables
type PipelineData struct {
	QueueSize int `json:"queue_size,omitempty"`
	Workers   int `json:"workers,omitempty"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

type RESTServerData struct {
	Cert           string  `json:"cert,omitempty"`
	Key            string  `json:"key,omitempty"`
	Port           int     `json:"port,omitempty"`
	ListenAddr     string  `json:"listen_addr,omitempty"`
	RateLimitRPS   float64 `json:"rate_limit_rps,omitempty"`
	RateLimitBurst int     `json:"rate_limit_burst,omitempty"`
	CORSOrigin     string  `json:"cors_origin,omitempty"`
}

// UsingDefaultCallsign reports whether the configuration still carries
// the placeholder callsign, which APRS-IS accepts but never verifies.
func (a *APRSData) UsingDefaultCallsign() bool {
	return a.Callsign == DefaultCallsign
}

// ApplyDefaults fills unset options with their defaults so consumers
// never see empty connection parameters.
func (c *ConfigData) ApplyDefaults() {
	if c.APRS.Callsign == "" {
		c.APRS.Callsign = DefaultCallsign
	}
	if c.APRS.Passcode == "" {
		c.APRS.Passcode = DefaultPasscode
	}
	if c.APRS.Server == "" {
		c.APRS.Server = DefaultServer
	}
	if c.APRS.Filter == "" {
		c.APRS.Filter = DefaultFilter
	}
	if c.Pipeline.QueueSize == 0 {
		c.Pipeline.QueueSize = DefaultQueueSize
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = DefaultWorkers
	}
}
