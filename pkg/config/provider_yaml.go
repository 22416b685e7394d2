package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		APRS        APRSYAML         `yaml:"aprs"`
		Storage     StorageYAML      `yaml:"storage,omitempty"`
		Pipeline    PipelineYAML     `yaml:"pipeline,omitempty"`
		Controllers []ControllerYAML `yaml:"controllers,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", y.filename, err)
	}

	// Convert to our internal format
	config := &ConfigData{
		APRS: APRSData{
			Callsign: yamlConfig.APRS.Callsign,
			Passcode: yamlConfig.APRS.Passcode,
			Server:   yamlConfig.APRS.Server,
			Filter:   yamlConfig.APRS.Filter,
		},
		Pipeline: PipelineData{
			QueueSize: yamlConfig.Pipeline.QueueSize,
			Workers:   yamlConfig.Pipeline.Workers,
		},
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	// Convert storage
	config.Storage = StorageData{}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}
	if yamlConfig.Storage.Memcache != nil {
		config.Storage.Memcache = &MemcacheData{
			Hosts: splitHosts(yamlConfig.Storage.Memcache.Hosts),
		}
	}

	// Convert controllers
	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				Cert:           controller.RESTServer.Cert,
				Key:            controller.RESTServer.Key,
				Port:           controller.RESTServer.Port,
				ListenAddr:     controller.RESTServer.ListenAddr,
				RateLimitRPS:   controller.RESTServer.RateLimitRPS,
				RateLimitBurst: controller.RESTServer.RateLimitBurst,
				CORSOrigin:     controller.RESTServer.CORSOrigin,
			}
		}
	}

	y.config = config
	return config, nil
}

// GetAPRSConfig returns the APRS-IS connection configuration
func (y *YAMLProvider) GetAPRSConfig() (*APRSData, error) {
	config, err := y.loadedConfig()
	if err != nil {
		return nil, err
	}
	return &config.APRS, nil
}

// GetStorageConfig returns the storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	config, err := y.loadedConfig()
	if err != nil {
		return nil, err
	}
	return &config.Storage, nil
}

// GetPipelineConfig returns the pipeline configuration
func (y *YAMLProvider) GetPipelineConfig() (*PipelineData, error) {
	config, err := y.loadedConfig()
	if err != nil {
		return nil, err
	}
	return &config.Pipeline, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	config, err := y.loadedConfig()
	if err != nil {
		return nil, err
	}
	return config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

func (y *YAMLProvider) loadedConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}
	return y.LoadConfig()
}

// splitHosts turns a comma-separated host list into its entries.
func splitHosts(hosts string) []string {
	var out []string
	for _, h := range strings.Split(hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func joinHosts(hosts []string) string {
	return strings.Join(hosts, ",")
}

// YAML-specific structs with YAML tags

type APRSYAML struct {
	Callsign string `yaml:"callsign,omitempty"`
	Passcode string `yaml:"passcode,omitempty"`
	Server   string `yaml:"server,omitempty"`
	Filter   string `yaml:"filter,omitempty"`
}

type StorageYAML struct {
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
	Memcache    *MemcacheYAML    `yaml:"memcache,omitempty"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type MemcacheYAML struct {
	// Hosts is a comma-separated list of memcached addresses.
	Hosts string `yaml:"hosts"`
}

type PipelineYAML struct {
	QueueSize int `yaml:"queue-size,omitempty"`
	Workers   int `yaml:"workers,omitempty"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type RESTServerYAML struct {
	Cert           string  `yaml:"cert,omitempty"`
	Key            string  `yaml:"key,omitempty"`
	Port           int     `yaml:"port,omitempty"`
	ListenAddr     string  `yaml:"listen-addr,omitempty"`
	RateLimitRPS   float64 `yaml:"rate-limit-rps,omitempty"`
	RateLimitBurst int     `yaml:"rate-limit-burst,omitempty"`
	CORSOrigin     string  `yaml:"cors-origin,omitempty"`
}
