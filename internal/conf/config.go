// config.go: settings struct of the divipola tooling and functions to load and save it.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// Database backends
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// JurisdictionSettings names the department whose census rows are reconciled.
type JurisdictionSettings struct {
	DepartmentCode string // DIVIPOLA department code, e.g. "18"
	DepartmentName string // department name as written in the census reference
}

// SQLiteSettings holds the sqlite database location
type SQLiteSettings struct {
	Path string // path to sqlite database file
}

// MySQLSettings holds mysql connection parameters
type MySQLSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DatabaseSettings selects and configures the hierarchy store backend
type DatabaseSettings struct {
	Type   string // sqlite or mysql
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// AllocationSettings holds the per-table capacity rule
type AllocationSettings struct {
	MaxVotersPerTable        int // limit for ordinary zones
	SpecialMaxVotersPerTable int // limit used when provisioning tables in special zones
}

// WebServerSettings configures the query API
type WebServerSettings struct {
	Enabled bool
	Port    string
}

// MetricsSettings configures the prometheus endpoint
type MetricsSettings struct {
	Enabled bool
	Path    string
}

// MQTTSettings configures publishing of confirmed table captures
type MQTTSettings struct {
	Enabled  bool
	Broker   string // e.g. tcp://broker.local:1883
	ClientID string
	Username string
	Password string
	Topic    string // topic prefix
	QoS      int    // 0, 1 or 2
	Retain   bool
}

// NotificationSettings configures operator alerts sent through shoutrrr URLs
type NotificationSettings struct {
	Enabled bool
	URLs    []string      // shoutrrr service URLs, e.g. telegram://token@telegram?chats=123
	Timeout time.Duration // per send
}

// SentrySettings configures opt-in error reporting
type SentrySettings struct {
	Enabled     bool    // false unless the operator opts in
	DSN         string  // project DSN, required when enabled
	Environment string  // e.g. "production", "simulacro"
	SampleRate  float64 // fraction of error events sent, 0..1
	Debug       bool    // SDK debug output
}

// Settings contains all configuration options
type Settings struct {
	Debug bool // true to enable debug mode

	Jurisdiction JurisdictionSettings
	Database     DatabaseSettings
	Allocation   AllocationSettings
	WebServer    WebServerSettings
	Metrics      MetricsSettings
	MQTT         MQTTSettings
	Notification NotificationSettings
	Sentry       SentrySettings
	Logging      logger.LoggingConfig
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
// An empty configFile searches the default config paths.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-config").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, binds environment variables and reads the configuration file.
func initViper(configFile string) error {
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		return err
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(err).
				Category(errors.CategoryConfiguration).
				Context("config_file", configFile).
				Build()
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config file into dir
func createDefaultConfig(dir string) error {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded config: %w", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	logger.Global().Module("conf").Info("created default config file", logger.String("path", configPath))
	return viper.ReadInConfig()
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath through a temporary file and rename.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
