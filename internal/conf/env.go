// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "DIVIPOLA_DEBUG", validateEnvBool},

		{"jurisdiction.departmentcode", "DIVIPOLA_DEPARTMENT_CODE", validateEnvDigits},
		{"jurisdiction.departmentname", "DIVIPOLA_DEPARTMENT_NAME", nil},

		{"database.type", "DIVIPOLA_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "DIVIPOLA_SQLITE_PATH", nil},
		{"database.mysql.host", "DIVIPOLA_MYSQL_HOST", nil},
		{"database.mysql.port", "DIVIPOLA_MYSQL_PORT", validateEnvPort},
		{"database.mysql.username", "DIVIPOLA_MYSQL_USERNAME", nil},
		{"database.mysql.password", "DIVIPOLA_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "DIVIPOLA_MYSQL_DATABASE", nil},

		{"allocation.maxvoterspertable", "DIVIPOLA_MAX_VOTERS_PER_TABLE", validateEnvPositiveInt},
		{"allocation.specialmaxvoterspertable", "DIVIPOLA_SPECIAL_MAX_VOTERS_PER_TABLE", validateEnvPositiveInt},

		{"webserver.port", "DIVIPOLA_WEBSERVER_PORT", validateEnvPort},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue, ok := os.LookupEnv(binding.EnvVar); ok {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value: %s", value)
	}
	return nil
}

func validateEnvDigits(value string) error {
	if value == "" {
		return fmt.Errorf("code cannot be empty")
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return fmt.Errorf("code must be numeric: %s", value)
		}
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch strings.ToLower(value) {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	default:
		return fmt.Errorf("unsupported database type %q (expected %s or %s)", value, DatabaseSQLite, DatabaseMySQL)
	}
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s", value)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer: %s", value)
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return bindEnvVars()
}
