// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Default per-table capacity rule
const (
	DefaultMaxVotersPerTable        = 400
	DefaultSpecialMaxVotersPerTable = 600
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("jurisdiction.departmentcode", "18")
	viper.SetDefault("jurisdiction.departmentname", "CAQUETA")

	viper.SetDefault("database.type", DatabaseSQLite)
	viper.SetDefault("database.sqlite.path", "divipola.db")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")
	viper.SetDefault("database.mysql.username", "")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "divipola")

	viper.SetDefault("allocation.maxvoterspertable", DefaultMaxVotersPerTable)
	viper.SetDefault("allocation.specialmaxvoterspertable", DefaultSpecialMaxVotersPerTable)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.clientid", "divipola")
	viper.SetDefault("mqtt.topic", "divipola")
	viper.SetDefault("mqtt.qos", 1)
	viper.SetDefault("mqtt.retain", false)

	viper.SetDefault("notification.enabled", false)
	viper.SetDefault("notification.urls", []string{})
	viper.SetDefault("notification.timeout", "10s")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")
	viper.SetDefault("sentry.samplerate", 1.0)
	viper.SetDefault("sentry.debug", false)

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/divipola.log")
	viper.SetDefault("logging.file_output.level", "debug")
}
