// conf/validate.go

package conf

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, validate := range []func(*Settings) error{
		validateJurisdiction,
		validateDatabase,
		validateAllocation,
		validateWebServer,
		validateMQTT,
		validateNotification,
		validateSentry,
	} {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateJurisdiction(settings *Settings) error {
	if strings.TrimSpace(settings.Jurisdiction.DepartmentName) == "" {
		return fmt.Errorf("jurisdiction department name is required")
	}
	if settings.Jurisdiction.DepartmentCode != "" {
		if err := validateEnvDigits(settings.Jurisdiction.DepartmentCode); err != nil {
			return fmt.Errorf("jurisdiction department %w", err)
		}
	}
	return nil
}

func validateDatabase(settings *Settings) error {
	db := &settings.Database
	db.Type = strings.ToLower(strings.TrimSpace(db.Type))

	switch db.Type {
	case DatabaseSQLite:
		if db.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DatabaseMySQL:
		var missing []string
		if db.MySQL.Host == "" {
			missing = append(missing, "host")
		}
		if db.MySQL.Username == "" {
			missing = append(missing, "username")
		}
		if db.MySQL.Database == "" {
			missing = append(missing, "database")
		}
		if len(missing) > 0 {
			return fmt.Errorf("mysql settings missing: %s", strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("unsupported database type %q", db.Type)
	}
	return nil
}

func validateAllocation(settings *Settings) error {
	a := settings.Allocation
	if a.MaxVotersPerTable <= 0 {
		return fmt.Errorf("allocation max voters per table must be positive, got %d", a.MaxVotersPerTable)
	}
	if a.SpecialMaxVotersPerTable < a.MaxVotersPerTable {
		return fmt.Errorf("allocation special max voters per table (%d) must not be below the ordinary limit (%d)",
			a.SpecialMaxVotersPerTable, a.MaxVotersPerTable)
	}
	return nil
}

func validateWebServer(settings *Settings) error {
	if !settings.WebServer.Enabled {
		return nil
	}
	port, err := strconv.Atoi(settings.WebServer.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid webserver port: %s", settings.WebServer.Port)
	}
	return nil
}

func validateMQTT(settings *Settings) error {
	m := settings.MQTT
	if !m.Enabled {
		return nil
	}
	if strings.TrimSpace(m.Broker) == "" {
		return fmt.Errorf("mqtt broker is required when mqtt is enabled")
	}
	if strings.TrimSpace(m.Topic) == "" {
		return fmt.Errorf("mqtt topic is required when mqtt is enabled")
	}
	if m.QoS < 0 || m.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", m.QoS)
	}
	return nil
}

func validateNotification(settings *Settings) error {
	n := settings.Notification
	if n.Enabled && len(n.URLs) == 0 {
		return fmt.Errorf("notification urls are required when notifications are enabled")
	}
	return nil
}

func validateSentry(settings *Settings) error {
	s := settings.Sentry
	if !s.Enabled {
		return nil
	}
	if strings.TrimSpace(s.DSN) == "" {
		return fmt.Errorf("sentry dsn is required when sentry is enabled")
	}
	if s.SampleRate < 0 || s.SampleRate > 1 {
		return fmt.Errorf("sentry sample rate must be between 0 and 1, got %g", s.SampleRate)
	}
	return nil
}
