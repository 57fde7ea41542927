package conf

import (
	"github.com/dermascan/dermascan-go/internal/errors"
)

// ValidateSettings checks the loaded configuration for defects that would
// make the application misbehave at runtime. Configuration errors abort
// startup rather than surfacing per request.
func ValidateSettings(settings *Settings) error {
	if settings.DermNET.InputSize <= 0 {
		return errors.Newf("dermnet.inputsize must be positive, got %d", settings.DermNET.InputSize).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.DermNET.Threads < 0 {
		return errors.Newf("dermnet.threads must not be negative, got %d", settings.DermNET.Threads).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return errors.NewStd("no database output enabled, enable output.sqlite or output.mysql")
	}

	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return errors.NewStd("only one database output may be enabled at a time")
	}

	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.NewStd("output.sqlite.path must be set when sqlite output is enabled")
	}

	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" || settings.Output.MySQL.Database == "" {
			return errors.NewStd("output.mysql.host and output.mysql.database must be set when mysql output is enabled")
		}
	}

	if settings.WebServer.Enabled && settings.WebServer.Port == "" {
		return errors.NewStd("webserver.port must be set when the web server is enabled")
	}

	return nil
}
