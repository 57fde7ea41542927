package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.DermNET.InputSize = 224
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "dermascan.db"
	s.WebServer.Enabled = true
	s.WebServer.Port = "8090"
	return s
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejectsBadInputSize(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.DermNET.InputSize = 0
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRequiresDatabase(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Output.SQLite.Enabled = false
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsDualDatabase(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Output.MySQL.Enabled = true
	s.Output.MySQL.Host = "localhost"
	s.Output.MySQL.Database = "dermascan"
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRequiresMySQLHost(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Output.SQLite.Enabled = false
	s.Output.MySQL.Enabled = true
	assert.Error(t, ValidateSettings(s))
}
