package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"camionetas/pkg/registro"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camionetas.toml")
	t.Setenv("SPREADSHEET_ID", "abc123")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSheets, cfg.Storage.Backend)
	assert.Equal(t, "abc123", cfg.Storage.Sheets.SpreadsheetID)
	assert.Equal(t, "mlq2025", cfg.Export.Password)
	assert.Len(t, cfg.Form.Gestores, 10)
	assert.Len(t, cfg.Form.Patentes, 9)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camionetas.toml")
	body := `
[storage]
backend = "xlsx"
xlsx_path = "registros.xlsx"

[form]
site_label = "Sitio"
project_enabled = true
min_date = "2025-07-01"
patentes = ["PBFW28"]

[export]
password = "otra"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendXLSX, cfg.Storage.Backend)
	assert.Equal(t, "registros.xlsx", cfg.Storage.XLSXPath)
	assert.Equal(t, []string{"PBFW28"}, cfg.Form.Patentes)
	// untouched keys keep their defaults
	assert.Len(t, cfg.Form.Gestores, 10)

	layout := cfg.Layout()
	assert.Equal(t, registro.SiteLabelSitio, layout.SiteLabel)
	assert.True(t, layout.ProjectEnabled)

	rules := cfg.Rules()
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), rules.MinDate)
	assert.True(t, rules.Roster.HasPatente("PBFW28"))
	assert.False(t, rules.Roster.HasPatente("PTFP12"))
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"STORAGE_BACKEND": "SQLite",
		"EXPORT_PASSWORD": "secreto",
		"PROJECT_ENABLED": "true",
		"LISTEN_ADDRESS":  ":9000",
	}
	cfg.applyEnv(func(k string) string { return env[k] })
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "secreto", cfg.Export.Password)
	assert.True(t, cfg.Form.ProjectEnabled)
	assert.Equal(t, ":9000", cfg.Server.ListenAddress)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{"sheets without id", func(c *Config) {}, false},
		{"sheets with id", func(c *Config) { c.Storage.Sheets.SpreadsheetID = "x" }, true},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }, false},
		{"bad site label", func(c *Config) { c.Storage.Backend = BackendXLSX; c.Form.SiteLabel = "Lugar" }, false},
		{"bad min date", func(c *Config) { c.Storage.Backend = BackendXLSX; c.Form.MinDate = "01/06/2025" }, false},
		{"bad timezone", func(c *Config) { c.Storage.Backend = BackendXLSX; c.Server.Timezone = "Mars/Olympus" }, false},
		{"no password", func(c *Config) { c.Storage.Backend = BackendXLSX; c.Export.Password = "" }, false},
		{"hash only", func(c *Config) {
			c.Storage.Backend = BackendXLSX
			c.Export.Password = ""
			c.Export.PasswordHash = "$2a$10$abc"
		}, true},
		{"empty roster", func(c *Config) { c.Storage.Backend = BackendXLSX; c.Form.Gestores = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
