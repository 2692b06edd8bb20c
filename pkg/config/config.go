package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"camionetas/pkg/registro"

	"github.com/pelletier/go-toml/v2"
)

const (
	BackendSheets = "sheets"
	BackendXLSX   = "xlsx"
	BackendSQLite = "sqlite"
)

type ServerConfig struct {
	ListenAddress string `toml:"listen_address"`
	Timezone      string `toml:"timezone"`
	Title         string `toml:"title"`
	// LogoPath is an optional banner image shown above the form.
	LogoPath string `toml:"logo_path"`
}

type SheetsConfig struct {
	SpreadsheetID     string `toml:"spreadsheet_id"`
	SheetName         string `toml:"sheet_name"`
	CredentialsFile   string `toml:"credentials_file"`
	CredentialsJSON   string `toml:"credentials_json,omitempty"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

type StorageConfig struct {
	Backend    string       `toml:"backend"`
	XLSXPath   string       `toml:"xlsx_path"`
	SQLitePath string       `toml:"sqlite_path"`
	Sheets     SheetsConfig `toml:"sheets"`
}

type FormConfig struct {
	SiteLabel      string   `toml:"site_label"`
	ProjectEnabled bool     `toml:"project_enabled"`
	MinDate        string   `toml:"min_date"`
	Gestores       []string `toml:"gestores"`
	Patentes       []string `toml:"patentes"`
}

type ExportConfig struct {
	// Password is compared as plain text. PasswordHash, when set, is a bcrypt
	// hash and takes precedence.
	Password     string `toml:"password"`
	PasswordHash string `toml:"password_hash"`
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Form    FormConfig    `toml:"form"`
	Export  ExportConfig  `toml:"export"`
}

type datastore struct {
	Filename string
	Store    Config
}

// Default reproduces the hosted spreadsheet variant.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddress: ":8080",
			Timezone:      "America/Santiago",
			Title:         "Registro uso camionetas - SAC",
		},
		Storage: StorageConfig{
			Backend:    BackendSheets,
			XLSXPath:   "uso_camionetas.xlsx",
			SQLitePath: "camionetas.sqlite3",
			Sheets: SheetsConfig{
				RequestsPerMinute: 60,
			},
		},
		Form: FormConfig{
			SiteLabel: registro.SiteLabelSubtel,
			MinDate:   registro.DefaultMinDate.Format(registro.DateLayout),
			Gestores:  append([]string(nil), registro.DefaultGestores...),
			Patentes:  append([]string(nil), registro.DefaultPatentes...),
		},
		Export: ExportConfig{
			Password: "mlq2025",
		},
	}
}

// Write the current config out to a toml file.
func (c *datastore) Save() error {
	b, err := toml.Marshal(c.Store)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.Filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(c.Filename, b, 0o600)
}

// Load the current config from a toml file.
func (c *datastore) Load() error {
	b, err := os.ReadFile(c.Filename)
	if err != nil {
		return err
	}
	return toml.Unmarshal(b, &c.Store)
}

// Load reads filename over the defaults, writing the defaults out when the
// file does not exist yet, then applies environment overrides.
func Load(filename string) (*Config, error) {
	c := &datastore{
		Filename: filename,
		Store:    Default(),
	}
	if filename != "" {
		if err := c.Load(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", filename, err)
			}
			if err := c.Save(); err != nil {
				return nil, fmt.Errorf("writing default config %s: %w", filename, err)
			}
		}
	}
	cfg := c.Store
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.ListenAddress, "LISTEN_ADDRESS")
	set(&c.Storage.Backend, "STORAGE_BACKEND")
	set(&c.Storage.XLSXPath, "XLSX_PATH")
	set(&c.Storage.SQLitePath, "SQLITE_PATH")
	set(&c.Storage.Sheets.SpreadsheetID, "SPREADSHEET_ID")
	set(&c.Storage.Sheets.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	set(&c.Storage.Sheets.CredentialsJSON, "GOOGLE_SHEETS_JSON")
	set(&c.Export.Password, "EXPORT_PASSWORD")
	set(&c.Export.PasswordHash, "EXPORT_PASSWORD_HASH")
	if v := getenv("PROJECT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Form.ProjectEnabled = b
		}
	}
}

func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendSheets:
		if c.Storage.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("storage.sheets.spreadsheet_id is required for the %s backend", BackendSheets)
		}
	case BackendXLSX:
		if c.Storage.XLSXPath == "" {
			return fmt.Errorf("storage.xlsx_path is required for the %s backend", BackendXLSX)
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the %s backend", BackendSQLite)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Form.SiteLabel {
	case "":
		c.Form.SiteLabel = registro.SiteLabelSubtel
	case registro.SiteLabelSubtel, registro.SiteLabelSitio:
	default:
		return fmt.Errorf("form.site_label must be %q or %q", registro.SiteLabelSubtel, registro.SiteLabelSitio)
	}
	if _, err := c.MinDate(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if len(c.Form.Gestores) == 0 || len(c.Form.Patentes) == 0 {
		return fmt.Errorf("form.gestores and form.patentes must not be empty")
	}
	if c.Export.Password == "" && c.Export.PasswordHash == "" {
		return fmt.Errorf("export.password or export.password_hash is required")
	}
	return nil
}

func (c *Config) Layout() registro.Layout {
	return registro.Layout{
		SiteLabel:      c.Form.SiteLabel,
		ProjectEnabled: c.Form.ProjectEnabled,
	}
}

func (c *Config) MinDate() (time.Time, error) {
	if c.Form.MinDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(registro.DateLayout, c.Form.MinDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("form.min_date: %w", err)
	}
	return t, nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("server.timezone: %w", err)
	}
	return loc, nil
}

// Rules builds the form validation rules. Validate must have passed.
func (c *Config) Rules() registro.Rules {
	minDate, _ := c.MinDate()
	return registro.Rules{
		Roster: registro.Roster{
			Gestores: c.Form.Gestores,
			Patentes: c.Form.Patentes,
		},
		Layout:  c.Layout(),
		MinDate: minDate,
	}
}
