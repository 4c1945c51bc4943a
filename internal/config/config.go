// Package config loads grnsync settings from a YAML file, a .env file and
// GRNSYNC_* environment variables, in that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all grnsync settings.
type Config struct {
	// Account selects the stored Google token.
	Account    string           `yaml:"account"`
	Google     GoogleConfig     `yaml:"google"`
	Gmail      GmailConfig      `yaml:"gmail"`
	Drive      DriveConfig      `yaml:"drive"`
	Sheet      SheetConfig      `yaml:"sheet"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Strategies StrategiesConfig `yaml:"strategies"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Log        LogConfig        `yaml:"log"`
}

// GoogleConfig identifies the OAuth client.
type GoogleConfig struct {
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	CredentialsFile string `yaml:"credentials_file"`
}

// GmailConfig selects the messages to fetch.
type GmailConfig struct {
	Sender string `yaml:"sender"`
	// SearchTerm is one keyword or a comma-separated list.
	SearchTerm string `yaml:"search_term"`
	DaysBack   int    `yaml:"days_back"`
	MaxResults int64  `yaml:"max_results"`
	IncludePDF bool   `yaml:"include_pdf"`
}

// DriveConfig names the Drive folders.
type DriveConfig struct {
	// ParentFolderID holds the attachment folder tree.
	ParentFolderID string `yaml:"parent_folder_id"`
	BaseFolder     string `yaml:"base_folder"`
	// SourceFolderID is scanned for today's spreadsheets.
	SourceFolderID string `yaml:"source_folder_id"`
}

// SheetConfig names the destination sheet.
type SheetConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	Name          string `yaml:"name"`
	// HeaderRow is the 0-based header row of source files; -1 means none.
	HeaderRow int      `yaml:"header_row"`
	DedupKeys []string `yaml:"dedup_keys"`
}

// IngestConfig tunes the ingest loop.
type IngestConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// StrategiesConfig tunes the parsing cascade.
type StrategiesConfig struct {
	Disabled       []string      `yaml:"disabled,omitempty"`
	Timeout        time.Duration `yaml:"timeout"`
	ConvertTimeout time.Duration `yaml:"convert_timeout"`
	TempDir        string        `yaml:"temp_dir"`
	PDFCellGap     float64       `yaml:"pdf_cell_gap"`
}

// WorkflowConfig tunes the combined run.
type WorkflowConfig struct {
	// Delay separates the fetch and ingest phases.
	Delay time.Duration `yaml:"delay"`
}

// LogConfig selects the log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Account: "default",
		Gmail: GmailConfig{
			Sender:     "ds-alerts@ninjacart.in",
			SearchTerm: "GRN",
			DaysBack:   5,
			MaxResults: 1000,
		},
		Drive: DriveConfig{
			BaseFolder: "Gmail_Attachments_Ninjacart",
		},
		Sheet: SheetConfig{
			Name:      "ninjutsu_grn",
			HeaderRow: 0,
			DedupKeys: []string{"PurchaseOrderId", "SkuId"},
		},
		Ingest: IngestConfig{BatchSize: 50},
		Strategies: StrategiesConfig{
			Timeout:        30 * time.Second,
			ConvertTimeout: 30 * time.Second,
			PDFCellGap:     1,
		},
		Workflow: WorkflowConfig{Delay: 2 * time.Second},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Redacted returns a copy of c with the OAuth client secret masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Google.ClientSecret != "" {
		out.Google.ClientSecret = "********"
	}
	return &out
}

// DefaultPath is ~/.config/grnsync/config.yaml, honouring XDG_CONFIG_HOME.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "grnsync", "config.yaml")
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path reads DefaultPath and tolerates its absence; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks settings every command relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Account == "" {
		errs = append(errs, errors.New("account must not be empty"))
	}
	if c.Gmail.DaysBack < 0 {
		errs = append(errs, fmt.Errorf("gmail.days_back must be >= 0, got %d", c.Gmail.DaysBack))
	}
	if c.Gmail.MaxResults < 0 {
		errs = append(errs, fmt.Errorf("gmail.max_results must be >= 0, got %d", c.Gmail.MaxResults))
	}
	if c.Sheet.HeaderRow < -1 {
		errs = append(errs, fmt.Errorf("sheet.header_row must be -1 or a row index, got %d", c.Sheet.HeaderRow))
	}
	if c.Ingest.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.batch_size must be positive, got %d", c.Ingest.BatchSize))
	}
	if c.Strategies.Timeout < 0 || c.Strategies.ConvertTimeout < 0 {
		errs = append(errs, errors.New("strategy timeouts must not be negative"))
	}
	if c.Workflow.Delay < 0 {
		errs = append(errs, errors.New("workflow.delay must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ValidateFetch checks the settings the fetch phase needs.
func (c *Config) ValidateFetch() error {
	var errs []error
	if c.Drive.BaseFolder == "" {
		errs = append(errs, errors.New("drive.base_folder is required"))
	}
	return errors.Join(append(errs, c.Validate())...)
}

// ValidateIngest checks the settings the ingest phase needs.
func (c *Config) ValidateIngest() error {
	var errs []error
	if c.Drive.SourceFolderID == "" {
		errs = append(errs, errors.New("drive.source_folder_id is required"))
	}
	if c.Sheet.SpreadsheetID == "" {
		errs = append(errs, errors.New("sheet.spreadsheet_id is required"))
	}
	if c.Sheet.Name == "" {
		errs = append(errs, errors.New("sheet.name is required"))
	}
	return errors.Join(append(errs, c.Validate())...)
}
