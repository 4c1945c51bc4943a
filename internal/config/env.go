package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRNSYNC_"

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

type binding struct {
	key string
	set func(c *Config, v string) error
}

func str(dst func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func list(dst func(c *Config) *[]string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = SplitList(v)
		return nil
	}
}

func integer(dst func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func duration(dst func(c *Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var bindings = []binding{
	{"ACCOUNT", str(func(c *Config) *string { return &c.Account })},
	{"GOOGLE_CLIENT_ID", str(func(c *Config) *string { return &c.Google.ClientID })},
	{"GOOGLE_CLIENT_SECRET", str(func(c *Config) *string { return &c.Google.ClientSecret })},
	{"GOOGLE_CREDENTIALS_FILE", str(func(c *Config) *string { return &c.Google.CredentialsFile })},
	{"GMAIL_SENDER", str(func(c *Config) *string { return &c.Gmail.Sender })},
	{"GMAIL_SEARCH_TERM", str(func(c *Config) *string { return &c.Gmail.SearchTerm })},
	{"GMAIL_DAYS_BACK", integer(func(c *Config) *int { return &c.Gmail.DaysBack })},
	{"GMAIL_MAX_RESULTS", func(c *Config, v string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return err
		}
		c.Gmail.MaxResults = n
		return nil
	}},
	{"GMAIL_INCLUDE_PDF", func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		c.Gmail.IncludePDF = b
		return nil
	}},
	{"DRIVE_PARENT_FOLDER_ID", str(func(c *Config) *string { return &c.Drive.ParentFolderID })},
	{"DRIVE_BASE_FOLDER", str(func(c *Config) *string { return &c.Drive.BaseFolder })},
	{"DRIVE_SOURCE_FOLDER_ID", str(func(c *Config) *string { return &c.Drive.SourceFolderID })},
	{"SHEET_SPREADSHEET_ID", str(func(c *Config) *string { return &c.Sheet.SpreadsheetID })},
	{"SHEET_NAME", str(func(c *Config) *string { return &c.Sheet.Name })},
	{"SHEET_HEADER_ROW", integer(func(c *Config) *int { return &c.Sheet.HeaderRow })},
	{"SHEET_DEDUP_KEYS", list(func(c *Config) *[]string { return &c.Sheet.DedupKeys })},
	{"INGEST_BATCH_SIZE", integer(func(c *Config) *int { return &c.Ingest.BatchSize })},
	{"STRATEGIES_DISABLED", list(func(c *Config) *[]string { return &c.Strategies.Disabled })},
	{"STRATEGIES_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.Strategies.Timeout })},
	{"STRATEGIES_CONVERT_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.Strategies.ConvertTimeout })},
	{"STRATEGIES_TEMP_DIR", str(func(c *Config) *string { return &c.Strategies.TempDir })},
	{"WORKFLOW_DELAY", duration(func(c *Config) *time.Duration { return &c.Workflow.Delay })},
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},
}

// ApplyEnv overrides c with every GRNSYNC_* variable lookup reports. A nil
// lookup reads the process environment. All malformed values are reported
// together.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var errs []error
	for _, b := range bindings {
		v, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.set(c, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, b.key, err))
		}
	}
	return errors.Join(errs...)
}

// EnvKeys lists every recognised environment variable.
func EnvKeys() []string {
	keys := make([]string, len(bindings))
	for i, b := range bindings {
		keys[i] = EnvPrefix + b.key
	}
	return keys
}

// SplitList splits a comma-separated value, dropping blank items.
func SplitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
