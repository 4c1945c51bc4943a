package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "ds-alerts@ninjacart.in", cfg.Gmail.Sender)
	assert.Equal(t, "GRN", cfg.Gmail.SearchTerm)
	assert.Equal(t, 5, cfg.Gmail.DaysBack)
	assert.Equal(t, int64(1000), cfg.Gmail.MaxResults)
	assert.Equal(t, "Gmail_Attachments_Ninjacart", cfg.Drive.BaseFolder)
	assert.Equal(t, "ninjutsu_grn", cfg.Sheet.Name)
	assert.Equal(t, 0, cfg.Sheet.HeaderRow)
	assert.Equal(t, 50, cfg.Ingest.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Strategies.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Workflow.Delay)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
account: work
gmail:
  sender: grn@example.com
  days_back: 2
drive:
  source_folder_id: src-folder
sheet:
  spreadsheet_id: sheet-1
  header_row: -1
  dedup_keys: [A, B]
strategies:
  disabled: [pdf, ssconvert]
  timeout: 10s
workflow:
  delay: 500ms
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "work", cfg.Account)
	assert.Equal(t, "grn@example.com", cfg.Gmail.Sender)
	assert.Equal(t, 2, cfg.Gmail.DaysBack)
	// untouched keys keep their defaults
	assert.Equal(t, "GRN", cfg.Gmail.SearchTerm)
	assert.Equal(t, 50, cfg.Ingest.BatchSize)
	assert.Equal(t, -1, cfg.Sheet.HeaderRow)
	assert.Equal(t, []string{"A", "B"}, cfg.Sheet.DedupKeys)
	assert.Equal(t, []string{"pdf", "ssconvert"}, cfg.Strategies.Disabled)
	assert.Equal(t, 10*time.Second, cfg.Strategies.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Workflow.Delay)
	assert.NoError(t, cfg.ValidateIngest())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gmail: [unclosed"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoad_DefaultPathMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Sheet.SpreadsheetID = "abc"
	cfg.Strategies.Timeout = 45 * time.Second
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GRNSYNC_GMAIL_SENDER":           "other@example.com",
		"GRNSYNC_GMAIL_INCLUDE_PDF":      "true",
		"GRNSYNC_GMAIL_MAX_RESULTS":      "20",
		"GRNSYNC_SHEET_DEDUP_KEYS":       " PO , , Sku ",
		"GRNSYNC_STRATEGIES_DISABLED":    "desktop",
		"GRNSYNC_WORKFLOW_DELAY":         "0s",
		"GRNSYNC_DRIVE_SOURCE_FOLDER_ID": "src",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "other@example.com", cfg.Gmail.Sender)
	assert.True(t, cfg.Gmail.IncludePDF)
	assert.Equal(t, int64(20), cfg.Gmail.MaxResults)
	assert.Equal(t, []string{"PO", "Sku"}, cfg.Sheet.DedupKeys)
	assert.Equal(t, []string{"desktop"}, cfg.Strategies.Disabled)
	assert.Zero(t, cfg.Workflow.Delay)
	assert.Equal(t, "src", cfg.Drive.SourceFolderID)
}

func TestApplyEnv_Malformed(t *testing.T) {
	env := map[string]string{
		"GRNSYNC_GMAIL_DAYS_BACK":    "five",
		"GRNSYNC_STRATEGIES_TIMEOUT": "soon",
	}
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRNSYNC_GMAIL_DAYS_BACK")
	assert.Contains(t, err.Error(), "GRNSYNC_STRATEGIES_TIMEOUT")
	assert.Equal(t, 5, cfg.Gmail.DaysBack)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GRNSYNC_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GRNSYNC_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "absent.env")))
	assert.Equal(t, "from-file", os.Getenv("GRNSYNC_TEST_DOTENV"))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Ingest.BatchSize = 0
	cfg.Sheet.HeaderRow = -2
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "header_row")
	assert.Contains(t, err.Error(), "log.format")

	err = Default().ValidateIngest()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source_folder_id")
	assert.Contains(t, err.Error(), "spreadsheet_id")

	assert.NoError(t, Default().ValidateFetch())
}

func TestEnvKeys(t *testing.T) {
	keys := EnvKeys()
	assert.Contains(t, keys, "GRNSYNC_SHEET_SPREADSHEET_ID")
	assert.Len(t, keys, len(bindings))
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Google.ClientSecret = "s3cret"

	red := cfg.Redacted()
	assert.Equal(t, "********", red.Google.ClientSecret)
	assert.Equal(t, "s3cret", cfg.Google.ClientSecret)
	assert.Empty(t, Default().Redacted().Google.ClientSecret)
}
