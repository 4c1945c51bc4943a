package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/teemow/grnsync/internal/config"
	"github.com/teemow/grnsync/internal/google"
	"github.com/teemow/grnsync/internal/ingest"
	"github.com/teemow/grnsync/internal/logging"
)

func noBinaries(string) (string, error) { return "", errors.New("not found") }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Drive.SourceFolderID = "src"
	cfg.Sheet.SpreadsheetID = "sheet-1"
	return cfg
}

func newTestContext(t *testing.T, cfg *config.Config, opts ...Option) *ServerContext {
	t.Helper()
	opts = append([]Option{WithLookPath(noBinaries), WithLogger(logging.New(io.Discard, "error", "text"))}, opts...)
	sc, err := NewServerContext(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_RequiresConfig(t *testing.T) {
	_, err := NewServerContext(context.Background(), nil)
	assert.Error(t, err)
}

func TestServerContext_Capabilities(t *testing.T) {
	cfg := testConfig()
	cfg.Strategies.Disabled = []string{"pdf"}
	sc := newTestContext(t, cfg)

	caps := sc.Capabilities()
	assert.Equal(t, []string{ingest.StrategyDesktop, ingest.StrategyLibreOffice, ingest.StrategyPDF, ingest.StrategySSConvert}, caps.Unavailable())
	assert.Equal(t, "disabled by configuration", caps.Reason(ingest.StrategyPDF))
	assert.True(t, caps.IsAvailable(ingest.StrategyExcelize))

	cascade := sc.Cascade(logging.Discard)
	assert.Equal(t, []string{
		ingest.StrategyExcelize, ingest.StrategyXLS, ingest.StrategyXLSXAlt, ingest.StrategyPDF,
		ingest.StrategyDesktop, ingest.StrategyRaw, ingest.StrategyLibreOffice, ingest.StrategySSConvert,
	}, cascade.Strategies())
	assert.Same(t, caps, cascade.Capabilities())
}

func TestServerContext_Runner_NoCredentials(t *testing.T) {
	sc := newTestContext(t, testConfig())

	_, err := sc.Runner(context.Background(), "", logging.Discard)
	assert.ErrorIs(t, err, google.ErrNoCredentials)
}

func TestServerContext_Runner_NoToken(t *testing.T) {
	auth, err := google.NewAuthenticator(google.Credentials{ClientID: "id", ClientSecret: "secret"},
		google.WithCacheDir(t.TempDir()))
	require.NoError(t, err)
	sc := newTestContext(t, testConfig(), WithAuthenticator(auth))

	_, err = sc.Runner(context.Background(), "work", logging.Discard)
	require.ErrorIs(t, err, google.ErrNoToken)
	assert.Contains(t, err.Error(), "work")
}

func TestServerContext_Runner_IngestAgainstFakeDrive(t *testing.T) {
	var listCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files") {
			listCalls.Add(1)
			assert.Contains(t, r.URL.Query().Get("q"), "'src' in parents")
			_ = json.NewEncoder(w).Encode(map[string]any{"files": []any{}})
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	sc := newTestContext(t, testConfig(),
		WithClientOptions(option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication()))

	sink := logging.NewLines()
	runner, err := sc.Runner(context.Background(), "", sink)
	require.NoError(t, err)

	report, err := runner.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Found)
	assert.Equal(t, int32(1), listCalls.Load())
	assert.NotEmpty(t, sink.Lines())

	again, err := sc.Runner(context.Background(), sc.Config().Account, sink)
	require.NoError(t, err)
	assert.NotNil(t, again)
	assert.Len(t, sc.clients, 1, "clients are cached per account")
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestContext(t, testConfig(), WithClientOptions(option.WithoutAuthentication()))

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	_, err := sc.Runner(context.Background(), "", logging.Discard)
	assert.ErrorContains(t, err, "shutting down")
}
