package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/api/option"

	"github.com/teemow/grnsync/internal/config"
	"github.com/teemow/grnsync/internal/consolidate"
	"github.com/teemow/grnsync/internal/drive"
	"github.com/teemow/grnsync/internal/gmail"
	"github.com/teemow/grnsync/internal/google"
	"github.com/teemow/grnsync/internal/ingest"
	"github.com/teemow/grnsync/internal/instrumentation"
	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/sheets"
	"github.com/teemow/grnsync/internal/workflow"
)

// clientSet holds the Google clients of one account. Sheets is nil when no
// spreadsheet is configured.
type clientSet struct {
	mail   *gmail.Client
	drive  *drive.Client
	sheets *sheets.Client
}

// ServerContext holds what the CLI commands and the MCP tools share: the
// loaded configuration, the parsing strategies with their capabilities,
// and Google clients cached per account.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg        *config.Config
	auth       *google.Authenticator
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	strategies []ingest.Strategy
	caps       *ingest.Capabilities
	lookPath   ingest.LookPathFunc
	clientOpts []option.ClientOption

	mu       sync.RWMutex
	clients  map[string]*clientSet
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuthenticator sets the token store used to authorize Google clients.
func WithAuthenticator(a *google.Authenticator) Option {
	return func(sc *ServerContext) { sc.auth = a }
}

// WithLookPath overrides executable discovery for converter strategies.
func WithLookPath(fn ingest.LookPathFunc) Option {
	return func(sc *ServerContext) { sc.lookPath = fn }
}

// WithClientOptions replaces the per-account OAuth client with fixed
// Google API options, such as a test endpoint.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(sc *ServerContext) { sc.clientOpts = opts }
}

// NewServerContext creates a server context. Capabilities are probed once
// here.
func NewServerContext(ctx context.Context, cfg *config.Config, opts ...Option) (*ServerContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  slog.Default(),
		clients: make(map[string]*clientSet),
	}
	for _, opt := range opts {
		opt(sc)
	}

	sc.strategies = ingest.DefaultStrategies(ingest.StrategyOptions{
		ConvertTimeout: cfg.Strategies.ConvertTimeout,
		TempDir:        cfg.Strategies.TempDir,
		PDFCellGap:     cfg.Strategies.PDFCellGap,
	})
	sc.caps = ingest.DetectCapabilities(sc.strategies, cfg.Strategies.Disabled, sc.lookPath)
	for _, name := range sc.caps.Unavailable() {
		sc.logger.Debug("strategy unavailable", logging.Strategy(name), slog.String("reason", sc.caps.Reason(name)))
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the loaded configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// Logger returns the structured logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Authenticator returns the token store, which may be nil.
func (sc *ServerContext) Authenticator() *google.Authenticator {
	return sc.auth
}

// Capabilities returns the strategy availability probed at startup.
func (sc *ServerContext) Capabilities() *ingest.Capabilities {
	return sc.caps
}

// Cascade builds a strategy cascade reporting progress to sink.
func (sc *ServerContext) Cascade(sink logging.Sink) *ingest.Cascade {
	return ingest.NewCascade(sc.strategies,
		ingest.WithCapabilities(sc.caps),
		ingest.WithTimeout(sc.cfg.Strategies.Timeout),
		ingest.WithSink(sink),
		ingest.WithLogger(sc.logger),
		ingest.WithMetrics(sc.metrics),
	)
}

// Runner builds a workflow runner for account that reports to sink.
func (sc *ServerContext) Runner(ctx context.Context, account string, sink logging.Sink) (*workflow.Runner, error) {
	if account == "" {
		account = sc.cfg.Account
	}
	clients, err := sc.clientsFor(ctx, account)
	if err != nil {
		return nil, err
	}

	deps := workflow.Deps{
		Mail:    clients.mail,
		Drive:   clients.drive,
		Cascade: sc.Cascade(sink),
		Sink:    sink,
		Logger:  logging.WithService(sc.logger, "workflow").With(logging.Account(account)),
		Metrics: sc.metrics,
	}
	if clients.sheets != nil {
		deps.Writer = consolidate.NewWriter(clients.sheets, sc.cfg.Sheet.Name,
			consolidate.WithDedupKeys(sc.cfg.Sheet.DedupKeys),
			consolidate.WithLogger(sc.logger),
			consolidate.WithMetrics(sc.metrics),
		)
	}
	return workflow.New(deps, workflow.OptionsFromConfig(sc.cfg)), nil
}

// clientsFor returns the cached clients of account, creating them on
// first use.
func (sc *ServerContext) clientsFor(ctx context.Context, account string) (*clientSet, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}
	if c, ok := sc.clients[account]; ok {
		return c, nil
	}

	opts := sc.clientOpts
	if opts == nil {
		if sc.auth == nil {
			return nil, google.ErrNoCredentials
		}
		if !sc.auth.HasToken(account) {
			return nil, fmt.Errorf("%w: %s", google.ErrNoToken, google.AuthenticationHint(account))
		}
		httpClient, err := sc.auth.HTTPClient(sc.ctx, account)
		if err != nil {
			return nil, err
		}
		opts = []option.ClientOption{option.WithHTTPClient(httpClient)}
	}

	c := &clientSet{}
	var err error
	if c.mail, err = gmail.NewClient(ctx, gmail.Config{Metrics: sc.metrics, Logger: sc.logger}, opts...); err != nil {
		return nil, err
	}
	if c.drive, err = drive.NewClient(ctx, drive.Config{Metrics: sc.metrics, Logger: sc.logger}, opts...); err != nil {
		return nil, err
	}
	if id := sc.cfg.Sheet.SpreadsheetID; id != "" {
		c.sheets, err = sheets.NewClient(ctx, sheets.Config{SpreadsheetID: id, Metrics: sc.metrics, Logger: sc.logger}, opts...)
		if err != nil {
			return nil, err
		}
	}

	sc.clients[account] = c
	return c, nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.clients = make(map[string]*clientSet)
	sc.cancel()
	return nil
}
