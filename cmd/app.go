package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/grnsync/internal/config"
	"github.com/teemow/grnsync/internal/google"
	"github.com/teemow/grnsync/internal/instrumentation"
	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/server"
)

// loadConfig layers the config file, dotenv files, GRNSYNC_* variables and
// the global flags, then validates the result.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(flags.envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}

	if flags.account != "" {
		cfg.Account = flags.account
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// app bundles what a command needs: configuration, logger, telemetry and
// the shared server context.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	sc       *server.ServerContext
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	opts := []server.Option{server.WithLogger(logger)}
	if provider.Enabled() {
		opts = append(opts, server.WithMetrics(provider.Metrics()))
	}

	auth, err := google.NewAuthenticator(google.Credentials{
		ClientID:        cfg.Google.ClientID,
		ClientSecret:    cfg.Google.ClientSecret,
		CredentialsFile: cfg.Google.CredentialsFile,
	})
	switch {
	case errors.Is(err, google.ErrNoCredentials):
		logger.Debug("no Google OAuth client configured")
	case err != nil:
		_ = provider.Shutdown(ctx)
		return nil, err
	default:
		opts = append(opts, server.WithAuthenticator(auth))
	}

	sc, err := server.NewServerContext(ctx, cfg, opts...)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, provider: provider, sc: sc}, nil
}

// close shuts the server context down and flushes telemetry, writing the
// metrics textfile when METRICS_TEXTFILE is set.
func (a *app) close() {
	if err := a.sc.Shutdown(); err != nil {
		a.logger.Warn("server context shutdown failed", logging.Err(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
}
