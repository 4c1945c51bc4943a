package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/grnsync/internal/config"
	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/workflow"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Save GRN attachments from Gmail to Drive",
		Long: `Search Gmail for recent messages from the configured sender that match the
search term, and upload their spreadsheet attachments to Drive under
<base folder>/<sender>/<message id>_<file name>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, (*config.Config).ValidateFetch, func(ctx context.Context, r *workflow.Runner) error {
				_, err := r.Fetch(ctx)
				return err
			})
		},
	}
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Append today's Drive spreadsheets to the Google Sheet",
		Long: `List the spreadsheets created today (UTC) in the source Drive folder, parse
each one through the strategy cascade, append the cleaned rows to the sheet
and remove duplicate rows at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, (*config.Config).ValidateIngest, func(ctx context.Context, r *workflow.Runner) error {
				_, err := r.Ingest(ctx)
				return err
			})
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch attachments, then ingest today's files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			validate := func(c *config.Config) error {
				return errors.Join(c.ValidateFetch(), c.ValidateIngest())
			}
			return runWorkflow(cmd, validate, func(ctx context.Context, r *workflow.Runner) error {
				_, err := r.Run(ctx)
				return err
			})
		},
	}
}

// runWorkflow wires a runner for the configured account and hands it to
// run. Progress lines go to stdout, structured logs to stderr.
func runWorkflow(cmd *cobra.Command, validate func(*config.Config) error, run func(context.Context, *workflow.Runner) error) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := validate(a.cfg); err != nil {
		return err
	}

	sink := logging.NewLines(logging.WithWriter(cmd.OutOrStdout()))
	runner, err := a.sc.Runner(ctx, a.cfg.Account, sink)
	if err != nil {
		return err
	}
	return run(ctx, runner)
}
