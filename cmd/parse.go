package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/table"
	"github.com/teemow/grnsync/internal/workflow"
)

func newParseCmd() *cobra.Command {
	var (
		headerRow  int
		noHeader   bool
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Parse local files and print the cleaned table as CSV",
		Long: `Run local files through the same strategy cascade and post-processing as
the ingest phase and print each cleaned table as CSV. Progress and the
diagnosis of unparseable files go to stderr.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("header-row") {
				headerRow = a.cfg.Sheet.HeaderRow
			}
			policy := table.Row(headerRow)
			if noHeader || headerRow < 0 {
				policy = table.None()
			}

			var out io.Writer = cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			stderr := cmd.ErrOrStderr()
			cascade := a.sc.Cascade(logging.NewLines(logging.WithWriter(stderr)))
			failed := 0
			for _, path := range args {
				report, err := workflow.ParseFile(cmd.Context(), cascade, path, policy)
				if err != nil {
					fmt.Fprintf(stderr, "%v\n", err)
					failed++
					continue
				}
				if !report.Result.OK() {
					fmt.Fprintf(stderr, "%s: %v (%s)\n", path, workflow.ErrUnparseable, report.Result.Diagnosis)
					failed++
					continue
				}
				fmt.Fprintf(stderr, "%s: %d rows via %s (%d duplicates, %d rows without key removed)\n",
					path, len(report.Cleaned.Rows), report.Result.Strategy, report.Stats.Duplicates, report.Stats.BlankKeyRows)
				if err := workflow.WriteCSV(out, report.Cleaned); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be parsed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&headerRow, "header-row", 0, "Zero-based header row (default: sheet.header_row from config)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Use synthetic column names instead of a header row")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
