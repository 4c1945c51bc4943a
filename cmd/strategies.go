package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/grnsync/internal/logging"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the parsing strategies and whether they can run here",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close()

			caps := a.sc.Capabilities()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tSTRATEGY\tSTATUS\tDETAIL")
			for i, name := range a.sc.Cascade(logging.Discard).Strategies() {
				status, detail := "available", caps.Binary(name)
				if !caps.IsAvailable(name) {
					status, detail = "unavailable", caps.Reason(name)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, name, status, detail)
			}
			return w.Flush()
		},
	}
}
