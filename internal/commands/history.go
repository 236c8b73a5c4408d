package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/salespipe/salespipe/internal/config"
	"github.com/salespipe/salespipe/internal/runlog"
)

func newHistoryCommand(configPath *string) *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Open(*configPath)
			if err != nil {
				return err
			}
			entries, err := runlog.Read(cfg.Path(cfg.Output.RunLog))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tRUN\tSTATUS\tINPUT\tREAD\tWRITTEN\tDROPPED\tREVENUE\tDURATION")
			for _, e := range runlog.Last(entries, last) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
					e.Timestamp.Local().Format(time.DateTime), shortID(e.RunID), e.Status, e.Input,
					e.RowsRead, e.RowsWritten, e.RowsDropped, e.Revenue.StringFixed(2), e.Duration)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&last, "last", "n", 10, "number of runs to show (0 for all)")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
