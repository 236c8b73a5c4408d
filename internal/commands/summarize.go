package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/salespipe/salespipe/internal/aggregator"
	"github.com/salespipe/salespipe/internal/dataset"
	"github.com/salespipe/salespipe/internal/model"
)

func newSummarizeCommand() *cobra.Command {
	var by string
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "summarize <cleaned.csv>",
		Short: "Aggregate an exported cleaned_sales.csv by a dimension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dim, err := aggregator.ParseDimension(by)
			if err != nil {
				return err
			}
			records, err := dataset.ReadFile(args[0])
			if err != nil {
				return err
			}

			groups := aggregator.GroupBy(records, dim)
			if asCSV {
				return dataset.WriteSummaries(cmd.OutOrStdout(), string(dim), groups)
			}
			printSummaries(cmd.OutOrStdout(), string(dim), groups, aggregator.Overall(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", string(aggregator.Region), "dimension to group by")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print CSV instead of a table")

	return cmd
}

func printSummaries(w io.Writer, dim string, groups []model.Summary, overall model.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\ttransactions\tunits\trevenue\tprofit\tmargin\taov\tloss\t\n", dim)
	row := func(key string, s model.Summary) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%d\t\n",
			key, s.Transactions, s.UnitsSold,
			s.Revenue.StringFixed(2), s.Profit.StringFixed(2), s.ProfitMargin().StringFixed(4),
			s.AOV.StringFixed(2), s.LossTransactions)
	}
	for _, g := range groups {
		key := g.Key
		if key == "" {
			key = "(none)"
		}
		row(key, g)
	}
	row("TOTAL", overall)
	tw.Flush()
}
