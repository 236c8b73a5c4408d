package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/salespipe/salespipe/internal/config"
	"github.com/salespipe/salespipe/internal/logging"
	"github.com/salespipe/salespipe/internal/pipeline"
)

type runFlags struct {
	output         string
	dimensions     []string
	formats        []string
	discountPolicy string
	archive        bool
}

func newRunCommand(configPath *string) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [input]",
		Short: "Run the pipeline on a file, or on every file in the inbox",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Open(*configPath)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}

			logger := logging.New(cfg.Logging, cmd.ErrOrStderr())
			p := pipeline.New(cfg, logger)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				input, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolving input: %w", err)
				}
				res, err := p.Run(cmd.Context(), input)
				if err != nil {
					return err
				}
				printResult(out, cfg, res)
				return nil
			}

			results, err := p.RunInbox(cmd.Context(), f.archive)
			for _, res := range results {
				printResult(out, cfg, res)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory (overrides output.dir)")
	cmd.Flags().StringSliceVarP(&f.dimensions, "dimension", "d", nil, "summary dimension, repeatable (overrides output.dimensions)")
	cmd.Flags().StringSliceVarP(&f.formats, "format", "f", nil, "output format csv, xlsx or sqlite, repeatable (overrides output.formats)")
	cmd.Flags().StringVar(&f.discountPolicy, "discount-policy", "", "clamp or drop out-of-range discounts")
	cmd.Flags().BoolVar(&f.archive, "archive", false, "move processed inbox files to processed/")

	return cmd
}

// apply copies explicitly set flags onto cfg and revalidates it.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		abs, err := filepath.Abs(f.output)
		if err != nil {
			return fmt.Errorf("resolving output: %w", err)
		}
		cfg.Output.Dir = abs
	}
	if flags.Changed("dimension") {
		cfg.Output.Dimensions = f.dimensions
	}
	if flags.Changed("format") {
		cfg.Output.Formats = f.formats
	}
	if flags.Changed("discount-policy") {
		cfg.Cleaning.DiscountPolicy = f.discountPolicy
	}
	return config.Validate(cfg)
}

func printResult(w io.Writer, cfg *config.Config, res *pipeline.Result) {
	r := res.Report
	fmt.Fprintf(w, "Processed %s (run %s)\n", filepath.Base(res.Input), res.RunID)
	fmt.Fprintf(w, "  rows: %d read, %d written, %d dropped\n", r.RowsIn, len(res.Records), r.Dropped())
	fmt.Fprintf(w, "  revenue %s, profit %s, margin %s\n",
		res.Overall.Revenue.StringFixed(2), res.Overall.Profit.StringFixed(2), res.Overall.ProfitMargin().StringFixed(4))

	if r.Dropped() > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		by := r.DroppedBy()
		for _, reason := range r.Reasons() {
			fmt.Fprintf(tw, "  dropped\t%s\t%d\n", reason, by[reason])
		}
		tw.Flush()
	}
	for _, path := range res.Outputs {
		fmt.Fprintf(w, "  wrote %s\n", relTo(cfg.Root, path))
	}
	if res.CommitHash != "" {
		fmt.Fprintf(w, "  committed %s\n", res.CommitHash)
	}
}

func relTo(root, path string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
