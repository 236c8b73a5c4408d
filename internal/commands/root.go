package commands

import (
	"github.com/spf13/cobra"

	"github.com/salespipe/salespipe/internal/buildinfo"
	"github.com/salespipe/salespipe/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "salespipe",
		Short:   "Clean, enrich and summarize retail sales exports",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "project config file")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand(&configPath))
	rootCmd.AddCommand(newSummarizeCommand())
	rootCmd.AddCommand(newHistoryCommand(&configPath))

	return rootCmd
}
