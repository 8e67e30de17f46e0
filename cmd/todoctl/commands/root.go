package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the todoctl command tree
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "todoctl",
		Short:         "Todo list with a cat that grows as you finish things",
		Long:          "Manage a local todo list. Completing todos earns XP for your cat, which grows through four stages.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default: $TODOPET_CONFIG or the user config dir)")
	flags.StringVar(&opts.backend, "backend", "", "Storage backend: sqlite, postgres, redis, file or memory")
	flags.StringVar(&opts.path, "path", "", "sqlite database file or file-backend directory")
	flags.StringVar(&opts.url, "url", "", "postgres or redis connection URL")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(NewAddCmd(opts))
	rootCmd.AddCommand(NewListCmd(opts))
	rootCmd.AddCommand(NewUpdateCmd(opts))
	rootCmd.AddCommand(NewToggleCmd(opts))
	rootCmd.AddCommand(NewDeleteCmd(opts))
	rootCmd.AddCommand(NewClearCompletedCmd(opts))
	rootCmd.AddCommand(NewStatsCmd(opts))
	rootCmd.AddCommand(NewPetCmd(opts))
	rootCmd.AddCommand(NewStorageCmd(opts))

	return rootCmd
}
