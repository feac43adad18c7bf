package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// appLoader builds the application for a command invocation.
type appLoader func(opts globalOptions) (*app, error)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	language   string
}

// newRootCmd builds the command tree. load is called lazily by the commands
// that need providers.
func newRootCmd(load appLoader) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "metamerge",
		Short: "Merge movie and TV metadata from several providers",
		Long: `metamerge queries TMDB, TVDB, OMDb and the tags of local media files, and merges
their answers into one record. Which provider fills which field is set per field in the
configuration file, with a shared fallback chain for fields the primary leaves empty.

Identifiers are shared between providers: when only an IMDb id is known, the bridge
provider resolves the TMDB id (and the other way round) before the fan-out.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the config file (default ~/.metamerge/config.json)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&opts.language, "language", "", "Preferred metadata language, e.g. en-US")

	rootCmd.AddCommand(
		newSearchCmd(opts, load),
		newGetCmd(opts, load),
		newEpisodesCmd(opts, load),
		newProvidersCmd(opts, load),
		newConfigCmd(opts),
	)

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd(newApp).ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}
