// Package cli implements the jsonmin command line.
package cli

import (
	"github.com/gophersatwork/jsonmin/internal/config"
	"github.com/gophersatwork/jsonmin/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	verbosity  int
	configFile string
}

// NewRootCmd returns the jsonmin root command with all subcommands.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "jsonmin",
		Short: "Minimize the JSON assets of a build",
		Long: `jsonmin re-serializes JSON files compactly (or with a fixed indentation),
optionally keeping only a list of keys, and caches every output so that
unchanged files are never formatted twice.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is ./jsonmin.{toml,yaml,json} if present)")

	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newCacheCmd(flags))

	return rootCmd
}

func (f *globalFlags) load() (*config.Config, error) {
	return config.Load(f.configFile)
}
