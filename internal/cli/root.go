// Package cli builds deplink's cobra command tree.
package cli

import (
	stderrors "errors"

	"github.com/arthur-debert/deplink/internal/version"
	"github.com/arthur-debert/deplink/pkg/config"
	"github.com/arthur-debert/deplink/pkg/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	verbosity  int
	root       string
	configFile string
	format     string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "deplink",
		Short: MsgRootShort,
		Long:  MsgRootLong,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLoggerWithOutput(opts.verbosity, cmd.ErrOrStderr())
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.SetVersionTemplate("deplink {{.Version}}\n")
	rootCmd.Version = version.String()

	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVarP(&opts.root, "root", "r", "", MsgFlagRoot)
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config-file", "", MsgFlagConfigFile)
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "", MsgFlagFormat)

	rootCmd.AddGroup(
		&cobra.Group{ID: "deps", Title: "Dependency Commands:"},
		&cobra.Group{ID: "misc", Title: "Other Commands:"},
	)

	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newCopyCmd(opts))
	rootCmd.AddCommand(newLinkCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig builds the effective configuration for a command. Overrides
// hold the flags the user actually set.
func (o *globalOptions) loadConfig(overrides map[string]interface{}) (*config.Config, error) {
	if overrides == nil {
		overrides = make(map[string]interface{})
	}
	if o.format != "" {
		overrides["output.format"] = o.format
	}
	return config.Load(config.LoadOptions{
		Root:       o.root,
		ConfigFile: o.configFile,
		Overrides:  overrides,
	})
}

// reportedError marks a failure whose details were already rendered
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// IsReported reports whether err was already shown to the user, so the
// caller only needs to set the exit code
func IsReported(err error) bool {
	var reported reportedError
	return stderrors.As(err, &reported)
}
