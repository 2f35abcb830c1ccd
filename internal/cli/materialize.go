package cli

import (
	"fmt"
	"time"

	"github.com/arthur-debert/deplink/pkg/config"
	"github.com/arthur-debert/deplink/pkg/deplink"
	"github.com/arthur-debert/deplink/pkg/logging"
	"github.com/arthur-debert/deplink/pkg/types"
	"github.com/arthur-debert/deplink/pkg/ui/view"
	"github.com/spf13/cobra"
)

// materializeFlags are shared by copy and link
type materializeFlags struct {
	prune   bool
	jobs    int
	timeout time.Duration
}

func (f *materializeFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.prune, "prune", true, MsgFlagPrune)
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, MsgFlagJobs)
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, MsgFlagTimeout)
}

// overrides returns the config keys for the flags the user set
func (f *materializeFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	overrides := make(map[string]interface{})
	if cmd.Flags().Changed("prune") {
		overrides["materialize.prune"] = f.prune
	}
	if cmd.Flags().Changed("jobs") {
		overrides["materialize.concurrency"] = f.jobs
	}
	if cmd.Flags().Changed("timeout") {
		overrides["materialize.timeout"] = f.timeout.String()
	}
	return overrides
}

func newCopyCmd(opts *globalOptions) *cobra.Command {
	var (
		flags     materializeFlags
		wholeTree bool
	)

	cmd := &cobra.Command{
		Use:     "copy [destination]",
		Short:   MsgCopyShort,
		Long:    MsgCopyLong,
		Example: MsgCopyExample,
		GroupID: "deps",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.overrides(cmd)
			overrides["materialize.mode"] = string(types.ModeCopy)
			if cmd.Flags().Changed("whole-tree") {
				overrides["materialize.whole_tree"] = wholeTree
			}
			return runMaterialize(cmd, opts, overrides, args)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&wholeTree, "whole-tree", false, MsgFlagWholeTree)
	return cmd
}

func newLinkCmd(opts *globalOptions) *cobra.Command {
	var (
		flags materializeFlags
		kind  string
	)

	cmd := &cobra.Command{
		Use:     "link [destination]",
		Short:   MsgLinkShort,
		Long:    MsgLinkLong,
		Example: MsgLinkExample,
		GroupID: "deps",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.overrides(cmd)
			overrides["materialize.mode"] = string(types.ModeLink)
			if cmd.Flags().Changed("kind") {
				overrides["materialize.link_kind"] = kind
			}
			return runMaterialize(cmd, opts, overrides, args)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&kind, "kind", "k", "default", MsgFlagKind)
	return cmd
}

// runMaterialize always renders the per-entry results before reporting a
// failure, so a failed batch still shows what succeeded
func runMaterialize(cmd *cobra.Command, opts *globalOptions, overrides map[string]interface{}, args []string) error {
	logger := logging.GetLogger("cli." + cmd.Name())

	cfg, err := opts.loadConfig(overrides)
	if err != nil {
		return fmt.Errorf(MsgErrLoadConfig, err)
	}
	dest := destination(cfg, args)

	linker := deplink.New(*cfg)
	materializeOpts, err := linker.DefaultOptions()
	if err != nil {
		return err
	}

	logger.Info().
		Str("root", cfg.Manifest.Root).
		Str("destination", dest).
		Str("mode", string(materializeOpts.Mode)).
		Msg("Materializing dependencies")

	result, runErr := linker.MaterializeDependencies(cmd.Context(), dest, materializeOpts)
	if result == nil {
		return runErr
	}

	batch := view.FromBatch(result, runErr)
	if err := render(cmd, cfg, batch); err != nil {
		return err
	}

	switch {
	case runErr != nil:
		return reportedError{runErr}
	case batch.Failed > 0:
		return reportedError{fmt.Errorf(MsgErrBatchFailed, batch.Failed, len(batch.Entries))}
	case len(batch.PruneErrors) > 0:
		return reportedError{fmt.Errorf(MsgErrPruneFailed, len(batch.PruneErrors))}
	}
	return nil
}

func destination(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Materialize.Destination
}
