package cli

import (
	"fmt"
	"path/filepath"

	"github.com/arthur-debert/deplink/pkg/deplink"
	"github.com/arthur-debert/deplink/pkg/logging"
	"github.com/arthur-debert/deplink/pkg/ui/view"
	"github.com/spf13/cobra"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var resolve bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		Example: MsgListExample,
		GroupID: "deps",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cli.list")

			cfg, err := opts.loadConfig(nil)
			if err != nil {
				return fmt.Errorf(MsgErrLoadConfig, err)
			}
			linker := deplink.New(*cfg)

			m, err := linker.Manifest()
			if err != nil {
				return err
			}
			names, err := linker.ListDependencies()
			if err != nil {
				return err
			}

			listing := &view.Dependencies{
				Manifest:     m.Path,
				Resolved:     resolve,
				Dependencies: make([]view.Dependency, 0, len(names)),
			}
			byName := make(map[string]int, len(names))
			for _, name := range names {
				version, _ := m.VersionSpec(name)
				byName[name] = len(listing.Dependencies)
				listing.Dependencies = append(listing.Dependencies, view.Dependency{Name: name, Version: version})
			}

			if resolve {
				deps, failures, err := linker.Resolve()
				if err != nil {
					return err
				}
				for _, dep := range deps {
					d := &listing.Dependencies[byName[dep.Name]]
					d.Path = dep.Source.Path
					d.Main = dep.Source.Main
				}
				for name, failure := range failures {
					listing.Dependencies[byName[name]].Error = failure.Error()
				}
			}

			if abs, err := filepath.Abs(listing.Manifest); err == nil {
				listing.Manifest = abs
			}
			logger.Info().Int("dependencies", len(names)).Bool("resolve", resolve).Msg("Listing dependencies")
			return render(cmd, cfg, listing)
		},
	}

	cmd.Flags().BoolVar(&resolve, "resolve", false, MsgFlagResolve)
	return cmd
}
