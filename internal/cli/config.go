package cli

import (
	"fmt"

	"github.com/arthur-debert/deplink/pkg/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaults {
				_, err := fmt.Fprint(cmd.OutOrStdout(), config.GenerateConfigContent())
				return err
			}

			cfg, err := opts.loadConfig(nil)
			if err != nil {
				return fmt.Errorf(MsgErrLoadConfig, err)
			}
			content, err := config.Dump(*cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, MsgFlagDefaults)
	return cmd
}
