package cli

import (
	"fmt"

	"github.com/arthur-debert/deplink/pkg/config"
	"github.com/arthur-debert/deplink/pkg/ui"
	"github.com/spf13/cobra"
)

func newRenderer(cmd *cobra.Command, cfg *config.Config) (ui.Renderer, error) {
	format, err := ui.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(format, cmd.OutOrStdout())
}

// render prints result in the configured output format
func render(cmd *cobra.Command, cfg *config.Config, result interface{}) error {
	renderer, err := newRenderer(cmd, cfg)
	if err != nil {
		return err
	}
	if err := renderer.RenderResult(result); err != nil {
		return fmt.Errorf(MsgErrRender, err)
	}
	return nil
}
