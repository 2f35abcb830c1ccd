package cli

import (
	"fmt"

	"github.com/arthur-debert/deplink/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		Long:    MsgVersionLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, MsgVersionFormat, version.Version); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, MsgCommitFormat, version.Commit); err != nil {
				return err
			}
			_, err := fmt.Fprintf(out, MsgBuiltFormat, version.Date)
			return err
		},
	}
}
