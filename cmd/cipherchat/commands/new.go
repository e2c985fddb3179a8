package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a session with fresh keys, replacing any saved one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Controller.Create(); err != nil {
				return err
			}
			a, b, err := wire.Controller.Fingerprints()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session created.\nYou:       %s\nAssistant: %s\n", a, b)
			return nil
		},
	}
}
