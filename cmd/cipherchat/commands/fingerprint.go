package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print both parties' identity fingerprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restore(cmd); err != nil {
				return err
			}
			a, b, err := wire.Controller.Fingerprints()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "You:       %s\nAssistant: %s\n", a, b)
			return nil
		},
	}
}
