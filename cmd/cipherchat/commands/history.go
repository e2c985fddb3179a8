package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// history: decrypt and print the saved conversation.
func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Decrypt and print the saved conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restore(cmd); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			msgs := wire.Controller.Messages()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "(no messages)")
			}
			for _, m := range msgs {
				fmt.Fprintf(out, "[%s] %s: %s\n", stamp(m.Timestamp), speaker(m.Role), m.Content)
			}
			if n := len(wire.Controller.Failures()); n > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d saved message(s) could not be decrypted\n", n)
			}
			return nil
		},
	}
}
