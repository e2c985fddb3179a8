package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// send <message>: encrypt a message to the assistant and print its reply.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message to the assistant and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("message is empty")
			}
			if err := restore(cmd); err != nil {
				return err
			}
			ex, err := wire.Controller.SendMessage(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ex.Assistant.Content)
			return nil
		},
	}
}
