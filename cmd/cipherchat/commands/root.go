package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"cipherchat/internal/app"
	"cipherchat/internal/domain"
)

var (
	home         string
	model        string
	inferenceURL string
	logLevel     string
	timeout      string

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:           "cipherchat",
		Short:         "Chat with a local model over an end-to-end encrypted session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.FromEnv()
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			wire, err = app.NewWire(cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "session dir (default ~/.cipherchat, env "+app.EnvHome+")")
	root.PersistentFlags().StringVar(&model, "model", "", "inference model (default "+app.DefaultModel+", env "+app.EnvModel+")")
	root.PersistentFlags().StringVar(&inferenceURL, "inference-url", "", "inference base URL (default "+app.DefaultInferenceURL+", env "+app.EnvInferenceURL+")")
	root.PersistentFlags().StringVar(&timeout, "timeout", "", "inference timeout, e.g. 90s (env "+app.EnvInferenceTimeout+")")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default "+app.DefaultLogLevel+", env "+app.EnvLogLevel+")")

	root.AddCommand(newCmd(), historyCmd(), sendCmd(), resetCmd(), fingerprintCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cmd *cobra.Command, cfg *app.Config) error {
	flags := cmd.Flags()
	if flags.Changed("home") {
		cfg.Home = home
	}
	if flags.Changed("model") {
		cfg.Model = model
	}
	if flags.Changed("inference-url") {
		cfg.InferenceURL = inferenceURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("timeout") {
		d, err := parseTimeout(timeout)
		if err != nil {
			return err
		}
		cfg.InferenceTimeout = d
	}
	return nil
}

// restore loads the saved session, or starts one. A corrupt history is
// reported and the now empty session is used.
func restore(cmd *cobra.Command) error {
	err := wire.Controller.Restore()
	if errors.Is(err, domain.ErrCorruptSession) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; history cleared\n", err)
		return nil
	}
	return err
}
