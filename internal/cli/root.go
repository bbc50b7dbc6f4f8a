// Package cli holds the smartscheduler command line: a text chat, a voice
// loop and a one-shot slot query.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"smartscheduler/internal/app"
	"smartscheduler/internal/config"
)

const serviceName = "smartscheduler"

type rootOptions struct {
	configPath string
	logLevel   string
	appOpts    []app.Option
}

// NewRootCmd builds the command tree. Extra app options are applied to every
// command that assembles the application.
func NewRootCmd(appOpts ...app.Option) *cobra.Command {
	opts := &rootOptions{appOpts: appOpts}
	cmd := &cobra.Command{
		Use:   "smartscheduler",
		Short: "Schedule meetings by talking to your calendar",
		Long: `smartscheduler finds free time in your calendar and books meetings from
plain sentences like "schedule a 30 minute team sync on Tuesday at 2pm".

Use "chat" to type, "voice" to talk, or "slots" for a quick availability check.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("SMARTSCHEDULER_CONFIG"), "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newChatCmd(opts))
	cmd.AddCommand(newVoiceCmd(opts))
	cmd.AddCommand(newSlotsCmd(opts))
	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openApp loads configuration and assembles the application. Logs go to
// stderr so stdout stays readable.
func (o *rootOptions) openApp(cmd *cobra.Command, extra ...app.Option) (*app.App, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	} else if level == "info" {
		level = "warn"
	}
	log := app.NewLogger(cmd.ErrOrStderr(), serviceName, level)

	opts := append(append([]app.Option(nil), o.appOpts...), extra...)
	return app.New(cmd.Context(), cfg, log, opts...)
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Warn("close failed", slog.Any("err", err))
	}
}
