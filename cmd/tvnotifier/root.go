package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tvnotifier/internal/app"
	"tvnotifier/internal/config"
	"tvnotifier/internal/logging"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var noMail bool
	var debug bool
	var daemon bool

	cmd := &cobra.Command{
		Use:          "tvnotifier",
		Short:        "Email a digest of upcoming episodes and streaming availability",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg config.Config
			if configFlag != "" {
				cfg = config.LoadFile(configFlag)
			} else {
				cfg = config.Load()
			}

			level := cfg.Logging.Level
			if debug {
				level = "debug"
			}
			logger := logging.New(level)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.New(cfg, logger, app.Mode{NoMail: noMail, Daemon: daemon})
			if err := application.Run(ctx); err != nil {
				logger.Error("run failed", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVar(&noMail, "nomail", false, "Print the digest to stdout instead of emailing it")
	cmd.Flags().BoolVar(&debug, "debug", false, "Force debug-level logging")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Keep running and send a digest every 24h")

	return cmd
}
