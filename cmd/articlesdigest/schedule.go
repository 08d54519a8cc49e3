package main

import (
	"github.com/spf13/cobra"

	"ArticlesDigest/internal/app"
)

func scheduleCMD(cfgPath *string) *cobra.Command {
	var flags runFlags

	schedule := newCommand("schedule", "Run the pipeline on the configured cron expression", func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig(*cfgPath)
		if err != nil {
			return err
		}

		application, err := app.New(cmd.Context(), cfg, logger, app.Options{Stream: !flags.noStream, Stdout: cmd.OutOrStdout()})
		if err != nil {
			logger.Error("initialise application", "error", err)
			return err
		}
		defer application.Close()

		return application.Schedule(cmd.Context(), flags.options())
	})
	flags.bind(schedule)
	return schedule
}
