package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ArticlesDigest/internal/app"
	"ArticlesDigest/internal/config"
	"ArticlesDigest/internal/logging"
	"ArticlesDigest/internal/usecase"
)

type runFlags struct {
	fetchOnly    bool
	generateOnly bool
	runAll       bool
	noStream     bool
}

func (f runFlags) options() usecase.RunOptions {
	if f.runAll {
		return usecase.RunOptions{}
	}
	return usecase.RunOptions{FetchOnly: f.fetchOnly, GenerateOnly: f.generateOnly}
}

func (f *runFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.fetchOnly, "fetch-only", "f", false, "only fetch new content")
	cmd.Flags().BoolVarP(&f.generateOnly, "generate-only", "g", false, "only generate the digest from stored content")
	cmd.Flags().BoolVarP(&f.runAll, "run-all", "a", false, "fetch and generate (default)")
	cmd.Flags().BoolVarP(&f.noStream, "no-stream", "n", false, "do not print summaries while they are generated")
}

func rootCMD(cfgPath *string) *cobra.Command {
	var flags runFlags

	root := newCommand("articlesdigest", "Fetch feeds, summarise them and publish a weekly digest", func(cmd *cobra.Command, _ []string) error {
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

		report, err := application.Run(cmd.Context(), flags.options())
		if err != nil {
			logger.Error("pipeline failed", "run_id", report.RunID, "error", err)
			return err
		}
		if report.Generate != nil && report.Generate.Path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Digest written to %s\n", report.Generate.Path)
		}
		return nil
	})
	flags.bind(root)
	return root
}

// loadConfig writes a starter config when none exists, then loads it.
func loadConfig(flagPath string) (config.Config, *slog.Logger, error) {
	path := config.ResolvePath(flagPath)
	bootstrap := logging.New("info", "text")

	created, err := config.WriteDefault(path)
	if err != nil {
		bootstrap.Error("create default config", "path", path, "error", err)
		return config.Config{}, nil, err
	}
	if created {
		bootstrap.Info("created default config", "path", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		bootstrap.Error("load config", "path", path, "error", err)
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format), nil
}
