package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ArticlesDigest/internal/config"
)

func initCMD(cfgPath *string) *cobra.Command {
	return newCommand("init", "Write a starter config file", func(cmd *cobra.Command, _ []string) error {
		path := config.ResolvePath(*cfgPath)
		created, err := config.WriteDefault(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Created default configuration at %s\n", path)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s\n", path)
		}
		return nil
	})
}
