// Package cli wires configuration, storage, adapters, the worker pool and
// the HTTP server into the clipforge command.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/internal/config"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "clipforge",
		Short:        "AI-assisted short clip generation backend",
		SilenceUsage: true,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and job workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	root.AddCommand(serve)

	version := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipforge %s (built %s, commit %s)\n",
				config.Version, config.BuildTime, config.GitCommit)
		},
	}
	root.AddCommand(version)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
