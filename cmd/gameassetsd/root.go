package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type options struct {
	envFile string
	debug   bool
	port    string
}

// newRootCmd builds the gameassetsd command tree. Running it without a
// subcommand serves.
func newRootCmd(version string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "gameassetsd",
		Short:         "Game asset and score backend",
		Long:          "Stores sprites, audio clips and player scores in a document database and serves them over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, version)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to an optional .env file")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.port, "port", "", "Server port (overrides SERVER_PORT)")

	rootCmd.AddCommand(newServeCmd(opts, version))
	rootCmd.AddCommand(newVersionCmd(version))

	return rootCmd
}

func newServeCmd(opts *options, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, version)
		},
	}
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gameassetsd "+version)
		},
	}
}
