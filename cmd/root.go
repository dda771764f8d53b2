// Package cmd defines the lectern CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lectern - question answering over course transcripts",
	Long: `Lectern indexes course transcripts into a vector store and answers
questions about them with retrieval-augmented generation.

Running lectern without a subcommand starts the HTTP API server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
