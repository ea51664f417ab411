// Package cmd provides the nlquery command line: the HTTP service plus
// one-shot commands for asking questions and inspecting a schema from a
// terminal.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "nlquery"

var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Ask questions of a SQL database in plain language",
	Long: `nlquery translates natural-language questions into SQL for a connected
MySQL, PostgreSQL, SQLite or DuckDB database and returns the result rows.

Run without a subcommand it starts the HTTP API, the same as "nlquery serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
