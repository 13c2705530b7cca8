// Package main provides the actionsync operator CLI for inspecting and
// maintaining a queue database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "actionsync",
		Short:   "ActionSync - offline action queue inspector",
		Version: Version,
		Long: `ActionSync is a CLI tool for inspecting and maintaining an offline
action queue database. Social actions (likes, reposts, follows) queued
while offline are stored locally and replayed when connectivity returns;
this tool shows their state and performs maintenance.`,
	}

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(retryCmd())
	rootCmd.AddCommand(clearCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
