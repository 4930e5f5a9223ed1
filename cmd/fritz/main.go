// Package main is the entry point for the fritz CLI.
//
// fritz is primarily a library; this binary exposes its render pipeline for
// quick experiments and shell use. It reads list files (JSON or YAML arrays
// of items) and renders them as element trees.
//
// Usage:
//
//	fritz render -f todos.json  # Render the file once
//	fritz watch -f todos.json   # Re-render on every change
//	fritz version               # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "fritz",
	Short: "Reactive stores rendered as element trees",
	Long: `fritz wires reactive state into live element trees.

Stores serialize updates and broadcast committed values, lenses focus
stores onto fields and list elements, differs turn list snapshots into
minimal patches, and mounts apply those patches to an element tree.

This CLI runs the same pipeline over list files:

  fritz render -f todos.json   # render the file once
  fritz watch -f todos.json    # keep rendering as the file changes

List files hold an array of items:

  [
    {"id": "a", "text": "buy milk"},
    {"id": "b", "text": "write tests", "done": true}
  ]`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this fritz binary.`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("fritz %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
