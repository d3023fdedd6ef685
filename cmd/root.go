package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/feedr/feedr/internal/tui"
)

var version string

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "feedr",
	Short: "Terminal client for the feedr pet feeder",
	Long: `feedr - control a connected pet feeder from the terminal.

Running feedr with no arguments opens the interactive dashboard with live
feed updates. Subcommands cover the same operations for scripting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "auth", Title: "Account Commands:"},
		&cobra.Group{ID: "records", Title: "Feeder Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}
