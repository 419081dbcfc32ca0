package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden - rule-based text policy engine for game servers",
	Long: `Warden evaluates chat, commands, signs and player tags against ordered
declarative rule files and executes their operators: deny, replace, warn,
notify, console commands, kicks, warning points and persisted keys.

It also serves structural messages (join, quit, kick, death) and timed
broadcasts from the same rule language.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "warden.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
