// Package cli wires the opendelek commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "opendelek",
	Short: "Corporate AI gateway with compliance enforcement",
	Long: "Routes natural-language requests from corporate users through compliance\n" +
		"validation before specialized agents execute them against hosted AI models.\n" +
		"Every interaction lands in a hash-chained audit trail.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.opendelek/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
