package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the dealdesk application
var rootCmd = &cobra.Command{
	Use:   "dealdesk",
	Short: "Finds open meeting slots on a sales rep's calendar",
	Long: `dealdesk resolves meeting availability for a sales CRM assistant. It turns a
natural-language request such as "next tuesday evening for 30 minutes" into a
bounded time window and lists the open slots on the rep's calendar.

It can run as:
  - An MCP (Model Context Protocol) server with a REST API (serve)
  - A one-shot resolver over a JSON list of busy intervals (availability)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// configFile is the optional path given with --config.
var configFile string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "dealdesk version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./dealdesk.yaml or $HOME/.config/dealdesk/dealdesk.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("default-timezone", "", "Timezone used when a request names none (default: UTC)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAvailabilityCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
