package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	envFiles   []string
	account    string
	logLevel   string
	logFormat  string
}

var flags globalFlags

// rootCmd represents the base command for the grnsync application
var rootCmd = &cobra.Command{
	Use:   "grnsync",
	Short: "Collects GRN spreadsheets from Gmail and consolidates them into a Google Sheet",
	Long: `grnsync saves goods receipt note attachments from Gmail to Google Drive,
parses the spreadsheets created today with a cascade of parsing strategies
and appends the rows to a shared Google Sheet, removing duplicates.

It can run as:
  - A standalone CLI tool (default: the complete workflow)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "grnsync version %s\n" .Version}}`)

	// If no subcommand is provided, run the complete workflow by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "run")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/grnsync/config.yaml)")
	pf.StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, "Dotenv files loaded before GRNSYNC_* variables are read")
	pf.StringVar(&flags.account, "account", "", "Google account name to use (default: from config, else 'default')")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newStrategiesCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
