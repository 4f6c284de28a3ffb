package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/opsdash/internal/config"
)

// NewRootCmd creates the root command for opsdash.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opsdash",
		Short: "Command line client for the operations dashboard",
		Long: `opsdash is a command line client for the operations dashboard backend.

It reads the commander activity log and statistics, fetches weather, runs
battlefield analysis, submits images and videos for object detection, runs
UAV and camouflage detection, follows the live camera detector and reads and
sends inbox messages.

Connection settings come from flags or from a configuration file: .opsdash
in the current directory, $XDG_CONFIG_HOME/opsdash/config.yaml, or .opsdash
in the home directory. Run "opsdash init" to create one.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	f := cmd.PersistentFlags()
	f.BoolP("verbose", "v", false, "Enable verbose logging")
	f.Bool("log-json", false, "Write logs as JSON lines")
	f.StringP("config", "c", "",
		"Configuration file path (default: ./.opsdash, the XDG config file, then ~/.opsdash)")
	f.StringP("base-url", "u", config.DefaultBaseURL, "Dashboard backend address")
	f.String("cookie", "", "Session cookie sent with every request (name=value)")
	f.String("proxy", "", "SOCKS5 proxy address (host:port)")
	f.DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	f.BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")
	f.Bool("tee", false, "With --output, also print the report on stdout")
	f.StringP("output-dir", "d", ".", "Directory for downloaded archives and media")
	f.String("data-dir", "", "Directory of the saved form database (default: XDG data directory)")

	// Add subcommands
	cmd.AddCommand(NewLogsCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewWeatherCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewDetectCmd())
	cmd.AddCommand(NewUAVCmd())
	cmd.AddCommand(NewCamoCmd())
	cmd.AddCommand(NewLiveCmd())
	cmd.AddCommand(NewInboxCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
