package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"arrmada/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConvergeFailed indicates a convergence pass that finished but
	// left steps failed.
	ExitCodeConvergeFailed = 2
)

var (
	logLevel   string
	configPath string
)

// rootCmd represents the base command for the arrmada application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "arrmada",
	Short: "Converge a media-automation stack onto its desired state",
	Long: `arrmada bootstraps and converges a docker-compose media stack:
it waits for Prowlarr, Sonarr, Radarr and the download clients to come
up, discovers their API keys, and drives their configuration (indexers,
applications, download clients, auth, paths) toward the desired state.
Every operation is idempotent, so the command is safe to re-run.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(logging.ParseLevel(logLevel), os.Stderr)
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles subcommands and flags.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "arrmada version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if _, ok := err.(*convergeFailedError); ok {
		return ExitCodeConvergeFailed
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "", "directory holding config.yaml (defaults apply when empty)")

	rootCmd.AddCommand(newConvergeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
