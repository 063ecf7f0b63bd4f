package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arrmada/internal/config"
	"arrmada/internal/containerizer"
	"arrmada/internal/orchestrator"
	"arrmada/pkg/logging"
)

// convergeFailedError marks a pass that ran to the end but left steps
// failed, so scripts can tell it apart from a hard error.
type convergeFailedError struct {
	failed int
}

func (e *convergeFailedError) Error() string {
	return fmt.Sprintf("convergence finished with %d failed step(s)", e.failed)
}

// newConvergeCmd creates the command that runs one full convergence pass.
func newConvergeCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "converge",
		Short: "Run one convergence pass over the whole stack",
		Long: `Waits for every application to come up, then converges remote
state (indexers, applications, download clients, auth, update settings)
and configuration files, restarting services whose files changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// A missing docker CLI only disables restarts and log-based
			// steps; the API-driven convergence still runs.
			var runtime orchestrator.ContainerRuntime
			if rt, err := containerizer.NewDockerRuntime(); err != nil {
				logging.Warn("CLI", "Container runtime unavailable, restarts disabled: %v", err)
			} else {
				runtime = rt
			}

			run, err := orchestrator.New(&cfg, runtime).Converge(cmd.Context())
			if run != nil {
				run.WriteSummary(os.Stdout)
			}
			if err != nil {
				return err
			}
			if strict && run.Failed() > 0 {
				return &convergeFailedError{failed: run.Failed()}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any step failed, not only on aborts")
	return cmd
}
