package containerizer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"arrmada/pkg/logging"
)

const dockerSubsystem = "Docker"

// healthTemplate prefers the health-check status when the image defines
// one and falls back to the plain container state otherwise.
const healthTemplate = "{{if .State.Health}}{{.State.Health.Status}}{{else}}{{.State.Status}}{{end}}"

// DockerRuntime implements container operations using the Docker CLI.
type DockerRuntime struct{}

// execCommandContext is a variable to allow mocking in tests.
var execCommandContext = exec.CommandContext

// NewDockerRuntime creates a new Docker runtime instance.
func NewDockerRuntime() (*DockerRuntime, error) {
	if _, err := exec.LookPath("docker"); err != nil {
		return nil, fmt.Errorf("docker command not found in PATH: %w", err)
	}

	ctx := context.Background()
	cmd := execCommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("docker daemon not accessible: %w", err)
	}

	return &DockerRuntime{}, nil
}

// ContainerID resolves a compose service name to its container ID. An
// empty ID with nil error means the service has no running container.
func (d *DockerRuntime) ContainerID(ctx context.Context, service string) (string, error) {
	cmd := execCommandContext(ctx, "docker", "compose", "ps", "-q", service)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve container for service %s: %w", service, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Restart restarts a compose service. A restart failure is reported but
// the caller decides whether the pass continues; the service may simply
// pick the change up on its own schedule.
func (d *DockerRuntime) Restart(ctx context.Context, service string) error {
	logging.Info(dockerSubsystem, "Restarting service '%s'", service)

	cmd := execCommandContext(ctx, "docker", "compose", "restart", service)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to restart service %s: %w", service, err)
	}
	return nil
}

// HealthStatus returns the container's health-check status ("healthy",
// "unhealthy", "starting") or, for images without a health check, the
// plain container state ("running", "exited", ...).
func (d *DockerRuntime) HealthStatus(ctx context.Context, containerID string) (string, error) {
	cmd := execCommandContext(ctx, "docker", "inspect", containerID, "--format", healthTemplate)
	output, err := cmd.Output()
	if err != nil {
		shortID := containerID
		if len(containerID) > 12 {
			shortID = containerID[:12]
		}
		return "", fmt.Errorf("failed to inspect container %s: %w", shortID, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ExecHTTPProbe runs an HTTP probe inside the container against
// localhost:port. Alpine-based images may lack curl, so wget is tried as
// a fallback; sh -lc keeps the invocation shell-agnostic.
func (d *DockerRuntime) ExecHTTPProbe(ctx context.Context, service string, port int) bool {
	probe := fmt.Sprintf("curl -fsS http://localhost:%d/ || wget -qO- http://localhost:%d/", port, port)

	probeCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	cmd := execCommandContext(probeCtx, "docker", "compose", "exec", "-T", service, "sh", "-lc", probe)
	output, err := cmd.Output()
	return err == nil && len(output) > 0
}

// Logs returns the container's combined log output.
func (d *DockerRuntime) Logs(ctx context.Context, container string) (string, error) {
	cmd := execCommandContext(ctx, "docker", "logs", container)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to read logs from %s: %w", container, err)
	}
	return string(output), nil
}
