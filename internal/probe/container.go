package probe

import (
	"context"
	"time"

	"arrmada/pkg/logging"
)

const containerPollInterval = 3 * time.Second

// ContainerRuntime is the subset of container operations the probe needs.
// It is implemented by containerizer.DockerRuntime.
type ContainerRuntime interface {
	// ContainerID resolves a compose service name to a container ID.
	ContainerID(ctx context.Context, service string) (string, error)

	// HealthStatus returns the container's health-check status, or its
	// plain run state when no health check is defined.
	HealthStatus(ctx context.Context, containerID string) (string, error)

	// ExecHTTPProbe runs an HTTP probe inside the container against
	// localhost:port and reports whether it answered.
	ExecHTTPProbe(ctx context.Context, service string, port int) bool
}

// ContainerProbe declares a compose service ready when its health check
// reports "healthy". For images without a health check, a Port > 0 enables
// an in-container HTTP fallback probe.
type ContainerProbe struct {
	Service string
	Port    int
	Runtime ContainerRuntime
}

// NewContainerProbe creates a container readiness probe for a compose
// service. port may be 0 to disable the exec fallback.
func NewContainerProbe(runtime ContainerRuntime, service string, port int) *ContainerProbe {
	return &ContainerProbe{Service: service, Port: port, Runtime: runtime}
}

// Describe implements Prober.
func (p *ContainerProbe) Describe() string {
	return "container " + p.Service
}

// WaitUntilReady implements Prober.
func (p *ContainerProbe) WaitUntilReady(ctx context.Context, timeout time.Duration) bool {
	containerID, err := p.Runtime.ContainerID(ctx, p.Service)
	if err != nil || containerID == "" {
		logging.Warn(subsystem, "No container id for '%s': %v", p.Service, err)
		return false
	}

	logging.Info(subsystem, "Waiting for '%s' to be ready (timeout %s)", p.Service, timeout)

	var lastStatus string
	ready := pollUntil(ctx, timeout, containerPollInterval, func(ctx context.Context) bool {
		status, err := p.Runtime.HealthStatus(ctx, containerID)
		if err == nil {
			lastStatus = status
		}
		if status == "healthy" {
			logging.Info(subsystem, "'%s' is healthy", p.Service)
			return true
		}

		// No health check (or merely "running"): probe HTTP inside the
		// container when a port is known.
		if p.Port > 0 && p.Runtime.ExecHTTPProbe(ctx, p.Service, p.Port) {
			logging.Info(subsystem, "'%s' HTTP is responding on localhost:%d", p.Service, p.Port)
			return true
		}
		return false
	})

	if !ready {
		logging.Warn(subsystem, "'%s' not ready before timeout (status seen: %q)", p.Service, lastStatus)
	}
	return ready
}
