// Package containerizer provides container runtime access for arrmada.
//
// The managed applications run as docker-compose services; this package
// wraps the docker CLI to give the orchestrator the handful of operations
// it needs around a convergence pass:
//
//   - ContainerID: resolve a compose service name to a container ID
//   - Restart: restart a service after its configuration file changed
//   - HealthStatus: read the health-check status (or plain run state)
//   - ExecHTTPProbe: probe HTTP inside the container when no health check
//     is defined
//   - Logs: read container logs (used to recover qBittorrent's generated
//     temporary password)
//
// The CLI is driven through an exec seam (execCommandContext) so tests can
// substitute fake binaries without a docker daemon.
package containerizer
