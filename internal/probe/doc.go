// Package probe implements readiness waiting for the targets a
// convergence pass depends on.
//
// # Strategies
//
// Three probes share the Prober contract:
//
//   - HTTPProbe: polls a URL until any response with status < 500 arrives.
//     A 401 or 404 still proves the process is up and serving.
//   - FileProbe: waits for a path to exist, using an fsnotify watch on the
//     parent directory with a polling fallback for filesystems that do not
//     deliver events reliably.
//   - ContainerProbe: prefers the container's own health check when one is
//     defined; otherwise falls back to an in-container HTTP probe against
//     a known local port.
//
// All probes poll synchronously against a monotonic deadline and return a
// plain bool: false means the deadline elapsed, and the caller may simply
// invoke the probe again. There is no retry state to clean up.
package probe
