// Package config defines the explicit configuration for an arrmada
// convergence pass.
//
// # Overview
//
// Configuration is resolved exactly once at process start and handed to
// every component constructor; no package reads ambient process state
// after that point. Resolution happens in three layers:
//
//  1. Defaults (GetDefaultConfig)
//  2. config.yaml in the configured directory, if present
//  3. Environment variable overrides (ApplyEnvOverrides), the contract
//     the stack's docker-compose deployments already rely on
//
// The resulting Config is validated before use; validation failures are
// fatal because a convergence pass with a half-resolved configuration
// could write wrong values into the managed applications.
//
// # Structure
//
// Config groups settings per managed application (Prowlarr, Sonarr,
// Radarr, qBittorrent, SABnzbd) plus the cross-cutting knobs: the desired
// indexer list, the optional FlareSolverr proxy, usenet provider defaults,
// and the container-internal download/library paths.
package config
