// Package apps contains the application-specific knowledge of the stack:
// how to discover each application's API key, which entities to converge
// in Prowlarr, Sonarr, and Radarr, and how to build the desired state for
// indexers, download clients, and the FlareSolverr proxy.
//
// The package is a thin layer over internal/remote and internal/transport:
// it constructs DesiredEntity values (folding in schema defaults fetched
// from the remote's own schema endpoints and per-indexer overrides from
// the configuration) and hands them to the reconciler. Singleton
// configuration objects that are not collection entities (host config,
// indexer config, delay profiles) are read-modify-written here directly.
//
// Schema variations across application builds (a category field called
// movieCategory, tvCategory, or plain category depending on the app) are
// handled by an ordered list of named strategies in strategies.go, tried
// in order until one applies.
package apps
