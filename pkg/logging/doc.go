// Package logging provides structured logging for arrmada with unified
// log handling and level filtering.
//
// The package is a thin layer over Go's standard slog package. Every log
// entry carries a subsystem identifier so that output from the different
// convergence stages (Probe, Reconcile, TextConf, Orchestrator, Docker)
// can be filtered by downstream tooling.
//
// # Usage
//
//	import "arrmada/pkg/logging"
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Probe", "waiting for %s (timeout %s)", url, timeout)
//	logging.Error("Reconcile", err, "listing %s collection failed", kind)
//
// Initialization happens once at process start; all loggers share the same
// handler and minimum level. Logging is safe for concurrent use.
package logging
