// Package logging provides a structured logging system for debugctl with
// unified log handling and level filtering.
//
// The package is built on Go's standard slog package. All log entries carry a
// timestamp, a level, a subsystem identifier and a message. Subsystems in use:
//
//   - Bootstrap: application startup
//   - Config: resource configuration and validation
//   - Scenario: scenario loading and filtering
//   - Orchestrator: worker scheduling and shutdown
//   - Worker: individual scenario execution
//   - Aggregator: result analysis and reporting
//   - Monitor: live dashboard
//
// Two modes exist. CLI mode writes text-formatted entries to the configured
// writer:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Bootstrap", "starting up")
//	logging.Error("Worker", err, "script execution failed")
//
// Dashboard mode is used while the live monitor owns the terminal: entries are
// delivered on a channel instead of being written directly, so the dashboard
// redraw loop is never corrupted by interleaved log lines.
//
// The logging system is safe for concurrent use from multiple goroutines.
package logging
