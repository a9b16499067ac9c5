// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework used by the status API.
//
// # Context Awareness
//
// WithRayID extracts the RayID from a Fiber context and attaches it to the log entry.
// WithModule tags every entry of a module runner with the module name so the
// interleaved output of concurrent modules can be told apart.
//
// # Run Log
//
// Capture tees a logger into an in-memory Buffer. The monitor uses it to collect
// the human readable log of one sync cycle, which is attached to the
// notification mail.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//   - File: optional file receiving a copy of every entry
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
