// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and integrates with the Fiber operational server.
//
// # Context Awareness
//
// The logger is designed to be context-aware, specifically regarding RayIDs
// (request IDs). The WithRayID helper extracts the RayID from a Fiber context
// and attaches it to the log entry so that all logs produced while serving a
// trigger or status request can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync run started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Run failed", zap.Error(err))
package logger
