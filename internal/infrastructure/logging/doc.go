// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a plain *zap.Logger; Logger only adds construction
// helpers and the preview console mirror.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.Info("Server starting", zap.String("port", "8000"))
//	log := logger.ForProject("session", projectID)
package logging
