// Package main is the entry point for the playground server.
//
// The server hosts in-memory projects, builds them into preview documents
// and streams their console output to editors.
//
//	Editor → REST API   → Projects → Engine → Transpiler (esbuild | remote)
//	       → WebSocket  ↗                   → Registry   (unpkg)
//	                                        → Sandbox    (headless preview)
//
// The server provides:
//   - REST API for projects, files, builds and previews
//   - WebSocket streaming of logs, terminal and typing animation
//   - Prometheus metrics and a JSON stats endpoint
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor), optionally from a .env file
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev -templates ./templates
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
