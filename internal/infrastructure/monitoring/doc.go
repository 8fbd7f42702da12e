/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

Prometheus metrics for the playground server, kept on a per-instance
registry: HTTP traffic, preview builds and their stages, transpilation,
package registry fetches, sandbox console messages, terminal commands and
WebSocket connections. Recent build durations are also summarized with
gonum (mean, standard deviation, p50, p95) for the JSON stats endpoint.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "compile")
	// ... perform stage ...
	timer.Stop("ok")
*/
package monitoring
