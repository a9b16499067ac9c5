// Package server holds the HTTP status server configuration.
//
// The daemon started by `change-monitor start` serves the status API on
// Addr() when Enabled is set. ApiKey protects every route except the health
// check and /metrics.
package server
