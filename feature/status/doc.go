// Package status serves the read side of the monitor over HTTP: liveness,
// run history recorded in the database, archived run reports, and the
// Prometheus metrics endpoint.
//
// Routes:
//
//	GET /health                 liveness and the outcome of the last run
//	GET /history                latest runs, ?limit=N
//	GET /history/:id            one run with its modules and changes
//	GET /history/:id/report     the archived JSON report of a run
//	GET /history/:id/log        the archived log of a run
//	GET /metrics                Prometheus exposition
//
// History routes answer 503 when no database is configured; report routes
// answer 503 when no object storage is configured.
package status
