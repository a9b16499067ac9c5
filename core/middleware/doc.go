// Package middleware contains HTTP middleware for the status API.
//
// # Components
//
//   - auth: API key validation protecting every route except the public
//     prefixes (health and metrics).
//   - rayid: a unique request id (RayID) for every incoming request, stored in
//     the fiber locals and echoed in the X-Ray-ID response header so log lines
//     written through logger.WithRayID can be correlated.
//
// rayid must be registered first so every later log line carries the id.
package middleware
