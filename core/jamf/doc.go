// Package jamf is the HTTP client for the Jamf Pro Classic and Pro APIs.
//
// Client implements fetch.Capability:
//
//   - Classic requests go to {url}/JSSResource/{path} with HTTP Basic
//     authentication and Accept: application/json.
//   - Pro requests go to {url}/api/{path} with a bearer token obtained from
//     POST /api/v1/auth/token. The token is cached until shortly before it
//     expires; concurrent module runners that find it stale share one refresh
//     through singleflight. A 401 invalidates the cached token and the request
//     is retried once with a fresh one.
//
// Every request passes through a circuit breaker (sony/gobreaker). Transport
// errors and 5xx responses count as failures; once the breaker opens, requests
// fail fast with gobreaker.ErrOpenState until it half-opens again.
//
// Bodies are decoded with json.Decoder.UseNumber so identities keep their exact
// decimal form. Non-success responses become *APIError values carrying the
// status code.
package jamf
