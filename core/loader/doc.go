// Package loader mounts the HTTP features of the daemon.
//
// A feature bundles the routes of one area of the API (modules, monitor,
// status, integrity) and satisfies Feature:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// cmd/start registers every feature on a Manager after the shared middleware
// (ray id, request logging, API key) and calls LoadAll once. Disabled features
// are logged and skipped; the first Load error aborts startup. Registration
// order is mount order, which matters when two features share a prefix.
package loader
