// Package utils provides common utility functions for the change-monitor application.
// It includes helper functions for converting loosely typed JSON values (json.Number,
// float64, strings) into the concrete types used for identities, totals and rule
// comparisons.
package utils
