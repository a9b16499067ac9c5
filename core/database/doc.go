// Package database opens the SQL database that stores the run history.
//
// It wraps GORM with the mysql and sqlite drivers. The sqlite driver is the
// default so a single host needs no database server; MySQL is used when the
// history is shared by several monitors.
//
// # Connect
//
// Connect builds the dialector for the configured driver, applies pool
// settings and pings the database within TimeoutSeconds. Open does the same
// for a caller supplied dialector, which tests use with go-sqlmock.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live table definitions so the
// history store can verify its schema after migration.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//
//	missing, err := database.MissingColumns(db, "runs", []string{"id", "started_at"})
package database
