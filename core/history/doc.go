// Package history persists the outcome of every sync run in a SQL database.
//
// Each run is stored as a Run row with one ModuleRun per scheduled module and
// one Change per ChangeRecord, written in a single transaction. The status
// API reads them back with ListRuns and GetRun.
//
// Tables are created with GORM AutoMigrate; Migrate then verifies the live
// schema with database.MissingColumns so a hand-edited table is reported
// instead of failing later on insert.
package history
