// Package integrity validates the snapshot directory and the history schema.
//
// The sync only ever touches files it can attribute to a record, so anything
// else in the snapshot survives forever. These checks surface it.
//
// # Checks Provided
//
//   - Missing: configured modules that have no directory yet (never synced).
//   - Orphans: top-level directories no configured module owns, typically a
//     module that was removed from the configuration.
//   - Stray: files in a module directory that match none of its unit suffixes.
//   - Incomplete: payload units whose metadata unit is gone.
//   - Schema: history tables lacking expected columns, when a database is set.
//
// Fix removes stray files and incomplete payload units; the next sync writes
// the record again from the source. Orphan directories are reported only.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs every check (supports ?fix=true).
package integrity
