// Package monitor runs a complete sync cycle.
//
// Service.Run executes, in order:
//
//  1. sweep stray .DS_Store files out of the snapshot
//  2. build one runner per selected module
//  3. schedule the runners on a pool capped at the configured concurrency
//  4. commit every change record, one commit per record
//  5. narrate the commits made since the start of the run and prune git
//  6. record the run in the history database
//  7. archive the JSON report and the run log
//  8. notify, or log that the repo is clean when nothing was committed
//
// Steps 4 to 8 are skipped in dry-run mode, except that the outcome is still
// kept as the last run. Failures after step 3 are logged and attached to the
// Result; they never discard the report. Only one run executes at a time;
// a concurrent Run returns ErrRunInProgress.
//
// The feature serves POST /runs to trigger a run and GET /runs/last.
package monitor
