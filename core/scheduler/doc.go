// Package scheduler runs module units of work concurrently under a fixed ceiling.
//
// # Limiter
//
// The Limiter is a counting semaphore of capacity C built on
// golang.org/x/sync/semaphore. Every unit acquires a Token before it starts and
// releases it when it reaches a terminal state. Releasing a token twice is a
// programming defect and is reported as a *SchedulingError wrapping
// ErrDoubleRelease. The limiter tracks the number of tokens in use and the peak
// reached, which tests and metrics use to verify the ceiling.
//
// # Pool
//
// A Pool is built once per run and owns its limiter. Schedule starts one
// goroutine per unit; goroutines beyond the ceiling block in Acquire until a
// slot frees, so any number of units can be scheduled without deadlock. Each
// unit moves through
//
//	Pending -> Running -> Completed | Failed
//
// A unit that returns an error or panics is Failed; siblings are unaffected.
// Results are collected in completion order into a SyncReport. Schedule only
// returns an error for scheduling defects.
package scheduler
