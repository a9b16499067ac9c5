// Package fetch retrieves the current objects of one module through a Capability.
//
// A Query describes where the objects live and how they are delivered:
//
//   - ModePaged: the collection is requested page by page (page, page-size, sort,
//     section) until the cumulative item count reaches the total the source
//     reports. The total is re-read on every page so a collection that grows or
//     shrinks mid-fetch still terminates; an empty page ends the sequence early
//     and MaxPages bounds a source that never converges.
//   - ModeList: one request returns every summary.
//   - ModeSingle: one request returns the only object of the module.
//
// Paged and list queries may name a DetailPath. Each summary is then replaced by
// a second request for its full record. A failing detail request only skips that
// object: Items yields a DetailFetchError and carries on, FetchAll records the id
// in Result.Skipped.
//
// Every request is retried with exponential backoff while the failure looks
// transient (transport errors, 429 and 5xx responses). Other 4xx responses fail
// immediately.
package fetch
