// Package notify delivers the outcome of a sync run to people.
//
// A Notifier receives one Message per run that produced changes. The Message
// carries the subject line, the plain text body (the narrated commit log),
// the aggregated SyncReport and an optional Attachment holding the run log.
//
// Two sinks are provided:
//
//   - Mailer sends a multipart/mixed mail over SMTP, upgrading the connection
//     with STARTTLS when the server offers it and authenticating only when a
//     username is configured.
//   - Slack posts a summary to an incoming webhook through slack-go.
//
// Multi fans a Message out to several sinks and joins their errors, so a
// failing webhook never prevents the mail from being sent.
package notify
