package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"change-monitor/core/scheduler"
)

// Attachment is a file sent along with a Message.
type Attachment struct {
	Name    string
	Content []byte
}

// Message is the notification of one run.
type Message struct {
	Subject string
	// Body is plain text, usually the commit log of the run.
	Body string
	// Report is the aggregated run report. It may be nil.
	Report *scheduler.SyncReport
	// Attachment is optional; a zero Name means none.
	Attachment Attachment
}

// Notifier delivers messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Multi delivers to every notifier in order.
type Multi []Notifier

// Notify sends msg to every notifier and joins their errors.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Summary renders a one-paragraph overview of a report.
func Summary(report *scheduler.SyncReport) string {
	if report == nil {
		return ""
	}
	added, changed, removed := report.Totals()
	var b strings.Builder
	fmt.Fprintf(&b, "%d modules: %d added, %d changed, %d removed", report.Len(), added, changed, removed)
	for _, res := range report.Failed() {
		fmt.Fprintf(&b, "\nFailed %s: %s", res.Module, res.Reason)
	}
	return b.String()
}
