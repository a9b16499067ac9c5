package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// slackTextLimit keeps the attachment under Slack's message size limit.
const slackTextLimit = 3000

// Slack posts messages to an incoming webhook.
type Slack struct {
	cfg    SlackConfig
	logger *zap.Logger
}

// NewSlack creates a Slack sink.
func NewSlack(cfg SlackConfig, logger *zap.Logger) *Slack {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Slack{cfg: cfg, logger: logger}
}

// Notify posts the subject, the report summary and the head of the body.
func (s *Slack) Notify(ctx context.Context, msg Message) error {
	body := msg.Body
	if len(body) > slackTextLimit {
		body = body[:slackTextLimit] + "\n..."
	}

	webhook := &slack.WebhookMessage{
		Channel:  s.cfg.Channel,
		Username: s.cfg.Username,
		Text:     "*" + msg.Subject + "*",
	}
	attachment := slack.Attachment{Title: "Commits", Text: "```" + body + "```", Color: "good"}
	if msg.Report != nil {
		added, changed, removed := msg.Report.Totals()
		attachment.Fields = []slack.AttachmentField{
			{Title: "Added", Value: fmt.Sprint(added), Short: true},
			{Title: "Changed", Value: fmt.Sprint(changed), Short: true},
			{Title: "Removed", Value: fmt.Sprint(removed), Short: true},
		}
		if failed := msg.Report.Failed(); len(failed) > 0 {
			attachment.Color = "warning"
			attachment.Fields = append(attachment.Fields, slack.AttachmentField{
				Title: "Failed modules", Value: fmt.Sprint(len(failed)), Short: true,
			})
		}
	}
	webhook.Attachments = []slack.Attachment{attachment}

	s.logger.Info("Posting to Slack", zap.String("channel", s.cfg.Channel))
	if err := slack.PostWebhookContext(ctx, s.cfg.WebhookURL, webhook); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}
