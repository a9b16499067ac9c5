package notify

// MailConfig configures the SMTP mailer. Mail is disabled while Host or To is empty.
type MailConfig struct {
	// Host is the SMTP server host name.
	Host string `mapstructure:"host" default:""`
	// Port is the SMTP server port.
	Port int `mapstructure:"port" default:"25"`
	// Username enables PLAIN authentication when set.
	Username string `mapstructure:"username" default:""`
	// Password for PLAIN authentication.
	Password string `mapstructure:"password" default:""`
	// StartTLS upgrades the connection when the server supports it.
	StartTLS bool `mapstructure:"starttls" default:"true"`
	// FromName is the display name of the sender.
	FromName string `mapstructure:"from_name" default:"Jamf Change Monitor"`
	// From is the sender address.
	From string `mapstructure:"from" default:"jamf@example.com"`
	// To is a comma separated list of recipients.
	To string `mapstructure:"to" default:""`
	// Subject prefixes the subject line of every mail.
	Subject string `mapstructure:"subject" default:"Jamf Changes"`
	// TimeoutSeconds bounds the whole SMTP conversation.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
}

// Enabled reports whether enough is configured to send mail.
func (c MailConfig) Enabled() bool { return c.Host != "" && c.To != "" }

// SlackConfig configures the Slack webhook sink.
type SlackConfig struct {
	// WebhookURL is the incoming webhook; Slack is disabled while it is empty.
	WebhookURL string `mapstructure:"webhook_url" default:""`
	// Channel overrides the webhook default channel.
	Channel string `mapstructure:"channel" default:""`
	// Username overrides the webhook default user name.
	Username string `mapstructure:"username" default:"change-monitor"`
}

// Enabled reports whether a webhook is configured.
func (c SlackConfig) Enabled() bool { return c.WebhookURL != "" }
