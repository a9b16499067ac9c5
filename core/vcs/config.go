package vcs

// Config holds the commit identity.
type Config struct {
	// Name is the author and committer name.
	Name string `mapstructure:"name" default:"Jamf Change Monitor"`
	// Email is the author and committer email.
	Email string `mapstructure:"email" default:"change-monitor@localhost"`
}
