package scheduler

// Config holds configuration for scheduling runs and modules.
type Config struct {
	// Concurrency is the maximum number of modules running at once.
	Concurrency int `mapstructure:"concurrency" default:"25"`
	// Cron is the schedule of the daemon, in robfig/cron syntax.
	Cron string `mapstructure:"cron" default:"@hourly"`
	// RunOnStart triggers a run as soon as the daemon starts.
	RunOnStart bool `mapstructure:"run_on_start" default:"true"`
}
