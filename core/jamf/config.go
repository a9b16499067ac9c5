package jamf

// Config holds configuration for the Jamf Pro connection.
type Config struct {
	// URL is the base URL of the Jamf Pro server (e.g. https://example.jamfcloud.com).
	URL string `mapstructure:"url" default:""`
	// Username for Basic authentication and token requests.
	Username string `mapstructure:"username" default:""`
	// Password for Basic authentication and token requests.
	Password string `mapstructure:"password" default:""`
	// TimeoutSeconds bounds every HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"240"`
	// BreakerFailures is the number of consecutive failures that opens the circuit breaker.
	BreakerFailures int `mapstructure:"breaker_failures" default:"5"`
	// BreakerCooldownSeconds is how long the breaker stays open.
	BreakerCooldownSeconds int `mapstructure:"breaker_cooldown_seconds" default:"30"`
	// Retries is the number of attempts per request made by the fetcher.
	Retries int `mapstructure:"retries" default:"4"`
}
