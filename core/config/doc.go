// Package config provides configuration management for the change monitor.
//
// It utilizes Viper for loading configuration from an optional config.yaml,
// a .env file and environment variables. Defaults come from the `default`
// struct tags of every partial configuration.
//
// # Configuration Structure
//
// The Config struct is divided into subsections owned by their packages:
//   - Jamf: server URL, credentials, request timeout, breaker and retries
//   - Snapshot: snapshot path and dry-run switch
//   - Schedule: module concurrency (25), daemon cron and run on start
//   - Modules: extra YAML module definitions
//   - Git: commit author
//   - Mail and Slack: notification sinks
//   - Server: status API address and API key
//   - Storage: S3/MinIO report archive
//   - Database: run history
//   - Log: logging level, format and file
//
// Environment variables use the SECTION_KEY form, e.g. JAMF_URL or
// SCHEDULE_CONCURRENCY.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Jamf.URL)
package config
