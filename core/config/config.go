package config

import (
	"errors"
	"reflect"
	"strings"

	"change-monitor/core/database"
	"change-monitor/core/jamf"
	"change-monitor/core/logger"
	"change-monitor/core/notify"
	"change-monitor/core/scheduler"
	"change-monitor/core/server"
	"change-monitor/core/snapshot"
	"change-monitor/core/storage"
	"change-monitor/core/vcs"
	"change-monitor/feature/modules"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations owned by their packages.
type Config struct {
	// Jamf holds the Jamf Pro connection.
	Jamf jamf.Config `mapstructure:"jamf"`
	// Snapshot holds the snapshot location and dry-run switch.
	Snapshot snapshot.Config `mapstructure:"snapshot"`
	// Schedule holds the module concurrency and the daemon schedule.
	Schedule scheduler.Config `mapstructure:"schedule"`
	// Modules points to extra module definitions.
	Modules modules.Config `mapstructure:"modules"`
	// Git holds the commit identity.
	Git vcs.Config `mapstructure:"git"`
	// Mail holds the SMTP notification settings.
	Mail notify.MailConfig `mapstructure:"mail"`
	// Slack holds the webhook notification settings.
	Slack notify.SlackConfig `mapstructure:"slack"`
	// Server holds configuration for the HTTP status server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the report archive (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run history database.
	Database database.Config `mapstructure:"database"`
}

// LoadConfig loads configuration from path/config.yaml, the .env file and
// environment variables, in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// A missing .env is normal in production.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Map environment variables to nested keys (e.g. JAMF_URL -> jamf.url)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
