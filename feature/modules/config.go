package modules

// Config holds configuration for the module set.
type Config struct {
	// File is an optional YAML file with extra or replacement definitions.
	File string `mapstructure:"file" default:""`
}
