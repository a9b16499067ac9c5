package server

import "fmt"

// Config holds configuration for the HTTP status server.
type Config struct {
	// Enabled starts the status API in daemon mode.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Host is the interface the server binds to.
	Host string `mapstructure:"host" default:""`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
