package config

import (
	"github.com/spf13/viper"
)

// Config is the immutable process configuration. It is built exactly once at
// startup and passed explicitly into the store, service, and server
// constructors; request handlers never read ambient global state.
type Config struct {
	Server  ServerConfig
	Admin   AdminConfig
	Storage StorageConfig
	Logging LoggingConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host     string
	Port     int
	EnableUI bool
}

// AdminConfig holds the admin gate secrets. An empty Token means the gate is
// unconfigured and denies everything; there is deliberately no default.
type AdminConfig struct {
	Token     string
	JWTSecret string
}

// StorageConfig selects the key store backend. Driver is one of "sqlite",
// "postgres", or "mysql"; DSN is the driver-specific connection string
// (a file path for sqlite).
type StorageConfig struct {
	Driver string
	DSN    string
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string
}

// SetDefaults registers the recognized options and their defaults on v.
// The admin token has no default on purpose.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.ui", true)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "atlasgate.db")
	v.SetDefault("logging.level", "info")
}

// Load builds the Config from the given viper instance, which the CLI has
// already pointed at the config file, environment, and flags.
func Load(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Host:     v.GetString("server.host"),
			Port:     v.GetInt("server.port"),
			EnableUI: v.GetBool("server.ui"),
		},
		Admin: AdminConfig{
			Token:     v.GetString("admin.token"),
			JWTSecret: v.GetString("admin.jwt_secret"),
		},
		Storage: StorageConfig{
			Driver: v.GetString("storage.driver"),
			DSN:    v.GetString("storage.dsn"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("logging.level"),
		},
	}
}
