package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig mirrors the atlasgate.yaml configuration file layout.
type YAMLConfig struct {
	Server  ServerYAML  `yaml:"server"`
	Admin   AdminYAML   `yaml:"admin"`
	Storage StorageYAML `yaml:"storage"`
	Logging LoggingYAML `yaml:"logging"`
}

// ServerYAML controls the HTTP listener in the config file.
type ServerYAML struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	UI   bool   `yaml:"ui"`
}

// AdminYAML holds the admin gate secrets in the config file.
type AdminYAML struct {
	Token     string `yaml:"token"`
	JWTSecret string `yaml:"jwt_secret,omitempty"`
}

// StorageYAML selects the key store backend in the config file.
type StorageYAML struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoggingYAML controls log output in the config file.
type LoggingYAML struct {
	Level string `yaml:"level"`
}

const templateHeader = `# atlasgate configuration.
# Every value can also be set via environment variables with the ATLAS_
# prefix, e.g. ATLAS_ADMIN_TOKEN, ATLAS_STORAGE_DSN, ATLAS_SERVER_PORT.
#
# admin.token has no default: while it is empty, all admin endpoints are
# denied and no keys can be issued over HTTP.
`

// WriteTemplate writes a commented starter config file to path. It refuses
// to overwrite an existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	tmpl := YAMLConfig{
		Server:  ServerYAML{Host: "0.0.0.0", Port: 3000, UI: true},
		Admin:   AdminYAML{Token: ""},
		Storage: StorageYAML{Driver: "sqlite", DSN: "atlasgate.db"},
		Logging: LoggingYAML{Level: "info"},
	}

	body, err := yaml.Marshal(&tmpl)
	if err != nil {
		return fmt.Errorf("marshal config template: %w", err)
	}

	return os.WriteFile(path, append([]byte(templateHeader), body...), 0600)
}

// WriteAdminToken sets admin.token in the config file at path, creating the
// file from the template when it doesn't exist yet. Used by the CLI so the
// secret never has to appear in shell history.
func WriteAdminToken(path, token string) error {
	var cfg YAMLConfig

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		cfg = YAMLConfig{
			Server:  ServerYAML{Host: "0.0.0.0", Port: 3000, UI: true},
			Storage: StorageYAML{Driver: "sqlite", DSN: "atlasgate.db"},
			Logging: LoggingYAML{Level: "info"},
		}
	default:
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg.Admin.Token = token

	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, body, 0600)
}
