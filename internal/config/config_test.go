package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg := Load(v)

	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Admin.Token != "" {
		t.Errorf("admin token = %q, must default to empty (fail closed)", cfg.Admin.Token)
	}
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("server.port", 8080)
	v.Set("admin.token", "s3cret")
	v.Set("storage.driver", "postgres")
	v.Set("storage.dsn", "postgres://gate:pw@db/keys")

	cfg := Load(v)

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Admin.Token != "s3cret" {
		t.Errorf("admin token = %q, want s3cret", cfg.Admin.Token)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN != "postgres://gate:pw@db/keys" {
		t.Errorf("storage = %+v, want overridden values", cfg.Storage)
	}
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlasgate.yaml")

	if err := WriteTemplate(path); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("template is not valid yaml: %v", err)
	}
	if cfg.Server.Port != 3000 || cfg.Storage.Driver != "sqlite" {
		t.Errorf("template defaults = %+v", cfg)
	}
	if cfg.Admin.Token != "" {
		t.Error("template must not ship a default admin token")
	}

	// Refuses to clobber an existing file.
	if err := WriteTemplate(path); err == nil {
		t.Error("expected error overwriting existing config")
	}
}

func TestWriteAdminToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlasgate.yaml")

	if err := WriteTemplate(path); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	if err := WriteAdminToken(path, "new-secret"); err != nil {
		t.Fatalf("WriteAdminToken: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Admin.Token != "new-secret" {
		t.Errorf("token = %q, want new-secret", cfg.Admin.Token)
	}
	// The rest of the file survives the edit.
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000 preserved", cfg.Server.Port)
	}
}

func TestWriteAdminToken_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlasgate.yaml")

	if err := WriteAdminToken(path, "fresh"); err != nil {
		t.Fatalf("WriteAdminToken: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Admin.Token != "fresh" {
		t.Errorf("token = %q, want fresh", cfg.Admin.Token)
	}
}
