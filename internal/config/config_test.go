package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SOURCE_DOCUMENT_ID", "doc-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Errorf("redis default = %q", cfg.Redis.Address)
	}
	if cfg.Ingest.RefreshInterval != 15*time.Minute {
		t.Errorf("refresh interval default = %v", cfg.Ingest.RefreshInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SOURCE_DOCUMENT_ID", "doc-1")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DSN", "postgres://test")
	t.Setenv("REFRESH_INTERVAL", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.DSN != "postgres://test" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Ingest.RefreshInterval != time.Minute {
		t.Errorf("refresh interval = %v, want 1m", cfg.Ingest.RefreshInterval)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 7070
source:
  document_id: from-file
  api_key: secret
ingest:
  refresh_interval: 30s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RULES_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Source.DocumentID != "from-file" || cfg.Source.APIKey != "secret" {
		t.Errorf("source = %+v", cfg.Source)
	}
	if cfg.Ingest.RefreshInterval != 30*time.Second {
		t.Errorf("refresh interval = %v, want 30s", cfg.Ingest.RefreshInterval)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "source:\n  document_id: from-file\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RULES_CONFIG_FILE", path)
	t.Setenv("SOURCE_DOCUMENT_ID", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source.DocumentID != "from-env" {
		t.Errorf("document id = %q, want env to win", cfg.Source.DocumentID)
	}
}

func TestValidate(t *testing.T) {
	if _, err := Load(); err == nil {
		t.Error("Load must fail without a source document ID")
	}

	t.Setenv("SOURCE_DOCUMENT_ID", "doc-1")
	t.Setenv("SERVER_PORT", "99999")
	if _, err := Load(); err == nil {
		t.Error("Load must reject an out-of-range port")
	}
}
