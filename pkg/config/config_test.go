package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Index.Workers != 4 {
		t.Errorf("Index.Workers = %d, want 4", cfg.Index.Workers)
	}
	if cfg.Kafka.Topics.IndexComplete != "index.complete" {
		t.Errorf("IndexComplete topic = %q", cfg.Kafka.Topics.IndexComplete)
	}
	if cfg.Redis.Enabled || cfg.Kafka.Enabled || cfg.Postgres.Enabled {
		t.Error("optional integrations should be disabled by default")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
index:
  dictionaryFile: /tmp/dict
  workers: 8
redis:
  enabled: true
  cacheTTL: 30s
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BQ_LOGGING_FORMAT", "json")
	t.Setenv("BQ_SEARCH_WORKERS", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Index.DictionaryFile != "/tmp/dict" {
		t.Errorf("DictionaryFile = %q", cfg.Index.DictionaryFile)
	}
	if cfg.Index.PostingsFile != "postings.txt" {
		t.Errorf("PostingsFile default lost: %q", cfg.Index.PostingsFile)
	}
	if cfg.Index.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Index.Workers)
	}
	if !cfg.Redis.Enabled || cfg.Redis.CacheTTL != 30*time.Second {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Search.Workers != 2 {
		t.Errorf("Search.Workers = %d, want 2", cfg.Search.Workers)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("index:\n  workers: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for zero workers")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
