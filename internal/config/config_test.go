package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "/tmp/folio-test/documents.db"
  snapshot_dir: "/tmp/folio-test/snapshots"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/tmp/folio-test/documents.db" {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if !cfg.Metrics.EnabledOrDefault() {
		t.Error("metrics should default to enabled when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_metricsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
metrics:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Metrics.EnabledOrDefault() {
		t.Error("metrics enabled: false should stick, not be overwritten by the default")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./data/db/documents.db"
  snapshot_dir: "./data/snapshots"
watch:
  directories: ["./dev/sample"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "documents.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantSnap := filepath.Join(dir, "data", "snapshots")
	if cfg.Storage.SnapshotDir != wantSnap {
		t.Errorf("snapshot_dir = %s, want %s", cfg.Storage.SnapshotDir, wantSnap)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	wantWatch := filepath.Join(dir, "dev", "sample")
	if cfg.Watch.Directories[0] != wantWatch {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], wantWatch)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}

func TestLoad_malformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a: mapping"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should fail to parse")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("default limit: got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Search.MaxLimit != 100 {
		t.Errorf("default max limit: got %d", cfg.Search.MaxLimit)
	}
	if cfg.Search.SnippetLength != 200 {
		t.Errorf("default snippet length: got %d", cfg.Search.SnippetLength)
	}
	if cfg.Search.CacheSize != 256 {
		t.Errorf("default cache size: got %d", cfg.Search.CacheSize)
	}
	if cfg.Storage.SnapshotDir == "" {
		t.Error("snapshot dir should have a default")
	}
	if cfg.Watch.Extensions == nil {
		t.Error("watch extensions should be set by default")
	}
	if len(cfg.Watch.Extensions) != 7 || cfg.Watch.Extensions[0] != ".txt" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
}

func TestApplyDefaults_recursiveFlag(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive != nil {
		t.Error("recursive should stay nil with no watch directories")
	}
	if !cfg.Watch.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}

	cfg = &Config{Watch: WatchConfig{Directories: []string{"/tmp"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should be set true when directories are configured")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	f := false
	cfg := &Config{
		Debug:  true,
		Server: ServerConfig{Host: "0.0.0.0", Port: 7070},
		Storage: StorageConfig{
			DatabasePath: "/var/lib/folio/documents.db",
			SnapshotDir:  "/var/lib/folio/snapshots",
		},
		Watch:   WatchConfig{Directories: []string{"/srv/docs"}},
		Metrics: MetricsConfig{Enabled: &f},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Host != "0.0.0.0" || loaded.Server.Port != 7070 {
		t.Errorf("server round trip: %+v", loaded.Server)
	}
	if loaded.Storage.DatabasePath != "/var/lib/folio/documents.db" {
		t.Errorf("database path round trip: %s", loaded.Storage.DatabasePath)
	}
	if loaded.Metrics.EnabledOrDefault() {
		t.Error("metrics enabled=false lost in round trip")
	}
	if len(loaded.Watch.Directories) != 1 || loaded.Watch.Directories[0] != "/srv/docs" {
		t.Errorf("watch directories round trip: %v", loaded.Watch.Directories)
	}
}
