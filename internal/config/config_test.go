package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("unexpected default port: %d", cfg.Server.Port)
	}
	if cfg.Index.Dir != "data/guideline_index" {
		t.Errorf("unexpected default index dir: %q", cfg.Index.Dir)
	}
}

func TestLoadYAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PASS", "hunter2")

	path := filepath.Join(t.TempDir(), "chroniccare.yaml")
	contents := `
server:
  port: 9090
database:
  host: db.internal
  password: ${TEST_DB_PASS}
ollama:
  model: mistral
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("yaml port not applied: %d", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("yaml host not applied: %q", cfg.Database.Host)
	}
	if cfg.Database.Password != "hunter2" {
		t.Errorf("env expansion failed: %q", cfg.Database.Password)
	}
	if cfg.Ollama.Model != "mistral" {
		t.Errorf("yaml model not applied: %q", cfg.Ollama.Model)
	}
	// Fields the file omits keep their defaults.
	if cfg.Database.Port != 5432 {
		t.Errorf("default db port lost: %d", cfg.Database.Port)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("GUIDELINE_INDEX_DIR", "/srv/index")

	path := filepath.Join(t.TempDir(), "chroniccare.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("env must win over file, got %d", cfg.Server.Port)
	}
	if cfg.Index.Dir != "/srv/index" {
		t.Errorf("index dir override lost: %q", cfg.Index.Dir)
	}
}

func TestConnString(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432,
		Username: "postgres", Password: "pw",
		Database: "chroniccare", Schema: "public",
	}
	want := "postgres://postgres:pw@localhost:5432/chroniccare?sslmode=disable&search_path=public"
	if got := d.ConnString(); got != want {
		t.Fatalf("ConnString() = %q, want %q", got, want)
	}
}
