package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()

	homeDir := filepath.Join(tempDir, "home")
	if err := os.MkdirAll(filepath.Join(homeDir, ".cryptolab"), 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	homeConfig := []byte(`http_addr: 0.0.0.0:1111
recipes_dir: /srv/recipes
analysis:
  max_input_bytes: 4096
`)
	if err := os.WriteFile(filepath.Join(homeDir, ".cryptolab", "config.yaml"), homeConfig, 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}

	workDir := filepath.Join(tempDir, "work")
	if err := os.Mkdir(workDir, 0o755); err != nil {
		t.Fatalf("mkdir work: %v", err)
	}
	localConfig := []byte(`http_addr: 127.0.0.1:6500
analysis:
  workers: 2
`)
	if err := os.WriteFile(filepath.Join(workDir, "cryptolab.yml"), localConfig, 0o644); err != nil {
		t.Fatalf("write local config: %v", err)
	}

	t.Setenv("CRYPTOLAB_AUTH_TOKEN", "env-token")
	t.Setenv("CRYPTOLAB_WORKERS", "3")
	chdir(t, workDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPAddr != "127.0.0.1:6500" {
		t.Errorf("expected local http_addr, got %q", cfg.HTTPAddr)
	}
	if cfg.RecipesDir != "/srv/recipes" {
		t.Errorf("expected home recipes_dir, got %q", cfg.RecipesDir)
	}
	if cfg.Analysis.MaxInputBytes != 4096 {
		t.Errorf("expected max_input_bytes 4096, got %d", cfg.Analysis.MaxInputBytes)
	}
	if cfg.Analysis.Workers != 3 {
		t.Errorf("expected env workers 3, got %d", cfg.Analysis.Workers)
	}
	if cfg.AuthToken != "env-token" {
		t.Errorf("expected env auth token, got %q", cfg.AuthToken)
	}
	if cfg.GRPCAddr != Default().GRPCAddr {
		t.Errorf("expected default grpc_addr, got %q", cfg.GRPCAddr)
	}
}

func TestLoadDefaultsWithoutFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:8740" || cfg.Analysis.MaxInputBytes != 32*1024 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "cryptolab.yml"), []byte("http_addr: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}

	if err := os.WriteFile(filepath.Join(dir, "cryptolab.yml"), []byte("analysis:\n  max_input_bytes: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadFileAndEnvErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explicit.yaml")
	if err := os.WriteFile(path, []byte("grpc_addr: 10.0.0.1:9000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.GRPCAddr != "10.0.0.1:9000" {
		t.Errorf("expected grpc_addr from file, got %q", cfg.GRPCAddr)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}

	t.Setenv("CRYPTOLAB_MAX_INPUT_BYTES", "lots")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for non-numeric env override")
	}
}

func TestMarshalMasksToken(t *testing.T) {
	cfg := Default()
	cfg.AuthToken = "hunter2"
	out, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(out), "hunter2") {
		t.Fatalf("token leaked: %s", out)
	}
	if !strings.Contains(string(out), "http_addr: 127.0.0.1:8740") {
		t.Fatalf("unexpected yaml: %s", out)
	}
}
