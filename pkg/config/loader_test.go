package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "mcarptif" {
		t.Errorf("expected app name 'mcarptif', got %s", cfg.App.Name)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Batch.VNDMaxIterations != 5 {
		t.Errorf("expected vnd_max_iterations 5, got %d", cfg.Batch.VNDMaxIterations)
	}
	if cfg.Batch.OutputFilePrefix != "sol-" {
		t.Errorf("expected output file prefix 'sol-', got %s", cfg.Batch.OutputFilePrefix)
	}
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: custom-batch
  version: 2.0.0
  environment: staging
batch:
  input_dir: /data/in
  output_dir: /data/out
log:
  level: debug
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader(WithConfigPaths(configPath))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-batch" {
		t.Errorf("expected app name 'custom-batch', got %s", cfg.App.Name)
	}
	if cfg.App.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %s", cfg.App.Version)
	}
	if cfg.Batch.InputDir != "/data/in" {
		t.Errorf("expected input dir '/data/in', got %s", cfg.Batch.InputDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Log.Level)
	}
}

func TestLoader_LoadFromEnv(t *testing.T) {
	os.Setenv("MCARPTIF_APP_NAME", "env-batch")
	os.Setenv("MCARPTIF_BATCH_VND_MAX_ITERATIONS", "8")
	defer func() {
		os.Unsetenv("MCARPTIF_APP_NAME")
		os.Unsetenv("MCARPTIF_BATCH_VND_MAX_ITERATIONS")
	}()

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-batch" {
		t.Errorf("expected app name 'env-batch', got %s", cfg.App.Name)
	}
	if cfg.Batch.VNDMaxIterations != 8 {
		t.Errorf("expected vnd_max_iterations 8, got %d", cfg.Batch.VNDMaxIterations)
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: file-batch
batch:
  vnd_max_iterations: 3
`
	os.WriteFile(configPath, []byte(configContent), 0644)

	os.Setenv("MCARPTIF_APP_NAME", "env-override")
	defer os.Unsetenv("MCARPTIF_APP_NAME")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-override" {
		t.Errorf("expected env override, got %s", cfg.App.Name)
	}
	// Value not overridden by env should come from the file.
	if cfg.Batch.VNDMaxIterations != 3 {
		t.Errorf("expected vnd_max_iterations from file 3, got %d", cfg.Batch.VNDMaxIterations)
	}
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	os.Setenv("CUSTOM_APP_NAME", "custom-prefix-batch")
	defer os.Unsetenv("CUSTOM_APP_NAME")

	cfg, err := NewLoader(WithEnvPrefix("CUSTOM_")).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-prefix-batch" {
		t.Errorf("expected 'custom-prefix-batch', got %s", cfg.App.Name)
	}
}

func TestMustLoad_Success(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustLoad should not panic with valid config")
		}
	}()

	cfg := MustLoad()
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoad_Simple(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoader_ConfigEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.yaml")

	configContent := `
app:
  name: config-env-var-batch
`
	os.WriteFile(configPath, []byte(configContent), 0644)

	os.Setenv("CONFIG_PATH", configPath)
	defer os.Unsetenv("CONFIG_PATH")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "config-env-var-batch" {
		t.Errorf("expected 'config-env-var-batch', got %s", cfg.App.Name)
	}
}
