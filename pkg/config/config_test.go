package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("NOTELY_TEST_NAME", "from-env")
	path := writeFile(t, "name: ${NOTELY_TEST_NAME}\nport: 9090\n")

	var cfg sample
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" || cfg.Port != 9090 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeFile(t, "name: x\nport: 0\n")

	var cfg sample
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOptionalKeepsDefaults(t *testing.T) {
	cfg := sample{Name: "default", Port: 8080}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.Name != "default" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}

	cfg = sample{}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("defaults should still be validated")
	}
}

func TestLoadOptionalOverridesDefaults(t *testing.T) {
	path := writeFile(t, "port: 7000\n")
	cfg := sample{Name: "default", Port: 8080}
	if err := LoadOptional(path, &cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.Name != "default" || cfg.Port != 7000 {
		t.Errorf("cfg = %+v", cfg)
	}
}
