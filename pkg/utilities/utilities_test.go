package utilities_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

type mockConfigJson struct {
	Name  string `json:"name"`
	Debug bool   `json:"debug"`
}

type mockConfig struct {
	Name  string
	Debug bool
}

func (mcj mockConfigJson) ConvertToDomain() mockConfig {
	return mockConfig{Name: mcj.Name, Debug: mcj.Debug}
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data, err := json.Marshal(mockConfigJson{Name: "compliance-node", Debug: true})
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := utilities.ReadConfig[mockConfigJson](path)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, mockConfig{Name: "compliance-node", Debug: true}) {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := utilities.ReadConfig[mockConfigJson](filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestConvertJsonArrayToDomain(t *testing.T) {
	out := utilities.ConvertJsonArrayToDomain[mockConfigJson]([]mockConfigJson{{Name: "a"}, {Name: "b", Debug: true}})
	if len(out) != 2 || out[1].Name != "b" || !out[1].Debug {
		t.Fatalf("unexpected conversion %+v", out)
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ZKC_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("ZKC_TEST_VALUE", "")
	os.Unsetenv("ZKC_TEST_VALUE")

	if err := utilities.LoadEnv(path, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	v, err := utilities.RequireEnv("ZKC_TEST_VALUE")
	if err != nil || v != "from-file" {
		t.Fatalf("expected value from env file, got %q (%v)", v, err)
	}
	if got := utilities.EnvOrDefault("ZKC_TEST_UNSET_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestTernary(t *testing.T) {
	if utilities.Ternary(true, 1, 2) != 1 {
		t.Fatalf("ternary picked the wrong branch")
	}
	if utilities.Ternary(false, "a", "b") != "b" {
		t.Fatalf("ternary picked the wrong branch")
	}
}
