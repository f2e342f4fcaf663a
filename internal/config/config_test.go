package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/schemaforge/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Fatalf("defaults changed (-want +got):\n%s", diff)
	}
	if cfg.MaxDepth != 128 {
		t.Fatalf("request bodies must be depth capped by default, got %d", cfg.MaxDepth)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemaforge.yaml")
	doc := "addr: \":9000\"\nprovider_timeout: 30s\ncors_origins: [\"https://a.example/\"]\nlog_format: json\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCHEMAFORGE_ADDR", ":9100")
	t.Setenv("BACKEND_CORS_ORIGINS", "https://b.example/, https://c.example")
	t.Setenv("SCHEMAFORGE_API_KEY", "sk-env")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9100" || cfg.ProviderTimeout != 30*time.Second || cfg.LogFormat != "json" || cfg.APIKey != "sk-env" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if diff := cmp.Diff([]string{"https://b.example", "https://c.example"}, cfg.CORSOrigins); diff != "" {
		t.Fatalf("origins (-want +got):\n%s", diff)
	}
}

func TestLoad_TimeoutSeconds(t *testing.T) {
	t.Setenv("SCHEMAFORGE_PROVIDER_TIMEOUT", "45")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProviderTimeout != 45*time.Second {
		t.Fatalf("timeout %s", cfg.ProviderTimeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"SCHEMAFORGE_PROVIDER_TIMEOUT": "-5s",
		"SCHEMAFORGE_LOG_LEVEL":        "loud",
		"SCHEMAFORGE_LOG_FORMAT":       "xml",
		"SCHEMAFORGE_MAX_DEPTH":        "deep",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := config.Load(""); err == nil {
				t.Fatalf("%s=%s should be rejected", key, val)
			}
		})
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file should be an error")
	}
}

func TestConfig_Logger(t *testing.T) {
	cfg := config.Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"
	var buf bytes.Buffer
	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}
