package config_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/artpar/familyhub/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 5s

database:
  dsn: ":memory:"

logging:
  level: debug
  format: console

rewards:
  memory_coins: 25

memories:
  partners: ["partner_a", "partner_b"]
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.DSN != ":memory:" {
		t.Errorf("DSN = %s, want :memory:", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v, want debug/console", cfg.Logging)
	}
	if cfg.Rewards.MemoryCoins != 25 {
		t.Errorf("MemoryCoins = %d, want 25", cfg.Rewards.MemoryCoins)
	}
	if !slices.Equal(cfg.Memories.Partners, []string{"partner_a", "partner_b"}) {
		t.Errorf("Partners = %v", cfg.Memories.Partners)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second || cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("default timeouts = %v/%v", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Database.DSN != config.DefaultDSN {
		t.Errorf("default DSN = %s, want %s", cfg.Database.DSN, config.DefaultDSN)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics = %+v", cfg.Metrics)
	}
	if !cfg.OpenAPI.Enabled {
		t.Error("OpenAPI should be enabled by default")
	}
	if cfg.Rewards.MemoryCoins != config.DefaultMemoryCoins {
		t.Errorf("default MemoryCoins = %d, want %d", cfg.Rewards.MemoryCoins, config.DefaultMemoryCoins)
	}
	if !slices.Equal(cfg.Memories.Partners, []string{"partner_a"}) {
		t.Errorf("default Partners = %v", cfg.Memories.Partners)
	}
}

func TestLoad_ExplicitFalseAndZeroKept(t *testing.T) {
	content := `
metrics:
  enabled: false
openapi:
  enabled: false
rewards:
  memory_coins: 0
`
	cfg := writeAndLoad(t, content)

	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should stay false")
	}
	if cfg.OpenAPI.Enabled {
		t.Error("OpenAPI.Enabled should stay false")
	}
	if cfg.Rewards.MemoryCoins != 0 {
		t.Errorf("MemoryCoins = %d, want 0", cfg.Rewards.MemoryCoins)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_FAMILYHUB_DB", "/tmp/expanded.db")

	cfg := writeAndLoad(t, `
database:
  dsn: "${TEST_FAMILYHUB_DB}"
`)

	if cfg.Database.DSN != "/tmp/expanded.db" {
		t.Errorf("DSN = %s, want /tmp/expanded.db", cfg.Database.DSN)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "port out of range",
			content: "server:\n  port: 70000\n",
			wantErr: "server.port must be <= 65535",
		},
		{
			name:    "negative port",
			content: "server:\n  port: -1\n",
			wantErr: "server.port must be >= 1",
		},
		{
			name:    "unknown log level",
			content: "logging:\n  level: verbose\n",
			wantErr: "logging.level must be one of [debug info warn error], got verbose",
		},
		{
			name:    "unknown log format",
			content: "logging:\n  format: xml\n",
			wantErr: "logging.format must be one of [json console]",
		},
		{
			name:    "metrics path without slash",
			content: "metrics:\n  path: metrics\n",
			wantErr: `metrics.path must start with "/"`,
		},
		{
			name:    "negative coins",
			content: "rewards:\n  memory_coins: -5\n",
			wantErr: "rewards.memory_coins must be >= 0",
		},
		{
			name:    "blank partner",
			content: "memories:\n  partners: [\"\"]\n",
			wantErr: "memories.partners[0] is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempConfig(t, tt.content)
			_, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "server: [unclosed")
	if _, err := config.Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/familyhub.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FAMILYHUB_SERVER_HOST", "127.0.0.1")
	t.Setenv("FAMILYHUB_SERVER_PORT", "9191")
	t.Setenv("FAMILYHUB_DATABASE_DSN", "env.db")
	t.Setenv("FAMILYHUB_LOG_LEVEL", "warn")
	t.Setenv("FAMILYHUB_LOG_FORMAT", "console")
	t.Setenv("FAMILYHUB_METRICS_ENABLED", "no")
	t.Setenv("FAMILYHUB_OPENAPI_ENABLED", "0")
	t.Setenv("FAMILYHUB_REWARDS_MEMORY_COINS", "3")
	t.Setenv("FAMILYHUB_MEMORIES_PARTNERS", "partner_a, partner_b ,")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9191 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Database.DSN != "env.db" {
		t.Errorf("DSN = %s, want env.db", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Enabled || cfg.OpenAPI.Enabled {
		t.Errorf("metrics/openapi should be disabled: %+v %+v", cfg.Metrics, cfg.OpenAPI)
	}
	if cfg.Rewards.MemoryCoins != 3 {
		t.Errorf("MemoryCoins = %d, want 3", cfg.Rewards.MemoryCoins)
	}
	if !slices.Equal(cfg.Memories.Partners, []string{"partner_a", "partner_b"}) {
		t.Errorf("Partners = %v", cfg.Memories.Partners)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Rewards.MemoryCoins != config.DefaultMemoryCoins {
		t.Errorf("MemoryCoins = %d, want %d", cfg.Rewards.MemoryCoins, config.DefaultMemoryCoins)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should default to enabled")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("FAMILYHUB_SERVER_PORT", "7070")
	t.Setenv("FAMILYHUB_LOG_LEVEL", "error")

	cfg := writeAndLoad(t, `
server:
  port: 9090
logging:
  level: debug
`)

	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Level = %s, want env override error", cfg.Logging.Level)
	}
}

func TestEnvOverrides_InvalidNumbersIgnored(t *testing.T) {
	t.Setenv("FAMILYHUB_SERVER_PORT", "not-a-number")
	t.Setenv("FAMILYHUB_SERVER_READ_TIMEOUT", "soon")
	t.Setenv("FAMILYHUB_REWARDS_MEMORY_COINS", "many")

	cfg := writeAndLoad(t, `
server:
  port: 9090
  read_timeout: 2s
rewards:
  memory_coins: 4
`)

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 2*time.Second {
		t.Errorf("ReadTimeout = %v, want 2s", cfg.Server.ReadTimeout)
	}
	if cfg.Rewards.MemoryCoins != 4 {
		t.Errorf("MemoryCoins = %d, want 4", cfg.Rewards.MemoryCoins)
	}
}

func TestEnvOverrides_Durations(t *testing.T) {
	t.Setenv("FAMILYHUB_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("FAMILYHUB_SERVER_WRITE_TIMEOUT", "1m")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Server.ReadTimeout != 3*time.Second || cfg.Server.WriteTimeout != time.Minute {
		t.Errorf("timeouts = %v/%v", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}
}

func TestLoadWithFallback_FileExists(t *testing.T) {
	path := writeTempConfig(t, "server:\n  port: 9393\n")

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Server.Port != 9393 {
		t.Errorf("Port = %d, want 9393", cfg.Server.Port)
	}
}

func TestLoadWithFallback_EnvOnly(t *testing.T) {
	t.Setenv("FAMILYHUB_SERVER_PORT", "9494")

	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Server.Port != 9494 {
		t.Errorf("Port = %d, want 9494", cfg.Server.Port)
	}
}

func TestLoadWithFallback_InvalidEnv(t *testing.T) {
	t.Setenv("FAMILYHUB_LOG_LEVEL", "loud")

	if _, err := config.LoadWithFallback(""); err == nil {
		t.Error("expected validation error")
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{" On ", true},
		{"false", false},
		{"0", false},
		{"off", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("FAMILYHUB_METRICS_ENABLED", tt.value)
			cfg, err := config.LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv error: %v", err)
			}
			if cfg.Metrics.Enabled != tt.want {
				t.Errorf("Metrics.Enabled = %v for %q, want %v", cfg.Metrics.Enabled, tt.value, tt.want)
			}
		})
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := &config.Config{}
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	for _, want := range []string{"server.host is required", "database.dsn is required", "metrics.path is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestToYAML_RoundTrip(t *testing.T) {
	cfg := writeAndLoad(t, "rewards:\n  memory_coins: 7\n")

	data, err := config.ToYAML(cfg)
	if err != nil {
		t.Fatalf("ToYAML error: %v", err)
	}
	again, err := config.Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if again.Rewards.MemoryCoins != 7 || again.Server.Port != cfg.Server.Port {
		t.Errorf("round trip changed config: %+v", again)
	}
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := config.Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "familyhub.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
