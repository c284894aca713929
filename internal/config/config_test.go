package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfig() *Config {
	return &Config{
		Mode: ModeReport,
		Input: InputConfig{
			Path:         "./reports.csv",
			MaxLineBytes: 1024,
		},
		Throttle: ThrottleConfig{
			WaitTimeSeconds: 2,
			PollInterval:    time.Second,
		},
		Target: TargetConfig{
			URL: "https://staging.prime.cdc.gov/api/waters/report/{id}/history",
		},
		Auth: AuthConfig{
			Token: "secret",
			Type:  "okta",
		},
		Audit: AuditConfig{
			Directory: ".",
			Columns:   []string{"Report ID"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Default config", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfigFile(t, "log:\n  level: info\n"), viper.New())
		if err != nil {
			t.Fatalf("Failed to load default config: %v", err)
		}

		if cfg.Throttle.WaitTimeSeconds != 1 {
			t.Errorf("Expected default wait time 1, got %d", cfg.Throttle.WaitTimeSeconds)
		}
		if cfg.Throttle.PollInterval != time.Second {
			t.Errorf("Expected default poll interval 1s, got %v", cfg.Throttle.PollInterval)
		}
		if cfg.Auth.Type != "okta" {
			t.Errorf("Expected default auth type okta, got %s", cfg.Auth.Type)
		}
		if cfg.Payload.Extension != ".csv" || cfg.Payload.ContentType != "text/csv" {
			t.Errorf("Unexpected payload defaults: %+v", cfg.Payload)
		}
		if len(cfg.Audit.Columns) != 1 || cfg.Audit.Columns[0] != "Report ID" {
			t.Errorf("Unexpected audit columns: %v", cfg.Audit.Columns)
		}
		if cfg.HTTP.Timeout != 60 {
			t.Errorf("Expected default http timeout 60, got %d", cfg.HTTP.Timeout)
		}
		if cfg.Output.Mode != "console" {
			t.Errorf("Expected default output mode console, got %s", cfg.Output.Mode)
		}
	})
}

func TestLoadConfigWithFile(t *testing.T) {
	configContent := `
input:
  path: "/data/reports.csv"
  skip_first_line: true

throttle:
  wait_time_seconds: 5
  poll_interval: 250ms

target:
  url: "https://rs.example/api/waters"
  method: post
  query:
    - "processing=async"
    - "reportId={id}"
  headers:
    x-custom-tag: replay

auth:
  token: "abc"
  client: "simple_report"
  functions_key: "fk"

payload:
  directory: "/data/payloads"

audit:
  columns: ["Report ID", "Sender"]

log:
  level: "debug"
`

	cfg, err := LoadConfig(writeConfigFile(t, configContent), viper.New())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Input.Path != "/data/reports.csv" || !cfg.Input.SkipFirstLine {
		t.Errorf("Unexpected input config: %+v", cfg.Input)
	}
	if cfg.Throttle.WaitTimeSeconds != 5 {
		t.Errorf("Expected wait time 5, got %d", cfg.Throttle.WaitTimeSeconds)
	}
	if cfg.Throttle.PollInterval != 250*time.Millisecond {
		t.Errorf("Expected poll interval 250ms, got %v", cfg.Throttle.PollInterval)
	}
	if cfg.Target.Method != "POST" {
		t.Errorf("Expected method to be upper-cased, got %s", cfg.Target.Method)
	}
	if len(cfg.Target.Query) != 2 || cfg.Target.Query[1] != "reportId={id}" {
		t.Errorf("Query parameter names must keep their case: %v", cfg.Target.Query)
	}
	if cfg.Target.Headers["X-Custom-Tag"] != "replay" {
		t.Errorf("Expected canonical header key, got %v", cfg.Target.Headers)
	}
	if cfg.Auth.Client != "simple_report" || cfg.Auth.FunctionsKey != "fk" {
		t.Errorf("Unexpected auth config: %+v", cfg.Auth)
	}
	if len(cfg.Audit.Columns) != 2 {
		t.Errorf("Expected 2 audit columns, got %v", cfg.Audit.Columns)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level 'debug', got %s", cfg.Log.Level)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("REQREPLAY_INPUT_PATH", "/env/input.csv")
	t.Setenv("REQREPLAY_INPUT_SKIP_FIRST_LINE", "true")
	t.Setenv("REQREPLAY_THROTTLE_WAIT_TIME_SECONDS", "7")
	t.Setenv("REQREPLAY_AUTH_TOKEN", "env-token")

	cfg, err := LoadConfig(writeConfigFile(t, "log:\n  level: info\n"), viper.New())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Input.Path != "/env/input.csv" {
		t.Errorf("Expected input path from env, got %s", cfg.Input.Path)
	}
	if !cfg.Input.SkipFirstLine {
		t.Error("Expected skip_first_line from env")
	}
	if cfg.Throttle.WaitTimeSeconds != 7 {
		t.Errorf("Expected wait time 7 from env, got %d", cfg.Throttle.WaitTimeSeconds)
	}
	if cfg.Auth.Token != "env-token" {
		t.Errorf("Expected token from env, got %s", cfg.Auth.Token)
	}
}

func TestLoadConfigTargetFromEnvironment(t *testing.T) {
	t.Setenv("REQREPLAY_TARGET_SPLIT_FIELDS", "false")
	t.Setenv("REQREPLAY_TARGET_HEADERS", "x-trace=1, x-team=qa")

	cfg, err := LoadConfig(writeConfigFile(t, "log:\n  level: info\n"), viper.New())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Target.SplitFields == nil || *cfg.Target.SplitFields {
		t.Errorf("Expected split_fields=false from env, got %v", cfg.Target.SplitFields)
	}
	if cfg.Target.Headers["X-Trace"] != "1" || cfg.Target.Headers["X-Team"] != "qa" {
		t.Errorf("Expected canonical headers from env, got %v", cfg.Target.Headers)
	}
}

func TestLoadConfigTargetUnsetStaysDefault(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, "log:\n  level: info\n"), viper.New())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Target.SplitFields != nil {
		t.Errorf("Expected split_fields to follow the mode default, got %v", *cfg.Target.SplitFields)
	}
	if len(cfg.Target.Headers) != 0 {
		t.Errorf("Expected no extra headers, got %v", cfg.Target.Headers)
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml", viper.New())
	if err == nil {
		t.Error("Expected error for missing config file")
	}
	if cfg != nil {
		t.Error("Expected nil config for missing file")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:   "Valid config",
			mutate: func(*Config) {},
		},
		{
			name:     "Empty mode",
			mutate:   func(c *Config) { c.Mode = "" },
			errorMsg: "mode cannot be empty",
		},
		{
			name:     "Unknown mode",
			mutate:   func(c *Config) { c.Mode = "replay-all" },
			errorMsg: "unknown mode",
		},
		{
			name:     "Empty input path",
			mutate:   func(c *Config) { c.Input.Path = " " },
			errorMsg: "input path cannot be empty",
		},
		{
			name:     "Negative wait time",
			mutate:   func(c *Config) { c.Throttle.WaitTimeSeconds = -1 },
			errorMsg: "throttle wait time cannot be negative",
		},
		{
			name:     "Zero poll interval",
			mutate:   func(c *Config) { c.Throttle.PollInterval = 0 },
			errorMsg: "poll interval must be greater than zero",
		},
		{
			name:     "Empty target",
			mutate:   func(c *Config) { c.Target.URL = "" },
			errorMsg: "target url cannot be empty",
		},
		{
			name:     "Target without scheme",
			mutate:   func(c *Config) { c.Target.URL = "rs.example/api" },
			errorMsg: "target url must start with",
		},
		{
			name:     "Unsupported method",
			mutate:   func(c *Config) { c.Target.Method = "TRACE" },
			errorMsg: "unsupported target method",
		},
		{
			name:     "Bad accept status",
			mutate:   func(c *Config) { c.Target.AcceptStatus = []int{200, 42} },
			errorMsg: "accept_status[1]",
		},
		{
			name:     "Malformed query pair",
			mutate:   func(c *Config) { c.Target.Query = []string{"reportId"} },
			errorMsg: "target query[0] must be name=value",
		},
		{
			name:     "Missing token",
			mutate:   func(c *Config) { c.Auth.Token = "" },
			errorMsg: "auth token cannot be empty",
		},
		{
			name:     "Post mode without payload directory",
			mutate:   func(c *Config) { c.Mode = ModePost },
			errorMsg: "payload directory is required",
		},
		{
			name:     "Invalid output mode",
			mutate:   func(c *Config) { c.Output.Mode = "xml" },
			errorMsg: "output mode must be",
		},
		{
			name:     "Invalid log level",
			mutate:   func(c *Config) { c.Log.Level = "invalid" },
			errorMsg: "invalid log level",
		},
		{
			name: "File logging enabled but empty path",
			mutate: func(c *Config) {
				c.Log.FileLogging = FileLogConfig{Enable: true}
			},
			errorMsg: "log file path cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("Expected no error, but got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing '%s', but got no error", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestWaitTime(t *testing.T) {
	cfg := validConfig()
	if cfg.WaitTime() != 2*time.Second {
		t.Fatalf("expected 2s, got %v", cfg.WaitTime())
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "reqreplay_test_config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config content: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}
