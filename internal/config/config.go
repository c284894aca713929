package config

import (
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Replay modes, one per subcommand
const (
	ModeResend = "resend"
	ModeReport = "report"
	ModePost   = "post"
)

// Config application configuration structure
type Config struct {
	Mode     string         `yaml:"mode" mapstructure:"mode"`
	DryRun   bool           `yaml:"dry_run" mapstructure:"dry_run"`
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Throttle ThrottleConfig `yaml:"throttle" mapstructure:"throttle"`
	Target   TargetConfig   `yaml:"target" mapstructure:"target"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Payload  PayloadConfig  `yaml:"payload" mapstructure:"payload"`
	Audit    AuditConfig    `yaml:"audit" mapstructure:"audit"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// InputConfig input file configuration
type InputConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	SkipFirstLine bool   `yaml:"skip_first_line" mapstructure:"skip_first_line"`
	// MaxLineBytes bounds a single line; longer lines abort the run
	MaxLineBytes int `yaml:"max_line_bytes" mapstructure:"max_line_bytes"`
}

// ThrottleConfig controls spacing between consecutive records
type ThrottleConfig struct {
	WaitTimeSeconds int           `yaml:"wait_time_seconds" mapstructure:"wait_time_seconds"`
	PollInterval    time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// TargetConfig describes the request issued for each record
type TargetConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	Method string `yaml:"method" mapstructure:"method"`
	// Query holds "name=template" pairs; viper lowercases map keys so a
	// list keeps parameter names intact
	Query          []string          `yaml:"query" mapstructure:"query"`
	Headers        map[string]string `yaml:"headers" mapstructure:"headers"`
	AcceptStatus   []int             `yaml:"accept_status" mapstructure:"accept_status"`
	ResponseFields []string          `yaml:"response_fields" mapstructure:"response_fields"`
	// SplitFields decodes each line as CSV; nil means the mode default
	SplitFields *bool `yaml:"split_fields" mapstructure:"split_fields"`
	MinFields   int   `yaml:"min_fields" mapstructure:"min_fields"`
}

// AuthConfig credentials and identifying headers
type AuthConfig struct {
	Token        string `yaml:"token" mapstructure:"token"`
	Type         string `yaml:"type" mapstructure:"type"`
	Organization string `yaml:"organization" mapstructure:"organization"`
	Client       string `yaml:"client" mapstructure:"client"`
	FunctionsKey string `yaml:"functions_key" mapstructure:"functions_key"`
}

// PayloadConfig per-record payload file lookup
type PayloadConfig struct {
	Directory   string `yaml:"directory" mapstructure:"directory"`
	Extension   string `yaml:"extension" mapstructure:"extension"`
	ContentType string `yaml:"content_type" mapstructure:"content_type"`
}

// AuditConfig audit CSV configuration
type AuditConfig struct {
	Directory string   `yaml:"directory" mapstructure:"directory"`
	Suffix    string   `yaml:"suffix" mapstructure:"suffix"`
	Columns   []string `yaml:"columns" mapstructure:"columns"`
}

// HTTPConfig outbound client configuration, durations in seconds
type HTTPConfig struct {
	Timeout               int   `yaml:"timeout" mapstructure:"timeout"`
	MaxIdleConns          int   `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	IdleConnTimeout       int   `yaml:"idle_conn_timeout" mapstructure:"idle_conn_timeout"`
	ResponseHeaderTimeout int   `yaml:"response_header_timeout" mapstructure:"response_header_timeout"`
	TLSHandshakeTimeout   int   `yaml:"tls_handshake_timeout" mapstructure:"tls_handshake_timeout"`
	TLSInsecureSkipVerify bool  `yaml:"tls_insecure_skip_verify" mapstructure:"tls_insecure_skip_verify"`
	MaxResponseBytes      int64 `yaml:"max_response_bytes" mapstructure:"max_response_bytes"`
	MaxErrorChars         int   `yaml:"max_error_chars" mapstructure:"max_error_chars"`
}

// LogConfig log configuration
type LogConfig struct {
	Level       string        `yaml:"level" mapstructure:"level"`
	FileLogging FileLogConfig `yaml:"file_logging" mapstructure:"file_logging"`
}

// FileLogConfig file log configuration
type FileLogConfig struct {
	Enable     bool   `yaml:"enable" mapstructure:"enable"`
	Path       string `yaml:"path" mapstructure:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// OutputConfig controls CLI output style
type OutputConfig struct {
	Mode    string `yaml:"mode" mapstructure:"mode"`
	Silence bool   `yaml:"silence" mapstructure:"silence"`
	Locale  string `yaml:"locale" mapstructure:"locale"`
}

// LoadConfig load configuration
// If v is nil, a new viper instance will be created
func LoadConfig(configPath string, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v)

	// REQREPLAY_INPUT_PATH -> input.path
	v.SetEnvPrefix("REQREPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// keys without a default are invisible to Unmarshal unless bound
	for _, key := range []string{"target.split_fields", "target.headers"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.reqreplay")
		v.AddConfigPath("/etc/reqreplay")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and environment")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Config file loaded: %s", v.ConfigFileUsed())
	}

	var config Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToStringMapHook,
	))
	if err := v.Unmarshal(&config, decodeHook); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	applyDefaults(&config, v)

	return &config, nil
}

// applyDefaults fills zero-value fields that Unmarshal leaves empty
// and normalizes header maps.
func applyDefaults(cfg *Config, v *viper.Viper) {
	// Bool values always come from viper so env and flags are honored
	cfg.Input.SkipFirstLine = v.GetBool("input.skip_first_line")
	cfg.DryRun = v.GetBool("dry_run")
	if cfg.Input.MaxLineBytes == 0 {
		cfg.Input.MaxLineBytes = v.GetInt("input.max_line_bytes")
	}
	if cfg.Throttle.PollInterval == 0 {
		if d, err := time.ParseDuration(v.GetString("throttle.poll_interval")); err == nil {
			cfg.Throttle.PollInterval = d
		} else {
			cfg.Throttle.PollInterval = time.Second
		}
	}

	if cfg.Auth.Type == "" {
		cfg.Auth.Type = v.GetString("auth.type")
	}
	if cfg.Payload.Extension == "" {
		cfg.Payload.Extension = v.GetString("payload.extension")
	}
	if cfg.Payload.ContentType == "" {
		cfg.Payload.ContentType = v.GetString("payload.content_type")
	}
	if cfg.Audit.Directory == "" {
		cfg.Audit.Directory = v.GetString("audit.directory")
	}
	if len(cfg.Audit.Columns) == 0 {
		cfg.Audit.Columns = v.GetStringSlice("audit.columns")
	}
	if len(cfg.Target.Query) == 0 {
		cfg.Target.Query = v.GetStringSlice("target.query")
	}
	cfg.Target.Method = strings.ToUpper(strings.TrimSpace(cfg.Target.Method))
	cfg.Target.Headers = canonicalizeHeaders(cfg.Target.Headers)

	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = v.GetInt("http.timeout")
	}
	if cfg.HTTP.MaxIdleConns == 0 {
		cfg.HTTP.MaxIdleConns = v.GetInt("http.max_idle_conns")
	}
	if cfg.HTTP.IdleConnTimeout == 0 {
		cfg.HTTP.IdleConnTimeout = v.GetInt("http.idle_conn_timeout")
	}
	if cfg.HTTP.ResponseHeaderTimeout == 0 {
		cfg.HTTP.ResponseHeaderTimeout = v.GetInt("http.response_header_timeout")
	}
	if cfg.HTTP.TLSHandshakeTimeout == 0 {
		cfg.HTTP.TLSHandshakeTimeout = v.GetInt("http.tls_handshake_timeout")
	}
	if cfg.HTTP.MaxResponseBytes == 0 {
		cfg.HTTP.MaxResponseBytes = v.GetInt64("http.max_response_bytes")
	}
	if cfg.HTTP.MaxErrorChars == 0 {
		cfg.HTTP.MaxErrorChars = v.GetInt("http.max_error_chars")
	}
	cfg.HTTP.TLSInsecureSkipVerify = v.GetBool("http.tls_insecure_skip_verify")

	if cfg.Log.Level == "" {
		cfg.Log.Level = v.GetString("log.level")
	}
	cfg.Log.FileLogging.Enable = v.GetBool("log.file_logging.enable")
	cfg.Log.FileLogging.Compress = v.GetBool("log.file_logging.compress")
	if cfg.Log.FileLogging.Path == "" {
		cfg.Log.FileLogging.Path = v.GetString("log.file_logging.path")
	}
	if cfg.Log.FileLogging.MaxSizeMB == 0 {
		cfg.Log.FileLogging.MaxSizeMB = v.GetInt("log.file_logging.max_size_mb")
	}
	if cfg.Log.FileLogging.MaxBackups == 0 {
		cfg.Log.FileLogging.MaxBackups = v.GetInt("log.file_logging.max_backups")
	}
	if cfg.Log.FileLogging.MaxAgeDays == 0 {
		cfg.Log.FileLogging.MaxAgeDays = v.GetInt("log.file_logging.max_age_days")
	}

	if cfg.Output.Mode == "" {
		cfg.Output.Mode = v.GetString("output.mode")
	}
	cfg.Output.Silence = v.GetBool("output.silence")
	if cfg.Output.Locale == "" {
		cfg.Output.Locale = v.GetString("output.locale")
	}
}

// setDefaults set default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "")
	v.SetDefault("dry_run", false)

	v.SetDefault("input.path", "")
	v.SetDefault("input.skip_first_line", false)
	v.SetDefault("input.max_line_bytes", 1024*1024)

	v.SetDefault("throttle.wait_time_seconds", 1)
	v.SetDefault("throttle.poll_interval", "1s")

	v.SetDefault("target.url", "")
	v.SetDefault("target.method", "")
	v.SetDefault("target.query", []string{})
	v.SetDefault("target.accept_status", []int{})
	v.SetDefault("target.response_fields", []string{})
	v.SetDefault("target.min_fields", 0)

	v.SetDefault("auth.token", "")
	v.SetDefault("auth.type", "okta")
	v.SetDefault("auth.organization", "")
	v.SetDefault("auth.client", "")
	v.SetDefault("auth.functions_key", "")

	v.SetDefault("payload.directory", "")
	v.SetDefault("payload.extension", ".csv")
	v.SetDefault("payload.content_type", "text/csv")

	v.SetDefault("audit.directory", ".")
	v.SetDefault("audit.suffix", "")
	v.SetDefault("audit.columns", []string{"Report ID"})

	v.SetDefault("http.timeout", 60)
	v.SetDefault("http.max_idle_conns", 4)
	v.SetDefault("http.idle_conn_timeout", 90)
	v.SetDefault("http.response_header_timeout", 45)
	v.SetDefault("http.tls_handshake_timeout", 10)
	v.SetDefault("http.tls_insecure_skip_verify", false)
	v.SetDefault("http.max_response_bytes", int64(10*1024*1024))
	v.SetDefault("http.max_error_chars", 512)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file_logging.enable", false)
	v.SetDefault("log.file_logging.path", "./reqreplay.log")
	v.SetDefault("log.file_logging.max_size_mb", 10)
	v.SetDefault("log.file_logging.max_backups", 5)
	v.SetDefault("log.file_logging.max_age_days", 30)
	v.SetDefault("log.file_logging.compress", true)

	v.SetDefault("output.mode", "console")
	v.SetDefault("output.silence", false)
	v.SetDefault("output.locale", "en")
}

// Validate validates the configuration for the selected mode
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeResend, ModeReport, ModePost:
	case "":
		return fmt.Errorf("mode cannot be empty")
	default:
		return fmt.Errorf("unknown mode: %s (must be resend, report, or post)", c.Mode)
	}

	if strings.TrimSpace(c.Input.Path) == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if c.Input.MaxLineBytes < 0 {
		return fmt.Errorf("input max line bytes cannot be negative")
	}

	if c.Throttle.WaitTimeSeconds < 0 {
		return fmt.Errorf("throttle wait time cannot be negative")
	}
	if c.Throttle.PollInterval <= 0 {
		return fmt.Errorf("throttle poll interval must be greater than zero")
	}

	if strings.TrimSpace(c.Target.URL) == "" {
		return fmt.Errorf("target url cannot be empty")
	}
	if !strings.HasPrefix(c.Target.URL, "http://") && !strings.HasPrefix(c.Target.URL, "https://") {
		return fmt.Errorf("target url must start with http:// or https://")
	}
	switch c.Target.Method {
	case "", http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported target method: %s", c.Target.Method)
	}
	for i, status := range c.Target.AcceptStatus {
		if status < 100 || status > 599 {
			return fmt.Errorf("target accept_status[%d] must be between 100 and 599", i)
		}
	}
	if c.Target.MinFields < 0 {
		return fmt.Errorf("target min fields cannot be negative")
	}
	for i, pair := range c.Target.Query {
		if name, _, ok := strings.Cut(pair, "="); !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("target query[%d] must be name=value", i)
		}
	}
	for key := range c.Target.Headers {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("target header name cannot be empty")
		}
	}

	if strings.TrimSpace(c.Auth.Token) == "" {
		return fmt.Errorf("auth token cannot be empty")
	}

	if c.Mode == ModePost && strings.TrimSpace(c.Payload.Directory) == "" {
		return fmt.Errorf("payload directory is required in post mode")
	}

	if strings.TrimSpace(c.Audit.Directory) == "" {
		c.Audit.Directory = "."
	}
	if len(c.Audit.Columns) == 0 {
		return fmt.Errorf("audit columns cannot be empty")
	}

	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http timeout cannot be negative")
	}
	if c.HTTP.MaxResponseBytes < 0 {
		return fmt.Errorf("http max response bytes cannot be negative")
	}

	switch strings.ToLower(c.Output.Mode) {
	case "", "console", "json":
		if c.Output.Mode == "" {
			c.Output.Mode = "console"
		}
	default:
		return fmt.Errorf("output mode must be 'console' or 'json'")
	}
	if strings.TrimSpace(c.Output.Locale) == "" {
		c.Output.Locale = "en"
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Log.FileLogging.Enable {
		if c.Log.FileLogging.Path == "" {
			return fmt.Errorf("log file path cannot be empty when file logging is enabled")
		}
		if c.Log.FileLogging.MaxSizeMB < 1 {
			return fmt.Errorf("log file max size must be at least 1MB")
		}
		if c.Log.FileLogging.MaxBackups < 0 {
			return fmt.Errorf("log file max backups cannot be negative")
		}
		if c.Log.FileLogging.MaxAgeDays < 0 {
			return fmt.Errorf("log file max age cannot be negative")
		}
	}

	return nil
}

// WaitTime returns the configured throttle interval
func (c *Config) WaitTime() time.Duration {
	return time.Duration(c.Throttle.WaitTimeSeconds) * time.Second
}

func canonicalizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return headers
	}
	canonical := make(map[string]string, len(headers))
	for key, value := range headers {
		canonical[http.CanonicalHeaderKey(key)] = value
	}
	return canonical
}

// stringToStringMapHook decodes "name=value,name2=value2", the form maps take
// in environment variables, into a map[string]string.
func stringToStringMapHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(map[string]string{}) {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	out := make(map[string]string)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid map entry %q, expected name=value", pair)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, nil
}
