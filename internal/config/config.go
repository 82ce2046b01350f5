// File: internal/config/config.go
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mobilesec-ms/reportgen/api/schemas"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Server() ServerConfig
	Network() NetworkConfig
	Upstreams() UpstreamsConfig
	Report() ReportConfig

	// Upstream returns the effective settings for one scanner, with defaults applied.
	Upstream(service schemas.Service) UpstreamConfig
}

// Config holds the entire application configuration. It is populated once at
// startup and treated as read-only afterwards.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	ServerCfg    ServerConfig    `mapstructure:"server" yaml:"server"`
	NetworkCfg   NetworkConfig   `mapstructure:"network" yaml:"network"`
	UpstreamsCfg UpstreamsConfig `mapstructure:"upstreams" yaml:"upstreams"`
	ReportCfg    ReportConfig    `mapstructure:"report" yaml:"report"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Server() ServerConfig       { return c.ServerCfg }
func (c *Config) Network() NetworkConfig     { return c.NetworkCfg }
func (c *Config) Upstreams() UpstreamsConfig { return c.UpstreamsCfg }
func (c *Config) Report() ReportConfig       { return c.ReportCfg }

func (c *Config) Upstream(service schemas.Service) UpstreamConfig {
	return c.UpstreamsCfg.For(service)
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSEnabled     bool          `mapstructure:"cors_enabled" yaml:"cors_enabled"`
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// NetworkConfig tunes the HTTP transport shared by all upstream calls.
type NetworkConfig struct {
	DialTimeout           time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `mapstructure:"tls_handshake_timeout" yaml:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout" yaml:"response_header_timeout"`
	IdleConnTimeout       time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns          int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	MaxIdleConnsPerHost   int           `mapstructure:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
	ForceHTTP2            bool          `mapstructure:"force_http2" yaml:"force_http2"`
	IgnoreTLSErrors       bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	// MaxResponseBytes caps how much of an upstream body is read.
	MaxResponseBytes int64 `mapstructure:"max_response_bytes" yaml:"max_response_bytes"`
}

// UpstreamsConfig holds the scanner base addresses and per-call limits.
type UpstreamsConfig struct {
	DefaultTimeout time.Duration             `mapstructure:"default_timeout" yaml:"default_timeout"`
	Services       map[string]UpstreamConfig `mapstructure:"services" yaml:"services"`
}

// UpstreamConfig describes how to reach one scanner.
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// RateLimit is the sustained requests per second allowed against the scanner; 0 disables limiting.
	// The limiter is shared by all requests, so waiting for a token counts against the
	// call timeout: under load a busy caller can make another request's apkscanner
	// fetch time out and fail the whole report.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

// For returns the settings of service with the default timeout filled in.
func (u UpstreamsConfig) For(service schemas.Service) UpstreamConfig {
	sc := u.Services[string(service)]
	if sc.Timeout <= 0 {
		sc.Timeout = u.DefaultTimeout
	}
	if sc.RateLimit > 0 && sc.Burst <= 0 {
		sc.Burst = 1
	}
	return sc
}

// ReportConfig holds the identity stamped into every report.
type ReportConfig struct {
	Platform       string `mapstructure:"platform" yaml:"platform"`
	Version        string `mapstructure:"version" yaml:"version"`
	InformationURI string `mapstructure:"information_uri" yaml:"information_uri"`
	// MaxPDFRecommendations bounds the "Top Recommendations" section of the PDF.
	MaxPDFRecommendations int `mapstructure:"max_pdf_recommendations" yaml:"max_pdf_recommendations"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "reportgen")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Server --
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8005)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.cors_enabled", true)

	// -- Network --
	v.SetDefault("network.dial_timeout", "5s")
	v.SetDefault("network.tls_handshake_timeout", "5s")
	v.SetDefault("network.response_header_timeout", "10s")
	v.SetDefault("network.idle_conn_timeout", "30s")
	v.SetDefault("network.max_idle_conns", 32)
	v.SetDefault("network.max_idle_conns_per_host", 8)
	v.SetDefault("network.force_http2", false)
	v.SetDefault("network.ignore_tls_errors", false)
	v.SetDefault("network.max_response_bytes", 32<<20)

	// -- Upstreams --
	v.SetDefault("upstreams.default_timeout", "10s")
	v.SetDefault("upstreams.services.apkscanner.base_url", "http://apkscanner:8001")
	v.SetDefault("upstreams.services.secrethunter.base_url", "http://secrethunter:8002")
	v.SetDefault("upstreams.services.cryptocheck.base_url", "http://cryptocheck:8003")
	v.SetDefault("upstreams.services.networkinspector.base_url", "http://networkinspector:8004")

	// -- Report --
	v.SetDefault("report.platform", "MobileSec-MS")
	v.SetDefault("report.version", "1.0.0")
	v.SetDefault("report.information_uri", "https://github.com/mobilesec-ms/reportgen")
	v.SetDefault("report.max_pdf_recommendations", 5)
}

// BindEnv wires the environment variable names the scanner stack has always used
// (APKSCANNER_URL, PORT, ...) next to the REPORTGEN_ prefixed ones.
func BindEnv(v *viper.Viper) {
	for _, s := range schemas.Services {
		key := fmt.Sprintf("upstreams.services.%s.base_url", s)
		legacy := strings.ToUpper(string(s)) + "_URL"
		_ = v.BindEnv(key, "REPORTGEN_"+legacy, legacy)
	}
	_ = v.BindEnv("server.port", "REPORTGEN_SERVER_PORT", "PORT")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	BindEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.ServerCfg.Port <= 0 || c.ServerCfg.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.ServerCfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be a positive duration")
	}
	if err := c.UpstreamsCfg.Validate(); err != nil {
		return fmt.Errorf("upstreams configuration invalid: %w", err)
	}
	if c.ReportCfg.Platform == "" {
		return fmt.Errorf("report.platform is a required configuration field")
	}
	if c.ReportCfg.MaxPDFRecommendations < 0 {
		return fmt.Errorf("report.max_pdf_recommendations must not be negative")
	}
	return nil
}

// Validate checks that every scanner has a usable address and a finite timeout.
func (u *UpstreamsConfig) Validate() error {
	if u.DefaultTimeout <= 0 {
		return fmt.Errorf("default_timeout must be a positive duration")
	}
	for _, s := range schemas.Services {
		sc := u.For(s)
		if sc.BaseURL == "" {
			return fmt.Errorf("services.%s.base_url is required", s)
		}
		parsed, err := url.Parse(sc.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("services.%s.base_url %q is not an absolute URL", s, sc.BaseURL)
		}
		if sc.RateLimit < 0 {
			return fmt.Errorf("services.%s.rate_limit must not be negative", s)
		}
	}
	return nil
}
