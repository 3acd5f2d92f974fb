package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aaronlmathis/vizstream/internal/render"
	"github.com/aaronlmathis/vizstream/internal/stream"
	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Stream     StreamConfig     `yaml:"stream"`
	Window     WindowConfig     `yaml:"window"`
	Render     RenderConfig     `yaml:"render"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Client     ClientConfig     `yaml:"client"`
	RateLimits RateLimitsConfig `yaml:"rate_limits"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig represents the data server configuration
type ServerConfig struct {
	Addr            string     `yaml:"addr"`
	RequestTimeout  string     `yaml:"request_timeout"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig represents the CORS configuration
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
	AllowMethods []string `yaml:"allow_methods"`
}

// StreamConfig represents the live stream configuration
type StreamConfig struct {
	Interval        string `yaml:"interval"`
	EnableWebSocket bool   `yaml:"enable_websocket"`
}

// WindowConfig represents the bounded window configuration
type WindowConfig struct {
	Capacity     int `yaml:"capacity"`
	DefaultCount int `yaml:"default_count"`
}

// RenderConfig represents the chart renderer configuration
type RenderConfig struct {
	FrameRate        int    `yaml:"frame_rate"`
	DecimationBudget int    `yaml:"decimation_budget"`
	Theme            string `yaml:"theme"`
	Chart            string `yaml:"chart"`
}

// MonitorConfig represents the performance monitor configuration
type MonitorConfig struct {
	ReportMemory bool `yaml:"report_memory"`
}

// ClientConfig represents the terminal dashboard configuration
type ClientConfig struct {
	ServerURL         string `yaml:"server_url"`
	Transport         string `yaml:"transport"`
	ReconnectDelay    string `yaml:"reconnect_delay"`
	MaxReconnectDelay string `yaml:"max_reconnect_delay"`
	InitialCount      int    `yaml:"initial_count"`
	StartDelay        string `yaml:"start_delay"`
	TimeRange         string `yaml:"time_range"`
	Aggregation       string `yaml:"aggregation"`
	TableRows         int    `yaml:"table_rows"`
}

// RateLimitsConfig represents the rate limits configuration
type RateLimitsConfig struct {
	GeneratePerMinute int `yaml:"generate_per_minute"`
	Burst             int `yaml:"burst"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Load loads the configuration from environment variables and defaults
func Load() (*Config, error) {
	return loadWithDefaults("")
}

// LoadFromFile loads configuration from a YAML file, with environment variable overrides
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithDefaults(configPath)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "0.0.0.0:8080",
			RequestTimeout:  "60s",
			ShutdownTimeout: "30s",
			CORS: CORSConfig{
				AllowOrigins: []string{"*"},
				AllowMethods: []string{"GET", "POST", "OPTIONS"},
			},
		},
		Stream: StreamConfig{
			Interval:        "100ms",
			EnableWebSocket: true,
		},
		Window: WindowConfig{
			Capacity:     timeseries.DefaultCapacity,
			DefaultCount: 10000,
		},
		Render: RenderConfig{
			FrameRate:        60,
			DecimationBudget: render.DefaultDecimationBudget,
			Theme:            string(render.ThemeLight),
			Chart:            string(render.ChartLine),
		},
		Monitor: MonitorConfig{
			ReportMemory: true,
		},
		Client: ClientConfig{
			ServerURL:         "http://localhost:8080",
			Transport:         string(stream.TransportSSE),
			ReconnectDelay:    "3s",
			MaxReconnectDelay: "30s",
			InitialCount:      10000,
			StartDelay:        "500ms",
			TimeRange:         string(timeseries.RangeAll),
			Aggregation:       string(timeseries.AggregateNone),
			TableRows:         1000,
		},
		RateLimits: RateLimitsConfig{
			GeneratePerMinute: 60,
			Burst:             10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// loadWithDefaults loads configuration with defaults, optionally from a file
func loadWithDefaults(configPath string) (*Config, error) {
	cfg := Default()

	// File values override defaults
	if configPath != "" {
		if err := loadFromYAMLFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configPath, err)
		}
	}

	// Environment variables take precedence over file values
	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getEnv("VIZ_SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.RequestTimeout = getEnv("VIZ_REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.CORS.AllowOrigins = getEnvStringSlice("VIZ_CORS_ORIGINS", cfg.Server.CORS.AllowOrigins)

	cfg.Stream.Interval = getEnv("VIZ_STREAM_INTERVAL", cfg.Stream.Interval)
	cfg.Stream.EnableWebSocket = getEnvBool("VIZ_ENABLE_WEBSOCKET", cfg.Stream.EnableWebSocket)

	cfg.Window.Capacity = getEnvInt("VIZ_WINDOW_CAPACITY", cfg.Window.Capacity)
	cfg.Window.DefaultCount = getEnvInt("VIZ_DEFAULT_COUNT", cfg.Window.DefaultCount)

	cfg.Render.FrameRate = getEnvInt("VIZ_FRAME_RATE", cfg.Render.FrameRate)
	cfg.Render.DecimationBudget = getEnvInt("VIZ_DECIMATION_BUDGET", cfg.Render.DecimationBudget)
	cfg.Render.Theme = getEnv("VIZ_THEME", cfg.Render.Theme)

	cfg.Client.ServerURL = getEnv("VIZ_SERVER_URL", cfg.Client.ServerURL)
	cfg.Client.Transport = getEnv("VIZ_TRANSPORT", cfg.Client.Transport)
	cfg.Client.ReconnectDelay = getEnv("VIZ_RECONNECT_DELAY", cfg.Client.ReconnectDelay)
	cfg.Client.InitialCount = getEnvInt("VIZ_INITIAL_COUNT", cfg.Client.InitialCount)

	cfg.RateLimits.GeneratePerMinute = getEnvInt("VIZ_GENERATE_PER_MINUTE", cfg.RateLimits.GeneratePerMinute)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("VIZ_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.File = getEnv("VIZ_LOG_FILE", cfg.Logging.File)

	// Override port if PORT env var is set
	if port := getEnv("PORT", ""); port != "" {
		cfg.Server.Addr = "0.0.0.0:" + port
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}

// loadFromYAMLFile decodes a YAML file on top of cfg
func loadFromYAMLFile(configPath string, cfg *Config) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	durations := map[string]string{
		"server.request_timeout":     c.Server.RequestTimeout,
		"server.shutdown_timeout":    c.Server.ShutdownTimeout,
		"stream.interval":            c.Stream.Interval,
		"client.reconnect_delay":     c.Client.ReconnectDelay,
		"client.max_reconnect_delay": c.Client.MaxReconnectDelay,
		"client.start_delay":         c.Client.StartDelay,
	}
	for name, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", name, value, err)
		}
		if d < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	if c.StreamInterval() <= 0 {
		return fmt.Errorf("stream interval must be positive")
	}

	if c.Window.Capacity < 1 {
		return fmt.Errorf("window capacity must be at least 1")
	}
	if c.Window.DefaultCount < timeseries.MinRequestCount || c.Window.DefaultCount > timeseries.MaxRequestCount {
		return fmt.Errorf("window default count must be between %d and %d", timeseries.MinRequestCount, timeseries.MaxRequestCount)
	}
	if c.Client.InitialCount < timeseries.MinRequestCount || c.Client.InitialCount > timeseries.MaxRequestCount {
		return fmt.Errorf("client initial count must be between %d and %d", timeseries.MinRequestCount, timeseries.MaxRequestCount)
	}

	if c.Render.FrameRate < 1 || c.Render.FrameRate > 240 {
		return fmt.Errorf("render frame rate must be between 1 and 240")
	}
	if c.Render.DecimationBudget < 2 {
		return fmt.Errorf("render decimation budget must be at least 2")
	}
	if _, err := render.ThemeByName(render.ThemeName(c.Render.Theme)); err != nil {
		return err
	}
	if _, err := render.ParseChartKind(c.Render.Chart); err != nil {
		return err
	}

	if c.Client.Transport != string(stream.TransportSSE) && c.Client.Transport != string(stream.TransportWebSocket) {
		return fmt.Errorf("client transport must be 'sse' or 'ws'")
	}
	if _, err := timeseries.ParseTimeRange(c.Client.TimeRange); err != nil {
		return err
	}
	if _, err := timeseries.ParseAggregationPeriod(c.Client.Aggregation); err != nil {
		return err
	}
	if c.Client.TableRows < 1 {
		return fmt.Errorf("client table rows must be at least 1")
	}

	if c.RateLimits.GeneratePerMinute < 1 {
		return fmt.Errorf("generate rate limit must be at least 1 per minute")
	}
	if c.RateLimits.Burst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1")
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json'")
	}

	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// StreamInterval returns the live stream cadence
func (c *Config) StreamInterval() time.Duration {
	return parseDuration(c.Stream.Interval, 100*time.Millisecond)
}

// RequestTimeout returns the per-request timeout for non-streaming routes
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.Server.RequestTimeout, 60*time.Second)
}

// ShutdownTimeout returns how long graceful shutdown may take
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 30*time.Second)
}

// FrameInterval returns the chart redraw interval
func (c *Config) FrameInterval() time.Duration {
	if c.Render.FrameRate <= 0 {
		return render.DefaultFrameInterval
	}
	return time.Second / time.Duration(c.Render.FrameRate)
}

// StreamControllerConfig builds the ingestion controller settings
func (c *Config) StreamControllerConfig() stream.Config {
	return stream.Config{
		BaseURL:           c.Client.ServerURL,
		Transport:         stream.Transport(c.Client.Transport),
		ReconnectDelay:    parseDuration(c.Client.ReconnectDelay, 0),
		MaxReconnectDelay: parseDuration(c.Client.MaxReconnectDelay, 30*time.Second),
	}
}

// StartDelay returns the pause between the initial load and stream start
func (c *Config) StartDelay() time.Duration {
	return parseDuration(c.Client.StartDelay, 500*time.Millisecond)
}

// PipelineSettings returns the initial filter and aggregation settings
func (c *Config) PipelineSettings() timeseries.Settings {
	settings := timeseries.DefaultSettings()
	if r, err := timeseries.ParseTimeRange(c.Client.TimeRange); err == nil {
		settings.Range = r
	}
	if p, err := timeseries.ParseAggregationPeriod(c.Client.Aggregation); err == nil {
		settings.Aggregation = p
	}
	return settings
}
