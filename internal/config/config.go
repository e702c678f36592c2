// The application's root configuration: gateway identity, browser engine,
// outbound network, and solver budgets.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Browser BrowserConfig `mapstructure:"browser"`
	Network NetworkConfig `mapstructure:"network"`
	Solver  SolverConfig  `mapstructure:"solver"`
}

// ServerConfig holds settings for the request-validation gateway.
type ServerConfig struct {
	ListenAddr   string `mapstructure:"listen_addr"`
	Email        string `mapstructure:"email"`
	Secret       string `mapstructure:"secret"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output to make logs more readable.
type ColorConfig struct {
	Debug string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" json:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error string `mapstructure:"error" json:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// BrowserConfig holds settings for the headless browser engine.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors"`
	MaxContexts       int           `mapstructure:"max_contexts"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
}

// NetworkConfig holds settings for outbound HTTP requests (submissions and
// resource downloads).
type NetworkConfig struct {
	Timeout   time.Duration     `mapstructure:"timeout"`
	UserAgent string            `mapstructure:"user_agent"`
	Headers   map[string]string `mapstructure:"headers"`
}

// SolverConfig holds the time and step budgets for the quiz loop.
type SolverConfig struct {
	JobTimeout       time.Duration `mapstructure:"job_timeout"`
	MinStepDuration  time.Duration `mapstructure:"min_step_duration"`
	MaxSteps         int           `mapstructure:"max_steps"`
	MaxResourceBytes int64         `mapstructure:"max_resource_bytes"`
}

// SetDefaults registers default values so the app can run with a minimal config.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8000")
	v.SetDefault("server.max_body_bytes", 1_000_000)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "quiz-solver")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.max_contexts", 4)
	v.SetDefault("browser.navigation_timeout", 20*time.Second)

	v.SetDefault("network.timeout", 30*time.Second)

	v.SetDefault("solver.job_timeout", 180*time.Second)
	v.SetDefault("solver.min_step_duration", 5*time.Second)
	v.SetDefault("solver.max_steps", 20)
	v.SetDefault("solver.max_resource_bytes", 8<<20)
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Email == "" {
		return fmt.Errorf("server.email must be set")
	}
	if c.Server.Secret == "" {
		return fmt.Errorf("server.secret must be set")
	}
	if c.Browser.MaxContexts <= 0 {
		return fmt.Errorf("browser.max_contexts must be positive, got %d", c.Browser.MaxContexts)
	}
	if c.Solver.MaxSteps <= 0 {
		return fmt.Errorf("solver.max_steps must be positive, got %d", c.Solver.MaxSteps)
	}
	if c.Solver.JobTimeout <= 0 {
		return fmt.Errorf("solver.job_timeout must be positive")
	}
	if c.Solver.MinStepDuration >= c.Solver.JobTimeout {
		return fmt.Errorf("solver.min_step_duration must be below solver.job_timeout")
	}
	return nil
}

// Load initializes the configuration singleton from Viper.
func Load(v *viper.Viper) error {
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
