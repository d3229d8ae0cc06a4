package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Sources  SourcesConfig  `mapstructure:"sources"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Model    ModelConfig    `mapstructure:"model"`
	Report   ReportConfig   `mapstructure:"report"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SourcesConfig holds the two remote CSV sources and fetch behavior
type SourcesConfig struct {
	IncidentsURL   string        `mapstructure:"incidents_url"`
	PopulationURL  string        `mapstructure:"population_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// AnalysisConfig holds the year range the analysis is restricted to
type AnalysisConfig struct {
	MinYear int `mapstructure:"min_year"`
	MaxYear int `mapstructure:"max_year"`
}

// ModelConfig holds the GAM fitting parameters
type ModelConfig struct {
	HourHarmonics  int     `mapstructure:"hour_harmonics"`
	MonthHarmonics int     `mapstructure:"month_harmonics"`
	MaxIterations  int     `mapstructure:"max_iterations"`
	Tolerance      float64 `mapstructure:"tolerance"`
}

// ReportConfig holds report output settings. MapAPIKey is threaded from
// here into the report layer explicitly; nothing below main reads the
// environment directly.
type ReportConfig struct {
	OutputPath string `mapstructure:"output_path"`
	MapAPIKey  string `mapstructure:"map_api_key"`
}

// TelegramConfig holds the optional findings notification settings
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	// NYC_SHOOTINGS_REPORT_MAP_API_KEY etc. override file values
	v.SetEnvPrefix("NYC_SHOOTINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// NYC Open Data CSV exports
	v.SetDefault("sources.incidents_url", "https://data.cityofnewyork.us/api/views/833y-fsy8/rows.csv?accessType=DOWNLOAD")
	v.SetDefault("sources.population_url", "https://data.cityofnewyork.us/api/views/xywu-7bv9/rows.csv?accessType=DOWNLOAD")
	v.SetDefault("sources.timeout", "60s")
	v.SetDefault("sources.max_retries", 3)
	v.SetDefault("sources.retry_delay_base", "1s")

	// Incident data starts in 2006
	v.SetDefault("analysis.min_year", 2006)
	v.SetDefault("analysis.max_year", 2023)

	v.SetDefault("model.hour_harmonics", 3)
	v.SetDefault("model.month_harmonics", 2)
	v.SetDefault("model.max_iterations", 50)
	v.SetDefault("model.tolerance", 1e-8)

	v.SetDefault("report.output_path", "./out/shooting-report.xlsx")

	v.SetDefault("telegram.enabled", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Sources.IncidentsURL == "" {
		return fmt.Errorf("sources.incidents_url is required")
	}
	if c.Sources.PopulationURL == "" {
		return fmt.Errorf("sources.population_url is required")
	}
	if c.Sources.Timeout <= 0 {
		return fmt.Errorf("sources.timeout must be positive")
	}
	if c.Sources.MaxRetries < 1 {
		return fmt.Errorf("sources.max_retries must be at least 1")
	}

	if c.Analysis.MinYear < 1900 || c.Analysis.MaxYear > 2100 {
		return fmt.Errorf("analysis year range [%d, %d] out of plausible bounds", c.Analysis.MinYear, c.Analysis.MaxYear)
	}
	if c.Analysis.MinYear > c.Analysis.MaxYear {
		return fmt.Errorf("analysis.min_year must not exceed analysis.max_year")
	}

	if c.Model.HourHarmonics < 1 || c.Model.HourHarmonics > 11 {
		return fmt.Errorf("model.hour_harmonics must be in 1..11")
	}
	if c.Model.MonthHarmonics < 1 || c.Model.MonthHarmonics > 5 {
		return fmt.Errorf("model.month_harmonics must be in 1..5")
	}
	if c.Model.MaxIterations < 1 {
		return fmt.Errorf("model.max_iterations must be at least 1")
	}
	if c.Model.Tolerance <= 0 {
		return fmt.Errorf("model.tolerance must be positive")
	}

	if c.Report.OutputPath == "" {
		return fmt.Errorf("report.output_path is required")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
