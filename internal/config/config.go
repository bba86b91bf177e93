package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "HPV"

// Config represents the complete application configuration
type Config struct {
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Warehouse WarehouseConfig `yaml:"warehouse" envconfig:"WAREHOUSE"`
	Load      LoadConfig      `yaml:"load" envconfig:"LOAD"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// SourceConfig describes where the spreadsheet releases live and how they are laid out
type SourceConfig struct {
	Dir            string `yaml:"dir" split_words:"true" validate:"required"`
	Pattern        string `yaml:"pattern" split_words:"true" validate:"required"`
	Sheet          string `yaml:"sheet" split_words:"true" validate:"required"`
	HeaderRow      int    `yaml:"header_row" split_words:"true" validate:"min=1"`
	RegionColumn   string `yaml:"region_column" split_words:"true" validate:"required"`
	MetadataCell   string `yaml:"metadata_cell" split_words:"true" validate:"required"`
	Classifier     string `yaml:"classifier" split_words:"true" validate:"oneof=strict legacy"`
	Naming         string `yaml:"naming" split_words:"true" validate:"oneof=academic generic"`
	KeepSuppressed bool   `yaml:"keep_suppressed" split_words:"true"`
	BothGender     bool   `yaml:"both_gender" split_words:"true"`
	AllYears       bool   `yaml:"all_years" split_words:"true"`
}

// WarehouseConfig holds the destination and connector settings.
// Fields with an explicit envconfig tag also read the bare tag name (DATABASE,
// SCHEMA, DESTINATION_TABLE, ACCOUNT, USER, PASSWORD, AUTHENTICATOR, ROLE,
// WAREHOUSE, SQLITE_PATH) as a fallback for existing deployments. Every other
// field in the configuration is read only under its HPV_<SECTION>_ name.
type WarehouseConfig struct {
	Driver        string        `yaml:"driver" split_words:"true" validate:"oneof=snowflake sqlite"`
	Account       string        `yaml:"account" envconfig:"ACCOUNT" validate:"required_if=Driver snowflake"`
	User          string        `yaml:"user" envconfig:"USER" validate:"required_if=Driver snowflake"`
	Password      string        `yaml:"-" envconfig:"PASSWORD"`
	Authenticator string        `yaml:"authenticator" envconfig:"AUTHENTICATOR"`
	Role          string        `yaml:"role" envconfig:"ROLE"`
	Warehouse     string        `yaml:"warehouse" envconfig:"WAREHOUSE"`
	Database      string        `yaml:"database" envconfig:"DATABASE" validate:"required_if=Driver snowflake"`
	Schema        string        `yaml:"schema" envconfig:"SCHEMA" validate:"required_if=Driver snowflake"`
	Table         string        `yaml:"table" envconfig:"DESTINATION_TABLE" validate:"required"`
	SQLitePath    string        `yaml:"sqlite_path" envconfig:"SQLITE_PATH" validate:"required_if=Driver sqlite"`
	BatchSize     int           `yaml:"batch_size" split_words:"true" validate:"min=1"`
	LoginTimeout  time.Duration `yaml:"login_timeout" split_words:"true"`
}

// LoadConfig selects the write strategy and optional outputs of a run
type LoadConfig struct {
	Mode       string `yaml:"mode" split_words:"true" validate:"oneof=replace append"`
	DryRun     bool   `yaml:"dry_run" split_words:"true"`
	ExportPath string `yaml:"export_path" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" split_words:"true"`
	Output      string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" split_words:"true"`
	Development bool   `yaml:"development" split_words:"true"`
}

// TelemetryConfig controls tracing and the metrics textfile written at the end of a run
type TelemetryConfig struct {
	Environment     string  `yaml:"environment" split_words:"true"`
	TraceExporter   string  `yaml:"trace_exporter" split_words:"true" validate:"oneof=stdout none"`
	SampleRatio     float64 `yaml:"sample_ratio" split_words:"true" validate:"min=0,max=1"`
	EnableMetrics   bool    `yaml:"enable_metrics" split_words:"true"`
	MetricsTextfile string  `yaml:"metrics_textfile" split_words:"true"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file; an empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths makes relative paths absolute against the working directory
func (c *Config) resolvePaths() error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(wd, p)
	}
	c.Source.Dir = abs(c.Source.Dir)
	c.Warehouse.SQLitePath = abs(c.Warehouse.SQLitePath)
	c.Load.ExportPath = abs(c.Load.ExportPath)
	c.Logging.FilePath = abs(c.Logging.FilePath)
	c.Telemetry.MetricsTextfile = abs(c.Telemetry.MetricsTextfile)
	return nil
}

// Validate checks struct constraints and normalises enumerations
func (c *Config) Validate() error {
	c.Warehouse.Driver = strings.ToLower(c.Warehouse.Driver)
	c.Load.Mode = strings.ToLower(c.Load.Mode)
	c.Source.Classifier = strings.ToLower(c.Source.Classifier)
	c.Source.Naming = strings.ToLower(c.Source.Naming)
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/hpvload.log"
	}

	return nil
}

// Destination returns the three-part destination name
func (c *Config) Destination() string {
	return fmt.Sprintf("%s.%s.%s", c.Warehouse.Database, c.Warehouse.Schema, c.Warehouse.Table)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"hpvload.yaml",
		"configs/hpvload.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Dir:          DefaultSourceDir,
			Pattern:      DefaultSourcePattern,
			Sheet:        DefaultSheetName,
			HeaderRow:    DefaultHeaderRow,
			RegionColumn: DefaultRegionColumn,
			MetadataCell: DefaultMetadataCell,
			Classifier:   "strict",
			Naming:       "academic",
			BothGender:   true,
			AllYears:     true,
		},
		Warehouse: WarehouseConfig{
			Driver:       "snowflake",
			BatchSize:    DefaultBatchSize,
			LoginTimeout: DefaultLoginTimeout,
		},
		Load: LoadConfig{
			Mode: "replace",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		},
		Telemetry: TelemetryConfig{
			Environment:   "development",
			TraceExporter: "none",
			SampleRatio:   1.0,
			EnableMetrics: true,
		},
	}
}
