package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const configFileName = "care_shifts_config.yaml"

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// IdentityConfig holds the settings used to verify session tokens
type IdentityConfig struct {
	JWTSecret string `yaml:"jwtSecret" validate:"required,min=16"`
	Issuer    string `yaml:"issuer,omitempty"`
	Audience  string `yaml:"audience,omitempty"`
}

// ShiftTemplate describes a recurring shift. RRule picks the days, StartTime
// (HH:MM, local to the configured timezone) and Duration shape each shift.
type ShiftTemplate struct {
	Name       string `yaml:"name" validate:"required"`
	CareHomeID string `yaml:"careHomeID" validate:"required"`
	RRule      string `yaml:"rrule" validate:"required"`
	StartTime  string `yaml:"startTime" validate:"required"`
	Duration   string `yaml:"duration" validate:"required"`
}

// StartOffset returns the time of day the shift starts, as an offset from midnight
func (t ShiftTemplate) StartOffset() (time.Duration, error) {
	clock, err := time.Parse("15:04", t.StartTime)
	if err != nil {
		return 0, fmt.Errorf("invalid startTime %q, expected HH:MM: %w", t.StartTime, err)
	}
	return time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute, nil
}

// Length returns the parsed shift duration
func (t ShiftTemplate) Length() (time.Duration, error) {
	d, err := time.ParseDuration(t.Duration)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", t.Duration, err)
	}
	if d <= 0 || d > 24*time.Hour {
		return 0, fmt.Errorf("duration %q must be positive and at most 24h", t.Duration)
	}
	return d, nil
}

// SeedProfile is a profile loaded into the memory store at startup
type SeedProfile struct {
	ID       string `yaml:"id" validate:"required"`
	Email    string `yaml:"email" validate:"required,email"`
	FullName string `yaml:"fullName,omitempty"`
	Role     string `yaml:"role" validate:"required,oneof=staff manager admin"`
}

// SeedCareHome is a care home loaded into the memory store at startup
type SeedCareHome struct {
	ID      string `yaml:"id" validate:"required"`
	Name    string `yaml:"name" validate:"required"`
	Address string `yaml:"address,omitempty"`
}

// Seed holds fixtures for the memory store. It is ignored for postgres.
type Seed struct {
	Profiles  []SeedProfile  `yaml:"profiles,omitempty" validate:"dive"`
	CareHomes []SeedCareHome `yaml:"careHomes,omitempty" validate:"dive"`
}

// Config represents the application configuration
type Config struct {
	Store          string          `yaml:"store" validate:"required,oneof=memory postgres"`
	DatabaseURL    string          `yaml:"databaseURL,omitempty" validate:"required_if=Store postgres"`
	Identity       IdentityConfig  `yaml:"identity"`
	Timezone       string          `yaml:"timezone,omitempty"`
	MetricsFile    string          `yaml:"metricsFile,omitempty"`
	LogsDir        string          `yaml:"logsDir,omitempty"`
	ShiftTemplates []ShiftTemplate `yaml:"shiftTemplates,omitempty" validate:"dive"`
	Seed           Seed            `yaml:"seed,omitempty"`
}

// Location returns the configured timezone, UTC when unset
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Template returns the shift template with the given name
func (c *Config) Template(name string) (ShiftTemplate, bool) {
	for _, t := range c.ShiftTemplates {
		if t.Name == name {
			return t, true
		}
	}
	return ShiftTemplate{}, false
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from care_shifts_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment.
// For example, env="test" will look for "test_care_shifts_config.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the timezone and every shift template
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(cfg.ShiftTemplates))
	for i, t := range cfg.ShiftTemplates {
		if seen[t.Name] {
			return fmt.Errorf("duplicate shift template name %q in shiftTemplates[%d]", t.Name, i)
		}
		seen[t.Name] = true

		if _, err := rrule.StrToRRule(t.RRule); err != nil {
			return fmt.Errorf("invalid rrule in shiftTemplates[%d]: %w", i, err)
		}
		if _, err := t.StartOffset(); err != nil {
			return fmt.Errorf("shiftTemplates[%d]: %w", i, err)
		}
		if _, err := t.Length(); err != nil {
			return fmt.Errorf("shiftTemplates[%d]: %w", i, err)
		}
	}

	return nil
}

// findConfigFile searches for the config file in current directory and home directory.
// If env is provided the file name is prefixed with it (e.g. "test_care_shifts_config.yaml").
func findConfigFile(env string) (string, error) {
	fileName := configFileName
	if env != "" {
		fileName = env + "_" + configFileName
	}

	// Check current directory
	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", fileName)
}
