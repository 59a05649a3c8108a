// Package config provides Viper-based configuration loading for the dice roller.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EngineConfig selects the random engine behind every roll.
type EngineConfig struct {
	// Name is one of engine.Names().
	Name string `mapstructure:"name"`
	// Seed seeds the seedable engines. 0 seeds from crypto/rand.
	Seed int64 `mapstructure:"seed"`
}

// Build returns the configured engine.
//
// Precondition: the EngineConfig passed Validate.
// Postcondition: Returns a non-nil Engine or an error.
func (e EngineConfig) Build() (engine.Engine, error) {
	return engine.ByName(e.Name, uint32(e.Seed))
}

// OutputConfig controls how the CLI prints the roll log.
type OutputConfig struct {
	// Format is "text", "json", "base64" or "yaml".
	Format string `mapstructure:"format"`
}

// ParserConfig holds notation parser settings.
type ParserConfig struct {
	// CacheSize is the number of parsed notations kept. 0 disables caching.
	CacheSize int `mapstructure:"cache_size"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit caps the instructions a single script call may run.
	// 0 means unlimited.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Output    OutputConfig    `mapstructure:"output"`
	Parser    ParserConfig    `mapstructure:"parser"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateOutput(c.Output); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Parser.CacheSize < 0 {
		errs = append(errs, fmt.Sprintf("parser.cache_size must be >= 0, got %d", c.Parser.CacheSize))
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	known := false
	for _, name := range engine.Names() {
		if strings.EqualFold(e.Name, name) {
			known = true
			break
		}
	}
	if !known {
		errs = append(errs, fmt.Sprintf("engine.name must be one of [%s], got %q", strings.Join(engine.Names(), ", "), e.Name))
	}
	if e.Seed < 0 || e.Seed > math.MaxUint32 {
		errs = append(errs, fmt.Sprintf("engine.seed must be 0-%d, got %d", uint32(math.MaxUint32), e.Seed))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOutput(o OutputConfig) error {
	validFormats := map[string]bool{"text": true, "json": true, "base64": true, "yaml": true}
	if !validFormats[o.Format] {
		return fmt.Errorf("output.format must be one of [text, json, base64, yaml], got %q", o.Format)
	}
	return nil
}

// Load reads configuration from an optional YAML file, applies .env and
// environment variable overrides, and validates the result.
//
// Precondition: path is empty or names a readable YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()

	// Environment variable overrides with DICE_ prefix
	v.SetEnvPrefix("DICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("engine.name", engine.NameNative)
	v.SetDefault("engine.seed", 0)

	v.SetDefault("output.format", "text")

	v.SetDefault("parser.cache_size", 256)

	v.SetDefault("scripting.instruction_limit", 100000)
}
