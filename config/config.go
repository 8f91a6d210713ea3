// Package config loads the settings of an application built on uow.
//
// Values come from defaults, a YAML file, a .env file and the environment,
// in increasing priority. Environment variables use the UOW_ prefix and
// underscores instead of dots, e.g. UOW_DATABASE_DSN.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/n-r-w/uow"
	"github.com/n-r-w/uow/gormx"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of environment variables.
const EnvPrefix = "UOW"

// Config application settings.
type Config struct {
	// UnitOfWork is "transaction" or "request".
	UnitOfWork string         `mapstructure:"unitofwork"`
	Database   DatabaseConfig `mapstructure:"database"`
	Logger     LoggerConfig   `mapstructure:"logger"`
}

// DatabaseConfig database settings.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver     string `mapstructure:"driver"`
	DSN        string `mapstructure:"dsn"`
	LogQueries bool   `mapstructure:"logqueries"`
	// Unit is the persistence unit name. Empty for the default unit.
	Unit string `mapstructure:"unit"`
	// LogLevel is the level of the gorm logger: silent, error, warn or info.
	LogLevel string `mapstructure:"loglevel"`
}

// LoggerConfig logger settings.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Production bool   `mapstructure:"production"`
}

// Option option for Load.
type Option func(*options)

type options struct {
	file     string
	dotEnv   []string
	fileMust bool
}

// WithFile sets the YAML file. The file is optional unless required is true.
func WithFile(path string, required bool) Option {
	return func(o *options) {
		o.file = path
		o.fileMust = required
	}
}

// WithDotEnv sets the .env files. Missing files are skipped.
// Variables already present in the environment are not overwritten.
func WithDotEnv(paths ...string) Option {
	return func(o *options) {
		o.dotEnv = paths
	}
}

// Load reads the configuration.
func Load(opts ...Option) (*Config, error) {
	o := options{dotEnv: []string{".env"}}
	for _, opt := range opts {
		opt(&o)
	}

	if err := loadDotEnvFiles(o.dotEnv); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if o.file != "" {
		v.SetConfigFile(o.file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if o.fileMust || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", o.file, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := c.Scope(); err != nil {
		return err
	}

	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "postgresql", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("%w: unsupported database driver %q", uow.ErrConfiguration, c.Database.Driver)
	}

	if _, err := gormx.ParseLogLevel(c.Database.LogLevel); err != nil {
		return fmt.Errorf("database log level: %w", err)
	}

	if _, err := zapcore.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("%w: logger level: %w", uow.ErrConfiguration, err)
	}

	return nil
}

// Scope returns the configured unit of work.
func (c *Config) Scope() (uow.UnitOfWork, error) {
	return uow.ParseUnitOfWork(c.UnitOfWork)
}

// Build creates a zap based logger. fields may be nil, e.g. txmgr.LogFields adds
// the ids of the units of work.
func (l LoggerConfig) Build(fields uow.ContextFieldsFunc) (*uow.ZapLogger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: logger level: %w", uow.ErrConfiguration, err)
	}

	var zcfg zap.Config
	if l.Production {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	zl, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return uow.NewZapLogger(zl, fields), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("unitofwork", uow.Transaction.String())

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.logqueries", false)
	v.SetDefault("database.unit", "")
	v.SetDefault("database.loglevel", "warn")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.production", false)
}

func loadDotEnvFiles(paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}
