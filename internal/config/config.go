package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string               `validate:"required"`
	LogDir              string               `validate:"required"`
	StateSource         string               `validate:"required,oneof=postgres snapshot"`
	SnapshotDir         string               `validate:"required_if=StateSource snapshot"`
	Database            store.PostgresConfig `validate:"-"`
	DefaultTimezone     string
	EnableMermaidCharts bool
	MetricsFile         string
}

var validate = validator.New()

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	snapshotDir := getEnv("SNAPSHOT_DIR", filepath.Join(dataPath, "snapshots"))

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	// 4. Timezone falls back rather than failing
	tz := getEnv("DEFAULT_TIMEZONE", "UTC")
	if !calendar.IsValidTimezone(tz) {
		log.Warn().Str("timezone", tz).Msg("Invalid DEFAULT_TIMEZONE, using UTC")
		tz = "UTC"
	}

	cfg := &AppConfig{
		DataPath:    dataPath,
		LogDir:      logDir,
		StateSource: getEnv("STATE_SOURCE", store.SourceSnapshot),
		SnapshotDir: snapshotDir,
		Database: store.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", ""),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		DefaultTimezone:     tz,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
		MetricsFile:         getEnv("METRICS_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration, including the database settings when
// the state source is postgres.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", describe(err))
	}
	if c.StateSource == store.SourcePostgres {
		if err := validate.Struct(c.Database); err != nil {
			return fmt.Errorf("invalid database configuration: %w", describe(err))
		}
	}
	return nil
}

// describe names the environment-facing field of the first failed rule.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%s failed %q", fe.Field(), fe.Tag())
	}
	return err
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
