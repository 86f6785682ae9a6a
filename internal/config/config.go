package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Report   ReportConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string        `validate:"required"`
	Port            int           `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// DatasetConfig controls synthesis. A zero Seed picks a random one.
type DatasetConfig struct {
	Seed uint64
}

type ReportConfig struct {
	OutputDir string `validate:"required"`
}

type LoggerConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int `validate:"gt=0"`
	RateLimitBurst  int `validate:"gt=0"`
	AllowedOrigins  []string
	TrustedProxies  []string
}

var validate = validator.New()

// Load reads .env when present, then the environment, and validates the
// result. Unparseable values fall back to the default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            env("SERVER_HOST", "localhost", parseString),
			Port:            env("SERVER_PORT", 8084, strconv.Atoi),
			ReadTimeout:     env("SERVER_READ_TIMEOUT", 10*time.Second, time.ParseDuration),
			WriteTimeout:    env("SERVER_WRITE_TIMEOUT", 10*time.Second, time.ParseDuration),
			IdleTimeout:     env("SERVER_IDLE_TIMEOUT", 60*time.Second, time.ParseDuration),
			ShutdownTimeout: env("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second, time.ParseDuration),
		},
		Dataset: DatasetConfig{
			Seed: env("DATASET_SEED", uint64(0), parseUint64),
		},
		Report: ReportConfig{
			OutputDir: env("REPORT_OUTPUT_DIR", "charts", parseString),
		},
		Logger: LoggerConfig{
			Level:  env("LOG_LEVEL", "info", parseLower),
			Format: env("LOG_FORMAT", "json", parseLower),
		},
		Security: SecurityConfig{
			EnableRateLimit: env("SECURITY_RATE_LIMIT_ENABLED", true, strconv.ParseBool),
			RateLimitRPS:    env("SECURITY_RATE_LIMIT_RPS", 100, strconv.Atoi),
			RateLimitBurst:  env("SECURITY_RATE_LIMIT_BURST", 10, strconv.Atoi),
			AllowedOrigins:  env("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}, parseList),
			TrustedProxies:  env("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}, parseList),
		},
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func env[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	v, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return v
}

func parseString(s string) (string, error) { return s, nil }
func parseLower(s string) (string, error)  { return strings.ToLower(s), nil }

func parseUint64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func parseList(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}
