package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // school time zone must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionSecret string
	SessionTTL    time.Duration
	Location      *time.Location
	LogLevel      string

	Redis RedisConfig
	MinIO MinIOConfig
}

// RedisConfig describes where reservation change events are published.
// An empty Addr disables publishing.
type RedisConfig struct {
	Addr     string
	Password string
	Channel  string
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// MinIOConfig describes the object store holding resource images.
// An empty Endpoint disables image uploads.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Enabled reports whether an object store endpoint was configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

const (
	defaultTimezone     = "America/Sao_Paulo"
	defaultRedisChannel = "reservas:changes"
	defaultBucket       = "recursos"
)

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("falha ao ler %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields while validating required
// values and reporting localized error messages for missing entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "reservas.db",
		SessionTTL: 8 * time.Hour,
		Redis:      RedisConfig{Channel: defaultRedisChannel},
		MinIO:      MinIOConfig{Bucket: defaultBucket},
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, key("HTTP_PORT"))
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := env("SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := env("SESSION_SECRET"); secret == "" {
		missing = append(missing, key("SESSION_SECRET"))
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := env("SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, key("SESSION_TTL"))
		} else {
			cfg.SessionTTL = ttl
		}
	}

	tz := env("TIMEZONE")
	if tz == "" {
		tz = defaultTimezone
	}
	if loc, err := time.LoadLocation(tz); err != nil {
		invalid = append(invalid, key("TIMEZONE"))
	} else {
		cfg.Location = loc
	}

	cfg.LogLevel = strings.ToLower(env("LOG_LEVEL"))
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		invalid = append(invalid, key("LOG_LEVEL"))
	}

	cfg.Redis.Addr = env("REDIS_ADDR")
	cfg.Redis.Password = env("REDIS_PASSWORD")
	if channel := env("REDIS_CHANNEL"); channel != "" {
		cfg.Redis.Channel = channel
	}

	cfg.MinIO.Endpoint = env("MINIO_ENDPOINT")
	cfg.MinIO.AccessKey = env("MINIO_ACCESS_KEY")
	cfg.MinIO.SecretKey = env("MINIO_SECRET_KEY")
	cfg.MinIO.PublicURL = strings.TrimRight(env("MINIO_PUBLIC_URL"), "/")
	if bucket := env("MINIO_BUCKET"); bucket != "" {
		cfg.MinIO.Bucket = bucket
	}
	if sslValue := env("MINIO_USE_SSL"); sslValue != "" {
		useSSL, err := strconv.ParseBool(sslValue)
		if err != nil {
			invalid = append(invalid, key("MINIO_USE_SSL"))
		} else {
			cfg.MinIO.UseSSL = useSSL
		}
	}
	if cfg.MinIO.Enabled() {
		if cfg.MinIO.AccessKey == "" {
			missing = append(missing, key("MINIO_ACCESS_KEY"))
		}
		if cfg.MinIO.SecretKey == "" {
			missing = append(missing, key("MINIO_SECRET_KEY"))
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente obrigatórias não definidas: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores inválidos nas variáveis de ambiente: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

const prefix = "RESERVAS_"

func key(name string) string {
	return prefix + name
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(key(name)))
}
