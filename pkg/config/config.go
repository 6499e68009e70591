package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	HTTP          HTTPConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Cache         CacheConfig
	Notifications NotificationConfig
	Exports       ExportConfig
	Client        ClientConfig
}

// HTTPConfig bounds server-side request handling.
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	// KeyPrefix namespaces every key so environments can share an instance.
	KeyPrefix string
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs the assignment list cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// NotificationConfig configures fire-and-forget email/SMS delivery.
type NotificationConfig struct {
	Enabled        bool
	SendGridAPIKey string
	FromName       string
	FromEmail      string
	Workers        int
	Retries        int
	RetryDelay     time.Duration
}

// ExportConfig toggles the assignment match sheet export.
type ExportConfig struct {
	Enabled bool
}

// ClientConfig configures the typed API client used by tooling.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.HTTP = HTTPConfig{
		ReadTimeout:     parseDuration(v.GetString("HTTP_READ_TIMEOUT"), 15*time.Second),
		WriteTimeout:    parseDuration(v.GetString("HTTP_WRITE_TIMEOUT"), 30*time.Second),
		ShutdownTimeout: parseDuration(v.GetString("HTTP_SHUTDOWN_TIMEOUT"), 10*time.Second),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:   v.GetBool("REDIS_ENABLED"),
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_ASSIGNMENT_CACHE"),
		TTL:     parseDuration(v.GetString("ASSIGNMENT_CACHE_TTL"), 5*time.Minute),
	}

	workers := v.GetInt("NOTIFY_WORKERS")
	if workers <= 0 {
		workers = 2
	}
	cfg.Notifications = NotificationConfig{
		Enabled:        v.GetBool("ENABLE_NOTIFICATIONS"),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromName:       v.GetString("NOTIFY_FROM_NAME"),
		FromEmail:      v.GetString("NOTIFY_FROM_EMAIL"),
		Workers:        workers,
		Retries:        v.GetInt("NOTIFY_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Exports = ExportConfig{Enabled: v.GetBool("ENABLE_EXPORTS")}

	cfg.Client = ClientConfig{
		BaseURL: v.GetString("CLIENT_BASE_URL"),
		Timeout: parseDuration(v.GetString("CLIENT_TIMEOUT"), 15*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("HTTP_READ_TIMEOUT", "15s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "30s")
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tuition_match")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "tuition-match:")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "tuition-match-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_ASSIGNMENT_CACHE", false)
	v.SetDefault("ASSIGNMENT_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_NOTIFICATIONS", false)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("NOTIFY_FROM_NAME", "Tuition Match")
	v.SetDefault("NOTIFY_FROM_EMAIL", "no-reply@tuition-match.local")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")

	v.SetDefault("ENABLE_EXPORTS", true)

	v.SetDefault("CLIENT_BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("CLIENT_TIMEOUT", "15s")
}

// isMissingFile treats an absent .env as "use environment only".
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
