package config

import (
	"errors"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Catalog  CatalogConfig
	Editor   EditorConfig
	Mirror   MirrorConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig tunes caching of the read-only time-slot and assignment catalogs.
type CatalogConfig struct {
	CacheEnabled         bool
	CacheTTL             time.Duration
	DefaultInstitutionID string
}

// EditorConfig governs the per-teacher schedule editing sessions.
type EditorConfig struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
	SaveTimeout   time.Duration
	DefaultMode   string
}

// MirrorConfig controls the spreadsheet mirror written after each save.
type MirrorConfig struct {
	Enabled    bool
	StorageDir string
	Workers    int
	Retries    int
	RetryDelay time.Duration
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

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Name:            v.GetString("DB_NAME"),
		SSLMode:         v.GetString("DB_SSL_MODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		CacheEnabled:         v.GetBool("ENABLE_CATALOG_CACHE"),
		CacheTTL:             parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
		DefaultInstitutionID: v.GetString("DEFAULT_INSTITUTION_ID"),
	}

	cfg.Editor = EditorConfig{
		SessionTTL:    parseDuration(v.GetString("EDITOR_SESSION_TTL"), 2*time.Hour),
		SweepInterval: parseDuration(v.GetString("EDITOR_SWEEP_INTERVAL"), 10*time.Minute),
		SaveTimeout:   parseDuration(v.GetString("EDITOR_SAVE_TIMEOUT"), 10*time.Second),
		DefaultMode:   strings.ToUpper(strings.TrimSpace(v.GetString("EDITOR_DEFAULT_MODE"))),
	}

	cfg.Mirror = MirrorConfig{
		Enabled:    v.GetBool("ENABLE_MIRROR"),
		StorageDir: v.GetString("MIRROR_STORAGE_DIR"),
		Workers:    v.GetInt("MIRROR_WORKERS"),
		Retries:    v.GetInt("MIRROR_RETRIES"),
		RetryDelay: parseDuration(v.GetString("MIRROR_RETRY_DELAY"), 2*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_schedule")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "teacher-schedule-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CATALOG_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "10m")
	v.SetDefault("DEFAULT_INSTITUTION_ID", "")

	v.SetDefault("EDITOR_SESSION_TTL", "2h")
	v.SetDefault("EDITOR_SWEEP_INTERVAL", "10m")
	v.SetDefault("EDITOR_SAVE_TIMEOUT", "10s")
	v.SetDefault("EDITOR_DEFAULT_MODE", "TOGGLE")

	v.SetDefault("ENABLE_MIRROR", false)
	v.SetDefault("MIRROR_STORAGE_DIR", "./mirror")
	v.SetDefault("MIRROR_WORKERS", 1)
	v.SetDefault("MIRROR_RETRIES", 3)
	v.SetDefault("MIRROR_RETRY_DELAY", "2s")
}

func isMissingFile(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such file")
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
