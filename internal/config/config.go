package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	DB        DBConfig
	S3        S3Config
	Log       LogConfig
	CORS      CORSConfig
	Notify    NotifyConfig
	Session   SessionConfig
	Redis     RedisConfig
	Import    ImportConfig
	RateLimit RateLimitConfig
	Portal    PortalConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// StoreConfig selects the repository backend.
type StoreConfig struct {
	// Driver is "memory" or "postgres".
	Driver string `mapstructure:"driver"`
	// SeedDemo loads the demo dataset into the memory store on startup.
	SeedDemo bool `mapstructure:"seed_demo"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds object storage settings.
type S3Config struct {
	// Provider is "s3" or "memory".
	Provider      string `mapstructure:"provider"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// NotifyConfig holds operator notification settings.
type NotifyConfig struct {
	// Provider is "noop" or "ses".
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	Recipients  []string `mapstructure:"recipients"`
}

// SessionConfig holds wizard session settings.
type SessionConfig struct {
	// Store is "memory" or "redis".
	Store string        `mapstructure:"store"`
	TTL   time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ImportConfig bounds payment report uploads.
type ImportConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxRows       int   `mapstructure:"max_rows"`
	// KeepRawFiles stores uploaded reports in object storage.
	KeepRawFiles bool `mapstructure:"keep_raw_files"`
}

// RateLimitConfig holds limits for upload endpoints, in limiter format ("10-M").
type RateLimitConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Uploads string `mapstructure:"uploads"`
}

// PortalConfig holds portal credential revalidation settings.
type PortalConfig struct {
	// RevalidateSchedule is a cron spec; empty disables the job.
	RevalidateSchedule string `mapstructure:"revalidate_schedule"`
	Timezone           string `mapstructure:"timezone"`
	// Checker is "static" or "http".
	Checker      string        `mapstructure:"checker"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
}

// Load reads configuration from environment variables with the PAYOPS_ prefix. A .env
// file in the working directory is loaded first when present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PAYOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.environment", "development")

	// Store defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.seed_demo", true)

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "payops")
	v.SetDefault("db.password", "payops_secret")
	v.SetDefault("db.name", "payops_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.provider", "memory")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "payops-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 900)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "text")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173")

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "us-east-1")
	v.SetDefault("notify.from_address", "noreply@payops.local")
	v.SetDefault("notify.from_name", "PayOps")
	v.SetDefault("notify.recipients", "")

	// Session defaults
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", "30m")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "payops:session:")

	// Import defaults
	v.SetDefault("import.max_file_size_mb", 10)
	v.SetDefault("import.max_rows", 5000)
	v.SetDefault("import.keep_raw_files", false)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.uploads", "30-M")

	// Portal defaults
	v.SetDefault("portal.revalidate_schedule", "0 */6 * * *")
	v.SetDefault("portal.timezone", "UTC")
	v.SetDefault("portal.checker", "static")
	v.SetDefault("portal.check_timeout", "10s")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "PAYOPS_SERVER_PORT",
		"server.read_timeout":        "PAYOPS_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "PAYOPS_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":    "PAYOPS_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":         "PAYOPS_SERVER_ENVIRONMENT",
		"store.driver":               "PAYOPS_STORE_DRIVER",
		"store.seed_demo":            "PAYOPS_STORE_SEED_DEMO",
		"db.host":                    "PAYOPS_DB_HOST",
		"db.port":                    "PAYOPS_DB_PORT",
		"db.user":                    "PAYOPS_DB_USER",
		"db.password":                "PAYOPS_DB_PASSWORD",
		"db.name":                    "PAYOPS_DB_NAME",
		"db.sslmode":                 "PAYOPS_DB_SSLMODE",
		"db.max_open":                "PAYOPS_DB_MAX_OPEN",
		"db.max_idle":                "PAYOPS_DB_MAX_IDLE",
		"s3.provider":                "PAYOPS_S3_PROVIDER",
		"s3.region":                  "PAYOPS_S3_REGION",
		"s3.bucket":                  "PAYOPS_S3_BUCKET",
		"s3.endpoint":                "PAYOPS_S3_ENDPOINT",
		"s3.access_key":              "PAYOPS_S3_ACCESS_KEY",
		"s3.secret_key":              "PAYOPS_S3_SECRET_KEY",
		"s3.max_file_size_mb":        "PAYOPS_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":          "PAYOPS_S3_PRESIGN_EXPIRY",
		"log.level":                  "PAYOPS_LOG_LEVEL",
		"log.format":                 "PAYOPS_LOG_FORMAT",
		"cors.allowed_origins":       "PAYOPS_CORS_ALLOWED_ORIGINS",
		"notify.provider":            "PAYOPS_NOTIFY_PROVIDER",
		"notify.region":              "PAYOPS_NOTIFY_REGION",
		"notify.from_address":        "PAYOPS_NOTIFY_FROM_ADDRESS",
		"notify.from_name":           "PAYOPS_NOTIFY_FROM_NAME",
		"notify.recipients":          "PAYOPS_NOTIFY_RECIPIENTS",
		"session.store":              "PAYOPS_SESSION_STORE",
		"session.ttl":                "PAYOPS_SESSION_TTL",
		"redis.addr":                 "PAYOPS_REDIS_ADDR",
		"redis.password":             "PAYOPS_REDIS_PASSWORD",
		"redis.db":                   "PAYOPS_REDIS_DB",
		"redis.key_prefix":           "PAYOPS_REDIS_KEY_PREFIX",
		"import.max_file_size_mb":    "PAYOPS_IMPORT_MAX_FILE_SIZE_MB",
		"import.max_rows":            "PAYOPS_IMPORT_MAX_ROWS",
		"import.keep_raw_files":      "PAYOPS_IMPORT_KEEP_RAW_FILES",
		"rate_limit.enabled":         "PAYOPS_RATE_LIMIT_ENABLED",
		"rate_limit.uploads":         "PAYOPS_RATE_LIMIT_UPLOADS",
		"portal.revalidate_schedule": "PAYOPS_PORTAL_REVALIDATE_SCHEDULE",
		"portal.timezone":            "PAYOPS_PORTAL_TIMEZONE",
		"portal.checker":             "PAYOPS_PORTAL_CHECKER",
		"portal.check_timeout":       "PAYOPS_PORTAL_CHECK_TIMEOUT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if PAYOPS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PAYOPS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.Store = StoreConfig{
		Driver:   strings.ToLower(v.GetString("store.driver")),
		SeedDemo: v.GetBool("store.seed_demo"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Provider:      strings.ToLower(v.GetString("s3.provider")),
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Notify = NotifyConfig{
		Provider:    strings.ToLower(v.GetString("notify.provider")),
		Region:      v.GetString("notify.region"),
		FromAddress: v.GetString("notify.from_address"),
		FromName:    v.GetString("notify.from_name"),
		Recipients:  splitList(v.GetString("notify.recipients")),
	}
	cfg.Session = SessionConfig{
		Store: strings.ToLower(v.GetString("session.store")),
		TTL:   v.GetDuration("session.ttl"),
	}
	cfg.Redis = RedisConfig{
		Addr:      v.GetString("redis.addr"),
		Password:  v.GetString("redis.password"),
		DB:        v.GetInt("redis.db"),
		KeyPrefix: v.GetString("redis.key_prefix"),
	}
	cfg.Import = ImportConfig{
		MaxFileSizeMB: v.GetInt64("import.max_file_size_mb"),
		MaxRows:       v.GetInt("import.max_rows"),
		KeepRawFiles:  v.GetBool("import.keep_raw_files"),
	}
	cfg.RateLimit = RateLimitConfig{
		Enabled: v.GetBool("rate_limit.enabled"),
		Uploads: v.GetString("rate_limit.uploads"),
	}
	cfg.Portal = PortalConfig{
		RevalidateSchedule: v.GetString("portal.revalidate_schedule"),
		Timezone:           v.GetString("portal.timezone"),
		Checker:            strings.ToLower(v.GetString("portal.checker")),
		CheckTimeout:       v.GetDuration("portal.check_timeout"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	choices := []struct {
		key, value string
		allowed    []string
	}{
		{"store.driver", c.Store.Driver, []string{"memory", "postgres"}},
		{"s3.provider", c.S3.Provider, []string{"memory", "s3"}},
		{"notify.provider", c.Notify.Provider, []string{"noop", "ses"}},
		{"session.store", c.Session.Store, []string{"memory", "redis"}},
		{"portal.checker", c.Portal.Checker, []string{"static", "http"}},
	}
	for _, ch := range choices {
		if !contains(ch.allowed, ch.value) {
			return fmt.Errorf("invalid %s %q: must be one of %s", ch.key, ch.value, strings.Join(ch.allowed, ", "))
		}
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("invalid session.ttl %s: must be positive", c.Session.TTL)
	}
	if c.Import.MaxFileSizeMB <= 0 {
		return fmt.Errorf("invalid import.max_file_size_mb %d: must be positive", c.Import.MaxFileSizeMB)
	}
	if c.Notify.Provider == "ses" && len(c.Notify.Recipients) == 0 {
		return fmt.Errorf("notify.recipients is required when notify.provider is ses")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
