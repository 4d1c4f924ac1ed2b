package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageLocal      = "local"
	StorageMinIO      = "minio"
	StorageCloudinary = "cloudinary"
)

// Audit stores accepted by AUDIT_STORE.
const (
	AuditStorePostgres = "postgres"
	AuditStoreMongo    = "mongo"
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
	Cache    CacheConfig
	Uploads  UploadsConfig
	MinIO    MinIOConfig
	Cloud    CloudinaryConfig
	Audit    AuditConfig
	Events   EventsConfig
	Jobs     JobsConfig
	Reports  ReportsConfig
	Payments PaymentsConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	BcryptCost        int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles the Redis response cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// UploadsConfig controls where uploaded documents land and what is accepted.
type UploadsConfig struct {
	Driver           string
	Dir              string
	PublicPath       string
	MaxFileSizeBytes int64
}

// MinIOConfig configures the S3-compatible upload backend.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// CloudinaryConfig configures the Cloudinary upload backend.
type CloudinaryConfig struct {
	URL    string
	Folder string
}

// AuditConfig selects the audit log sink.
type AuditConfig struct {
	Store         string
	MongoURI      string
	MongoDatabase string
}

// EventsConfig configures outbox publishing.
type EventsConfig struct {
	Enabled        bool
	Brokers        []string
	Topic          string
	RelaySchedule  string
	BatchSize      int
	PublishTimeout time.Duration
}

// JobsConfig configures scheduled maintenance jobs.
type JobsConfig struct {
	Enabled           bool
	ReconcileSchedule string
	Workers           int
	MaxRetries        int
}

// ReportsConfig governs admin exports.
type ReportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupSchedule string
}

// PaymentsConfig holds secrets for gateway callbacks.
type PaymentsConfig struct {
	WebhookSecret string
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
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 30*24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 60*24*time.Hour),
		BcryptCost:        v.GetInt("BCRYPT_COST"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 2*time.Minute),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Driver:           strings.ToLower(v.GetString("STORAGE_DRIVER")),
		Dir:              v.GetString("UPLOADS_DIR"),
		PublicPath:       v.GetString("UPLOADS_PUBLIC_PATH"),
		MaxFileSizeBytes: maxUpload,
	}

	cfg.MinIO = MinIOConfig{
		Endpoint:  v.GetString("MINIO_ENDPOINT"),
		AccessKey: v.GetString("MINIO_ACCESS_KEY"),
		SecretKey: v.GetString("MINIO_SECRET_KEY"),
		Bucket:    v.GetString("MINIO_BUCKET"),
		UseSSL:    v.GetBool("MINIO_USE_SSL"),
		PublicURL: v.GetString("MINIO_PUBLIC_URL"),
	}

	cfg.Cloud = CloudinaryConfig{
		URL:    v.GetString("CLOUDINARY_URL"),
		Folder: v.GetString("CLOUDINARY_FOLDER"),
	}

	cfg.Audit = AuditConfig{
		Store:         strings.ToLower(v.GetString("AUDIT_STORE")),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),
	}

	cfg.Events = EventsConfig{
		Enabled:        v.GetBool("EVENTS_ENABLED"),
		Brokers:        splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:          v.GetString("KAFKA_TOPIC"),
		RelaySchedule:  v.GetString("OUTBOX_RELAY_SCHEDULE"),
		BatchSize:      v.GetInt("OUTBOX_BATCH_SIZE"),
		PublishTimeout: parseDuration(v.GetString("KAFKA_WRITE_TIMEOUT"), 10*time.Second),
	}

	cfg.Jobs = JobsConfig{
		Enabled:           v.GetBool("ENABLE_JOBS"),
		ReconcileSchedule: v.GetString("RECONCILE_SCHEDULE"),
		Workers:           v.GetInt("JOBS_WORKERS"),
		MaxRetries:        v.GetInt("JOBS_MAX_RETRIES"),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:      v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupSchedule: v.GetString("REPORTS_CLEANUP_SCHEDULE"),
	}

	cfg.Payments = PaymentsConfig{
		WebhookSecret: v.GetString("PAYMENT_WEBHOOK_SECRET"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "student_crowdfunding")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "edufund-api")
	v.SetDefault("JWT_EXPIRATION", "720h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "1440h")
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "2m")

	v.SetDefault("STORAGE_DRIVER", StorageLocal)
	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("UPLOADS_PUBLIC_PATH", "/uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)

	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_BUCKET", "edufund-uploads")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("CLOUDINARY_FOLDER", "student-crowdfunding")

	v.SetDefault("AUDIT_STORE", AuditStorePostgres)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "student-crowdfunding")

	v.SetDefault("EVENTS_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "edufund.events")
	v.SetDefault("OUTBOX_RELAY_SCHEDULE", "@every 15s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("KAFKA_WRITE_TIMEOUT", "10s")

	v.SetDefault("ENABLE_JOBS", true)
	v.SetDefault("RECONCILE_SCHEDULE", "@every 1h")
	v.SetDefault("JOBS_WORKERS", 2)
	v.SetDefault("JOBS_MAX_RETRIES", 3)

	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_SCHEDULE", "@every 1h")

	v.SetDefault("PAYMENT_WEBHOOK_SECRET", "")
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
