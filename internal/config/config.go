package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server         ServerConfig        `yaml:"server"`
	Log            LogConfig           `yaml:"log"`
	Database       DatabaseConfig      `yaml:"database"`
	Redis          RedisConfig         `yaml:"redis"`
	Auth           AuthConfig          `yaml:"auth"`
	Storage        StorageConfig       `yaml:"storage"`
	SES            SESConfig           `yaml:"ses"`
	Quotas         QuotaConfig         `yaml:"quotas"`
	Export         ExportConfig        `yaml:"export"`
	Import         ImportConfig        `yaml:"import"`
	Copy           CopyConfig          `yaml:"copy"`
	Dashboard      DashboardConfig     `yaml:"dashboard"`
	SendingDomains SendingDomainConfig `yaml:"sending_domains"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                int      `yaml:"port"`
	Host                string   `yaml:"host"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
	DevMode             bool     `yaml:"dev_mode"`
	// PublicURL is the base of the public list form endpoints.
	PublicURL string `yaml:"public_url"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level            string `yaml:"level"`
	DisableRedaction bool   `yaml:"disable_redaction"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL                    string `yaml:"url"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ConnMaxLifetime returns the pool connection lifetime.
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

// RedisConfig holds the Redis connection settings. An empty URL disables
// Redis; caches, locks and notifications then fall back to PostgreSQL or
// process memory.
type RedisConfig struct {
	URL             string `yaml:"url"`
	FlashTTLMinutes int    `yaml:"flash_ttl_minutes"`
}

// AuthConfig holds customer token settings.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	Issuer        string `yaml:"issuer"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
	// DevCustomerUID is used when dev_mode is on and no token is sent.
	DevCustomerUID string `yaml:"dev_customer_uid"`
}

// TokenTTL returns the lifetime of issued tokens.
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// StorageConfig selects where queued import files are kept.
type StorageConfig struct {
	Type       string `yaml:"type"` // "local" or "s3"
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSProfile string `yaml:"aws_profile"`
}

// SESConfig holds AWS SES settings used to register verified sending
// domains as SES identities.
type SESConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// QuotaConfig holds fallback limits used when a customer group has no
// option row for a quota code. -1 means unlimited.
type QuotaConfig struct {
	Defaults        map[string]int `yaml:"defaults"`
	CacheTTLSeconds int            `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns how long resolved limits are cached.
func (c QuotaConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ExportConfig controls CSV exports.
type ExportConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// ImportConfig controls CSV imports.
type ImportConfig struct {
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
}

// MaxBytes returns the upload limit in bytes.
func (c ImportConfig) MaxBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

// CopyConfig controls the subscriber copy tool.
type CopyConfig struct {
	BatchSize          int `yaml:"batch_size"`
	LockTTLSeconds     int `yaml:"lock_ttl_seconds"`
	ProgressTTLMinutes int `yaml:"progress_ttl_minutes"`
}

// DashboardConfig controls widget caching.
type DashboardConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	TimelineLimit   int `yaml:"timeline_limit"`
	CampaignsLimit  int `yaml:"campaigns_limit"`
	GrowthDays      int `yaml:"growth_days"`
}

// CacheTTL returns the glance cache lifetime.
func (c DashboardConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SendingDomainConfig controls DKIM generation and DNS verification.
type SendingDomainConfig struct {
	DKIMSelector        string   `yaml:"dkim_selector"`
	DKIMKeyBits         int      `yaml:"dkim_key_bits"`
	BlockedDomains      []string `yaml:"blocked_domains"`
	DNSLookupsPerSecond float64  `yaml:"dns_lookups_per_second"`
	DNSBurst            int      `yaml:"dns_burst"`
}

// defaultBlockedDomains are public mailbox providers nobody can claim.
var defaultBlockedDomains = []string{
	"gmail.com", "googlemail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"live.com", "msn.com", "aol.com", "icloud.com", "me.com", "mail.com",
	"gmx.com", "yandex.com", "protonmail.com",
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.PublicURL == "" {
		cfg.Server.PublicURL = "http://localhost:8080"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 30
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 120
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 3
	}
	if cfg.Database.ConnMaxLifetimeMinutes == 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 5
	}
	if cfg.Redis.FlashTTLMinutes == 0 {
		cfg.Redis.FlashTTLMinutes = 30
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "customer-console"
	}
	if cfg.Auth.TokenTTLHours == 0 {
		cfg.Auth.TokenTTLHours = 12
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data/imports"
	}
	if cfg.Storage.S3Prefix == "" {
		cfg.Storage.S3Prefix = "suppression-imports/"
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-west-2"
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.Quotas.Defaults == nil {
		cfg.Quotas.Defaults = map[string]int{}
	}
	if cfg.Quotas.CacheTTLSeconds == 0 {
		cfg.Quotas.CacheTTLSeconds = 300
	}
	if cfg.Export.BatchSize == 0 {
		cfg.Export.BatchSize = 500
	}
	if cfg.Import.MaxFileSizeMB == 0 {
		cfg.Import.MaxFileSizeMB = 10
	}
	if cfg.Copy.BatchSize == 0 {
		cfg.Copy.BatchSize = 500
	}
	if cfg.Copy.LockTTLSeconds == 0 {
		cfg.Copy.LockTTLSeconds = 120
	}
	if cfg.Copy.ProgressTTLMinutes == 0 {
		cfg.Copy.ProgressTTLMinutes = 60
	}
	if cfg.Dashboard.CacheTTLSeconds == 0 {
		cfg.Dashboard.CacheTTLSeconds = 600
	}
	if cfg.Dashboard.TimelineLimit == 0 {
		cfg.Dashboard.TimelineLimit = 20
	}
	if cfg.Dashboard.CampaignsLimit == 0 {
		cfg.Dashboard.CampaignsLimit = 10
	}
	if cfg.Dashboard.GrowthDays == 0 {
		cfg.Dashboard.GrowthDays = 14
	}
	if cfg.SendingDomains.DKIMSelector == "" {
		cfg.SendingDomains.DKIMSelector = "mailer"
	}
	if cfg.SendingDomains.DKIMKeyBits == 0 {
		cfg.SendingDomains.DKIMKeyBits = 2048
	}
	if len(cfg.SendingDomains.BlockedDomains) == 0 {
		cfg.SendingDomains.BlockedDomains = defaultBlockedDomains
	}
	if cfg.SendingDomains.DNSLookupsPerSecond == 0 {
		cfg.SendingDomains.DNSLookupsPerSecond = 5
	}
	if cfg.SendingDomains.DNSBurst == 0 {
		cfg.SendingDomains.DNSBurst = 10
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DEV_MODE"); v != "" {
		cfg.Server.DevMode, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("STORAGE_S3_BUCKET"); v != "" {
		cfg.Storage.Type = "s3"
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("STORAGE_S3_REGION"); v != "" {
		cfg.Storage.S3Region = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (cfg *Config) Validate() error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url (or DATABASE_URL) is required")
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Server.DevMode {
		return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required outside dev mode")
	}
	if cfg.Storage.Type == "s3" && cfg.Storage.S3Bucket == "" {
		return fmt.Errorf("storage.s3_bucket is required when storage.type is s3")
	}
	return nil
}
