package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override (e.g. DONATION_DATABASE_PASSWORD)
const EnvPrefix = "DONATION"

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Upload       UploadConfig
	Storage      StorageConfig
	Notification NotificationConfig
	Mailgun      MailgunConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file, ":memory:" for an in-process database
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	QueueKey string // list used by the redis notification queue
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	BasePath         string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// UploadConfig holds donation image upload settings
type UploadConfig struct {
	Backend     string // filesystem, s3
	Dir         string // filesystem root for stored images
	PublicPath  string // URL path the filesystem backend is served under
	MaxFileSize int64
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Bucket          string
	Endpoint        string // empty for AWS, set for MinIO/RustFS style endpoints
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PresignExpiry   time.Duration
	KeyPrefix       string
}

// NotificationConfig holds donation email settings
type NotificationConfig struct {
	Enabled       bool
	Queue         string // memory, redis
	QueueSize     int
	Workers       int
	SendTimeout   time.Duration
	Mailer        string // mailgun, log
	Sender        string
	Subject       string
	PublicBaseURL string // prefix for relative image references in emails
}

// MailgunConfig holds Mailgun API settings
type MailgunConfig struct {
	Domain  string
	APIKey  string
	APIBase string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DONATION_ prefix (e.g., DONATION_DATABASE_PASSWORD)
// 2. Variables from a .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("notification.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			QueueKey: v.GetString("redis.queue_key"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			BasePath:         v.GetString("http.base_path"),
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Upload: UploadConfig{
			Backend:     v.GetString("upload.backend"),
			Dir:         v.GetString("upload.dir"),
			PublicPath:  v.GetString("upload.public_path"),
			MaxFileSize: v.GetInt64("upload.max_file_size"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("storage.bucket"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			PresignExpiry:   v.GetDuration("storage.presign_expiry"),
			KeyPrefix:       v.GetString("storage.key_prefix"),
		},
		Notification: NotificationConfig{
			Enabled:       v.GetBool("notification.enabled"),
			Queue:         v.GetString("notification.queue"),
			QueueSize:     v.GetInt("notification.queue_size"),
			Workers:       v.GetInt("notification.workers"),
			SendTimeout:   v.GetDuration("notification.send_timeout"),
			Mailer:        v.GetString("notification.mailer"),
			Sender:        v.GetString("notification.sender"),
			Subject:       v.GetString("notification.subject"),
			PublicBaseURL: v.GetString("notification.public_base_url"),
		},
		Mailgun: MailgunConfig{
			Domain:  v.GetString("mailgun.domain"),
			APIKey:  v.GetString("mailgun.api_key"),
			APIBase: v.GetString("mailgun.api_base"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "donation-api"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "donations"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "donations.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.QueueKey == "" {
		cfg.Redis.QueueKey = "donation:emails"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.BasePath == "" {
		cfg.HTTP.BasePath = "/api"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Upload.Backend == "" {
		cfg.Upload.Backend = "filesystem"
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = "uploads"
	}
	if cfg.Upload.PublicPath == "" {
		cfg.Upload.PublicPath = "/uploads"
	}
	if cfg.Upload.MaxFileSize == 0 {
		cfg.Upload.MaxFileSize = 5 << 20 // 5MB
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = time.Hour
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "donations"
	}
	if cfg.Notification.Queue == "" {
		cfg.Notification.Queue = "memory"
	}
	if cfg.Notification.QueueSize == 0 {
		cfg.Notification.QueueSize = 100
	}
	if cfg.Notification.Workers == 0 {
		cfg.Notification.Workers = 2
	}
	if cfg.Notification.SendTimeout == 0 {
		cfg.Notification.SendTimeout = 10 * time.Second
	}
	if cfg.Notification.Mailer == "" {
		if cfg.Mailgun.APIKey != "" {
			cfg.Notification.Mailer = "mailgun"
		} else {
			cfg.Notification.Mailer = "log"
		}
	}
	if cfg.Notification.Sender == "" {
		cfg.Notification.Sender = "ShareHub <no-reply@sharehub.local>"
	}
	if cfg.Notification.Subject == "" {
		cfg.Notification.Subject = "Product Details"
	}
	if cfg.Notification.PublicBaseURL == "" {
		cfg.Notification.PublicBaseURL = "http://localhost:" + cfg.App.Port
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if !strings.HasPrefix(c.HTTP.BasePath, "/") {
		return fmt.Errorf("http.base_path must start with '/', got %q", c.HTTP.BasePath)
	}

	if c.Upload.MaxFileSize < 0 {
		return fmt.Errorf("upload.max_file_size cannot be negative")
	}
	switch c.Upload.Backend {
	case "filesystem":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when upload.backend is 's3'")
		}
	default:
		return fmt.Errorf("upload.backend must be 'filesystem' or 's3', got %q", c.Upload.Backend)
	}

	switch c.Notification.Queue {
	case "memory", "redis":
	default:
		return fmt.Errorf("notification.queue must be 'memory' or 'redis', got %q", c.Notification.Queue)
	}
	if c.Notification.Workers <= 0 {
		return fmt.Errorf("notification.workers must be positive")
	}
	switch c.Notification.Mailer {
	case "log":
	case "mailgun":
		if c.Mailgun.Domain == "" || c.Mailgun.APIKey == "" {
			return fmt.Errorf("mailgun.domain and mailgun.api_key are required when notification.mailer is 'mailgun'")
		}
	default:
		return fmt.Errorf("notification.mailer must be 'mailgun' or 'log', got %q", c.Notification.Mailer)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.Driver == "postgres" && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Notification.Enabled && c.Notification.Mailer == "log" {
			return fmt.Errorf("notification.mailer 'log' is not allowed in production while notifications are enabled")
		}
	}

	return nil
}

// IsSQLite reports whether the embedded sqlite driver is selected
func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
