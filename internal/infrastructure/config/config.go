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

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Marketplace MarketplaceConfig
	Catalog     CatalogConfig
	Import      ImportConfig
	Telemetry   TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite, memory
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address of the Redis server
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret string
	Issuer string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	RequestTimeout   time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	TrustedProxies   []string
	// ImportRateLimit caps import requests per caller per minute; 0 disables it
	ImportRateLimit int
}

// MarketplaceConfig holds settings for the external marketplace listings are imported from
type MarketplaceConfig struct {
	Platform       string
	APIBaseURL     string
	AppKey         string
	AppSecret      string
	AccessToken    string
	AllowedDomains []string
	Timeout        time.Duration
}

// CatalogConfig holds catalog datastore access settings
type CatalogConfig struct {
	// AdminWriteKey grants write access to the catalog; direct imports fail without it
	AdminWriteKey string
}

// ImportConfig holds product import pipeline settings
type ImportConfig struct {
	SimilarityThreshold float64
	DefaultCategorySlug string
	DefaultCategoryName string
	DefaultVendorName   string
	DefaultVendorSlug   string
	DefaultVendorEmail  string
	MaxSlugAttempts     int
	IndexTTL            time.Duration
	// CategoryKeywords maps a category slug to keywords that select it
	CategoryKeywords map[string][]string
}

// TelemetryConfig holds OpenTelemetry tracing settings
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	// DBLogFullSQL keeps query variables in database spans; refused in production
	DBLogFullSQL bool
}

// Load loads configuration from TOML file, .env file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STORE_ prefix (e.g., STORE_DATABASE_PASSWORD)
// 2. .env file in the working directory
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
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return build(v)
}

// LoadFile loads configuration from an explicit TOML file plus environment variables
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("STORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			RequestTimeout:   v.GetDuration("http.request_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			ImportRateLimit:  v.GetInt("http.import_rate_limit"),
		},
		Marketplace: MarketplaceConfig{
			Platform:       v.GetString("marketplace.platform"),
			APIBaseURL:     v.GetString("marketplace.api_base_url"),
			AppKey:         v.GetString("marketplace.app_key"),
			AppSecret:      v.GetString("marketplace.app_secret"),
			AccessToken:    v.GetString("marketplace.access_token"),
			AllowedDomains: v.GetStringSlice("marketplace.allowed_domains"),
			Timeout:        v.GetDuration("marketplace.timeout"),
		},
		Catalog: CatalogConfig{
			AdminWriteKey: v.GetString("catalog.admin_write_key"),
		},
		Import: ImportConfig{
			SimilarityThreshold: v.GetFloat64("import.similarity_threshold"),
			DefaultCategorySlug: v.GetString("import.default_category_slug"),
			DefaultCategoryName: v.GetString("import.default_category_name"),
			DefaultVendorName:   v.GetString("import.default_vendor_name"),
			DefaultVendorSlug:   v.GetString("import.default_vendor_slug"),
			DefaultVendorEmail:  v.GetString("import.default_vendor_email"),
			MaxSlugAttempts:     v.GetInt("import.max_slug_attempts"),
			IndexTTL:            v.GetDuration("import.index_ttl"),
			CategoryKeywords:    v.GetStringMapStringSlice("import.category_keywords"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultCategoryKeywords is the keyword map used when none is configured
func DefaultCategoryKeywords() map[string][]string {
	return map[string][]string{
		"electronics": {"phone", "smartphone", "laptop", "tablet", "camera", "charger", "cable", "headphones", "earbuds"},
		"fashion":     {"shirt", "dress", "jacket", "shoes", "sneakers", "jeans", "hoodie"},
		"home":        {"lamp", "pillow", "blanket", "curtain", "rug", "mug", "kitchen"},
		"beauty":      {"cream", "serum", "lipstick", "perfume", "shampoo"},
		"sports":      {"yoga", "fitness", "dumbbell", "bicycle", "ball"},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront-backend"
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
		cfg.Database.DBName = "storefront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "storefront.db"
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
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "storefront-backend"
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

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 45 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 40 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}

	if cfg.Marketplace.Platform == "" {
		cfg.Marketplace.Platform = "marketplace"
	}
	if cfg.Marketplace.APIBaseURL == "" {
		cfg.Marketplace.APIBaseURL = "https://api.marketplace.example"
	}
	if len(cfg.Marketplace.AllowedDomains) == 0 {
		cfg.Marketplace.AllowedDomains = []string{"marketplace.example"}
	}
	if cfg.Marketplace.Timeout == 0 {
		cfg.Marketplace.Timeout = 30 * time.Second
	}

	if cfg.Import.SimilarityThreshold == 0 {
		cfg.Import.SimilarityThreshold = 0.5
	}
	if cfg.Import.DefaultCategorySlug == "" {
		cfg.Import.DefaultCategorySlug = "imported-products"
	}
	if cfg.Import.DefaultCategoryName == "" {
		cfg.Import.DefaultCategoryName = "Produits Importés"
	}
	if cfg.Import.DefaultVendorName == "" {
		cfg.Import.DefaultVendorName = "Imported Goods"
	}
	if cfg.Import.DefaultVendorSlug == "" {
		cfg.Import.DefaultVendorSlug = "imported-goods"
	}
	if cfg.Import.DefaultVendorEmail == "" {
		cfg.Import.DefaultVendorEmail = "imports@storefront.invalid"
	}
	if cfg.Import.MaxSlugAttempts == 0 {
		cfg.Import.MaxSlugAttempts = 5
	}
	if cfg.Import.IndexTTL == 0 {
		cfg.Import.IndexTTL = 24 * time.Hour
	}
	if len(cfg.Import.CategoryKeywords) == 0 {
		cfg.Import.CategoryKeywords = DefaultCategoryKeywords()
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("database.driver must be one of postgres, sqlite, memory, got %q", c.Database.Driver)
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

	if c.Import.SimilarityThreshold <= 0 || c.Import.SimilarityThreshold > 1 {
		return fmt.Errorf("import.similarity_threshold must be in (0, 1], got %v", c.Import.SimilarityThreshold)
	}
	if c.Import.MaxSlugAttempts < 1 {
		return fmt.Errorf("import.max_slug_attempts must be at least 1")
	}
	if _, err := url.Parse(c.Marketplace.APIBaseURL); err != nil {
		return fmt.Errorf("marketplace.api_base_url is invalid: %w", err)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %v", c.Telemetry.SamplingRatio)
	}

	if c.App.IsProduction() {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver == "memory" {
			return fmt.Errorf("database.driver 'memory' is not allowed in production")
		}
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
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
