package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const configFile = ".env"

// fileLoaded is set once Load has read configFile.
var fileLoaded bool

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Session   SessionConfig
	OAuth     OAuthConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port     string
	Env      string
	BaseURL  string
	LogLevel string
}

// IsProduction reports whether the service runs with production defaults
// (JSON logs, gin release mode).
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

type DBConfig struct {
	Driver     string // postgres | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// DSN builds the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

type OAuthConfig struct {
	ProviderID   string
	ClientID     string
	ClientSecret string
	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "./data/links.db")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("SESSION_TTL", "168h")
	viper.SetDefault("SESSION_COOKIE", "sus_session")

	viper.SetDefault("OAUTH_PROVIDER_ID", "hca")
	viper.SetDefault("OAUTH_SCOPES", "email,name,slack_id")

	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
}

// Load reads .env (when present) and the process environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	viper.SetConfigFile(configFile)
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
	} else {
		fileLoaded = true
	}

	cfg := fromViper()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Watch calls onChange with the re-read config every time .env changes.
// Does nothing when no .env was loaded.
func Watch(onChange func(*Config)) {
	if !fileLoaded {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(fromViper())
	})
	viper.WatchConfig()
}

func fromViper() *Config {
	var cfg Config
	cfg.App.Port = viper.GetString("APP_PORT")
	cfg.App.Env = viper.GetString("APP_ENV")
	cfg.App.BaseURL = strings.TrimRight(viper.GetString("BASE_URL"), "/")
	cfg.App.LogLevel = viper.GetString("LOG_LEVEL")

	cfg.DB.Driver = strings.ToLower(viper.GetString("DB_DRIVER"))
	cfg.DB.Host = viper.GetString("DB_HOST")
	cfg.DB.Port = viper.GetString("DB_PORT")
	cfg.DB.User = viper.GetString("DB_USER")
	cfg.DB.Password = viper.GetString("DB_PASSWORD")
	cfg.DB.Name = viper.GetString("DB_NAME")
	cfg.DB.SSLMode = viper.GetString("DB_SSLMODE")
	cfg.DB.SQLitePath = viper.GetString("SQLITE_PATH")

	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")
	cfg.Redis.Password = viper.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = viper.GetInt("REDIS_DB")

	cfg.Session.Secret = viper.GetString("SESSION_SECRET")
	cfg.Session.TTL = viper.GetDuration("SESSION_TTL")
	cfg.Session.CookieName = viper.GetString("SESSION_COOKIE")
	cfg.Session.CookieSecure = viper.GetBool("COOKIE_SECURE") || cfg.App.IsProduction()

	cfg.OAuth.ProviderID = viper.GetString("OAUTH_PROVIDER_ID")
	cfg.OAuth.ClientID = viper.GetString("OAUTH_CLIENT_ID")
	cfg.OAuth.ClientSecret = viper.GetString("OAUTH_CLIENT_SECRET")
	cfg.OAuth.AuthorizeURL = viper.GetString("OAUTH_AUTHORIZE_URL")
	cfg.OAuth.TokenURL = viper.GetString("OAUTH_TOKEN_URL")
	cfg.OAuth.UserInfoURL = viper.GetString("OAUTH_USERINFO_URL")
	cfg.OAuth.RedirectURL = viper.GetString("OAUTH_REDIRECT_URL")
	if cfg.OAuth.RedirectURL == "" {
		cfg.OAuth.RedirectURL = cfg.App.BaseURL + "/auth/callback"
	}
	cfg.OAuth.Scopes = splitList(viper.GetString("OAUTH_SCOPES"))

	cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = viper.GetInt("RATE_LIMIT_BURST")

	return &cfg
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	return nil
}

// splitList parses comma-separated values, e.g. "email,name,slack_id"
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
