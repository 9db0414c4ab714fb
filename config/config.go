package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port           string
	Environment    string
	AllowedOrigins []string

	// AdminToken guards the /api/whatsapp/admin routes; empty disables them.
	AdminToken string

	Logging  LoggingConfig
	Database DatabaseConfig
	Redis    RedisConfig
	WhatsApp WhatsAppConfig
}

type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

type DatabaseConfig struct {
	Type     string // "mongodb" or "memory"
	URI      string
	Name     string
	Host     string
	Port     string
	Username string
	Password string

	// Connection pool settings
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
}

type RedisConfig struct {
	Address    string // empty keeps known names in process memory
	Password   string
	DB         int
	SessionTTL time.Duration
}

type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string
	APIURL        string
	APIVersion    string
}

// Enabled reports whether outgoing WhatsApp messages can be sent.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != ""
}

var cfg *Config

var defaults = map[string]interface{}{
	"PORT":                 "8080",
	"ENVIRONMENT":          "development",
	"ALLOWED_ORIGINS":      "http://localhost:3000",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "console",
	"DB_TYPE":              "memory",
	"DB_NAME":              "vikas_assistant",
	"DB_HOST":              "localhost",
	"DB_PORT":              "27017",
	"DB_MAX_CONNECTIONS":   100,
	"DB_MIN_CONNECTIONS":   10,
	"DB_MAX_IDLE_TIME":     "30m",
	"REDIS_DB":             0,
	"SESSION_TTL":          "24h",
	"WHATSAPP_API_URL":     "https://graph.facebook.com",
	"WHATSAPP_API_VERSION": "v18.0",
}

// Load initializes the configuration from .env, an optional config.yaml and
// the process environment, in increasing order of precedence.
func Load() error {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	loaded := &Config{
		Port:           v.GetString("PORT"),
		Environment:    v.GetString("ENVIRONMENT"),
		AllowedOrigins: getAsSlice(v, "ALLOWED_ORIGINS"),
		AdminToken:     v.GetString("ADMIN_TOKEN"),

		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},

		Database: DatabaseConfig{
			Type:     v.GetString("DB_TYPE"),
			URI:      v.GetString("DATABASE_URL"),
			Name:     v.GetString("DB_NAME"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Username: v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),

			MaxConnections: v.GetInt("DB_MAX_CONNECTIONS"),
			MinConnections: v.GetInt("DB_MIN_CONNECTIONS"),
			MaxIdleTime:    v.GetDuration("DB_MAX_IDLE_TIME"),
		},

		Redis: RedisConfig{
			Address:    v.GetString("REDIS_ADDR"),
			Password:   v.GetString("REDIS_PASSWORD"),
			DB:         v.GetInt("REDIS_DB"),
			SessionTTL: v.GetDuration("SESSION_TTL"),
		},

		WhatsApp: WhatsAppConfig{
			AccessToken:   v.GetString("WHATSAPP_ACCESS_TOKEN"),
			PhoneNumberID: v.GetString("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   v.GetString("WHATSAPP_VERIFY_TOKEN"),
			AppSecret:     v.GetString("WHATSAPP_APP_SECRET"),
			APIURL:        strings.TrimRight(v.GetString("WHATSAPP_API_URL"), "/"),
			APIVersion:    v.GetString("WHATSAPP_API_VERSION"),
		},
	}

	if err := validate(loaded); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg = loaded
	return nil
}

// ErrNotLoaded is returned by Get before a successful Load.
var ErrNotLoaded = errors.New("configuration not loaded, call Load() first")

// Get returns the loaded configuration
func Get() (*Config, error) {
	if cfg == nil {
		return nil, ErrNotLoaded
	}
	return cfg, nil
}

func getAsSlice(v *viper.Viper, key string) []string {
	raw := v.GetString(key)
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validate(c *Config) error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}

	switch c.Database.Type {
	case "memory":
	case "mongodb":
		if c.Database.URI == "" && (strings.TrimSpace(c.Database.Host) == "" || c.Database.Port == "") {
			return fmt.Errorf("database URI or host/port must be provided")
		}
		if c.Database.MinConnections > c.Database.MaxConnections {
			return fmt.Errorf("DB_MIN_CONNECTIONS (%d) exceeds DB_MAX_CONNECTIONS (%d)",
				c.Database.MinConnections, c.Database.MaxConnections)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Redis.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT: %s", c.Logging.Format)
	}

	return nil
}

// BuildDatabaseURI constructs the database URI if not provided
func (c *Config) BuildDatabaseURI() string {
	if c.Database.URI != "" {
		return c.Database.URI
	}

	if c.Database.Username != "" && c.Database.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
