// Package config reads the service configuration from the environment through viper.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Log    LogConfig
	Ledger LedgerConfig
	WS     WSConfig
}

type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig for PostgreSQL. Driver "memory" runs on the in-memory store instead.
type DBConfig struct {
	Driver      string
	DatabaseURL string // takes precedence over the discrete fields when set
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString returns DATABASE_URL if set, otherwise the DSN built from the fields.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN builds a postgres URL; the password is escaped by url.UserPassword.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

type JWTConfig struct {
	Secret     string
	Expiration int // minutes
	Issuer     string
}

func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.Expiration) * time.Minute
}

type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns host:port to listen on.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig enables the cross-instance notification relay when Addr is set.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// KafkaConfig enables the ledger event stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Level string
	File  string
}

type LedgerConfig struct {
	StoreTimeout      time.Duration
	LowStockThreshold int
}

type WSConfig struct {
	SendBuffer int
}

// Load reads configuration from the environment (and an optional .env/config.env file).
// Environment variables win.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // optional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "inventory-ledger"),
		},
		DB: DBConfig{
			Driver:      strings.ToLower(getString(v, "DB_DRIVER", "postgres")),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "inventory"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "inventory-ledger"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 3000),
		},
		Redis: RedisConfig{
			Addr:          getString(v, "REDIS_ADDR", ""),
			Password:      getString(v, "REDIS_PASSWORD", ""),
			DB:            getInt(v, "REDIS_DB", 0),
			ChannelPrefix: getString(v, "REDIS_CHANNEL_PREFIX", "inventory:"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getString(v, "KAFKA_BROKERS", "")),
			Topic:   getString(v, "KAFKA_TOPIC", "inventory.transactions"),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
			File:  getString(v, "LOG_FILE", ""),
		},
		Ledger: LedgerConfig{
			StoreTimeout:      getDuration(v, "LEDGER_STORE_TIMEOUT", 5*time.Second),
			LowStockThreshold: getInt(v, "LEDGER_LOW_STOCK_THRESHOLD", 10),
		},
		WS: WSConfig{
			SendBuffer: getInt(v, "WS_SEND_BUFFER", 64),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: DB_DRIVER must be postgres or memory, got %q", c.DB.Driver)
	}
	if c.JWT.Secret == "" {
		if c.App.Env == "production" {
			return fmt.Errorf("config: JWT_SECRET is required in production")
		}
		c.JWT.Secret = "dev-secret-change-me"
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("config: JWT_EXPIRATION_MINUTES must be positive")
	}
	if c.Ledger.StoreTimeout <= 0 {
		return fmt.Errorf("config: LEDGER_STORE_TIMEOUT must be positive")
	}
	if c.WS.SendBuffer <= 0 {
		c.WS.SendBuffer = 64
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getDuration accepts Go durations ("750ms", "5s") or a bare number of seconds.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	s := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
