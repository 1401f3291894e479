// Package config はアプリケーション設定を環境変数から読み込みます。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvProduction is the APP_ENV value that enables production behaviour.
const EnvProduction = "production"

// devSessionSecret は開発環境でSESSION_SECRET未設定時に使う固定値です。
const devSessionSecret = "shelfflix-dev-secret-change-me"

// Store backends selectable through SESSION_STORE / USER_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreDB     = "db"
)

// Config holds the typed application settings.
type Config struct {
	Env                  string
	Port                 string
	SessionSecret        string
	SessionTTL           time.Duration
	SessionStore         string
	UserStore            string
	BcryptCost           int
	CORSAllowedOrigins   []string
	LogLevel             string
	SessionSweepInterval time.Duration
	// UserCacheTTL > 0 enables the Redis cache in front of user lookups.
	// キャッシュ済みのユーザーは、元のレコードが消えてもこの期間は解決され続けます。
	UserCacheTTL time.Duration
	// AuthRateLimit is the number of signup/signin requests allowed per client per minute. 0 disables it.
	AuthRateLimit int
	// TrustedProxies are the reverse proxies (IP or CIDR) whose X-Forwarded-For is honoured. Empty trusts none.
	TrustedProxies []string
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// NeedsRedis reports whether a Redis connection is required.
func (c *Config) NeedsRedis() bool {
	return c.SessionStore == StoreRedis || c.UserCacheTTL > 0
}

// NeedsDB reports whether any store is backed by the relational database.
func (c *Config) NeedsDB() bool {
	return c.UserStore == StoreDB || c.SessionStore == StoreDB
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("SESSION_STORE", StoreMemory)
	v.SetDefault("USER_STORE", StoreMemory)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "24h")
	v.SetDefault("USER_CACHE_TTL", "0s")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("TRUSTED_PROXIES", "")
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	v := newViper()

	cfg := &Config{
		Env:                  strings.ToLower(v.GetString("APP_ENV")),
		Port:                 v.GetString("PORT"),
		SessionSecret:        v.GetString("SESSION_SECRET"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		SessionStore:         strings.ToLower(v.GetString("SESSION_STORE")),
		UserStore:            strings.ToLower(v.GetString("USER_STORE")),
		BcryptCost:           v.GetInt("BCRYPT_COST"),
		CORSAllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		LogLevel:             v.GetString("LOG_LEVEL"),
		SessionSweepInterval: v.GetDuration("SESSION_SWEEP_INTERVAL"),
		UserCacheTTL:         v.GetDuration("USER_CACHE_TTL"),
		AuthRateLimit:        v.GetInt("AUTH_RATE_LIMIT"),
		TrustedProxies:       splitList(v.GetString("TRUSTED_PROXIES")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		if c.IsProduction() {
			return errors.New("SESSION_SECRET must be set in production")
		}
		slog.Warn("SESSION_SECRET is not set, using a development secret")
		c.SessionSecret = devSessionSecret
	}

	switch c.SessionStore {
	case StoreMemory, StoreRedis, StoreDB:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}

	switch c.UserStore {
	case StoreMemory, StoreDB:
	default:
		return fmt.Errorf("unsupported USER_STORE %q", c.UserStore)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}

	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p)
		}
	}
	return nil
}

// splitList はカンマ区切りの文字列を空要素を除いて分割します。
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
