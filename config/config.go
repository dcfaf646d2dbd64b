// Package config loads runtime settings from the environment through viper.
//
// Required settings are not validated at startup. Components call Require at
// first use and surface the returned *Error to their callers.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Setting keys, also the environment variable names.
const (
	KeyTasksTable       = "TASKS_TABLE_NAME"
	KeyUsersTable       = "USERS_TABLE_NAME"
	KeyUserPoolID       = "USER_POOL_ID"
	KeyClientID         = "CLIENT_ID"
	KeyRegion           = "AWS_REGION"
	KeyJWTSecret        = "JWT_SECRET_KEY"
	KeyDatabaseURL      = "DATABASE_URL"
	KeyStoreDriver      = "STORE_DRIVER"
	KeySQLitePath       = "SQLITE_PATH"
	KeyDynamoEndpoint   = "DYNAMODB_ENDPOINT"
	KeyTasksUserIndex   = "TASKS_USER_INDEX"
	KeyRedisAddr        = "REDIS_ADDR"
	KeyCacheTTL         = "CACHE_TTL"
	KeyCachePrefix      = "CACHE_PREFIX"
	KeyIdentityProvider = "IDENTITY_PROVIDER"
	KeyIdentityDBPath   = "IDENTITY_DB_PATH"
	KeyAccessTokenTTL   = "ACCESS_TOKEN_TTL"
	KeyAuthorizerShape  = "AUTHORIZER_SHAPE"
	KeyHTTPPort         = "HTTP_PORT"
	KeyLogLevel         = "LOG_LEVEL"
)

// ErrMissing is matched by every *Error.
var ErrMissing = errors.New("missing required configuration")

// Error reports a required setting that was absent when first needed.
type Error struct {
	Key     string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", ErrMissing.Error(), e.Key)
}

// Unwrap lets errors.Is(err, ErrMissing) match.
func (e *Error) Unwrap() error {
	return ErrMissing
}

// Config is a read-mostly view over environment settings.
type Config struct {
	v *viper.Viper
}

// New creates a Config backed by the process environment with defaults applied.
func New() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(KeyStoreDriver, "sqlite")
	v.SetDefault(KeySQLitePath, "tasks.db")
	v.SetDefault(KeyTasksUserIndex, "userId")
	v.SetDefault(KeyCacheTTL, 5*time.Minute)
	v.SetDefault(KeyCachePrefix, "tasks:")
	v.SetDefault(KeyIdentityProvider, "local")
	v.SetDefault(KeyIdentityDBPath, "identity.db")
	v.SetDefault(KeyAccessTokenTTL, time.Hour)
	v.SetDefault(KeyAuthorizerShape, "jwt")
	v.SetDefault(KeyHTTPPort, 3000)
	v.SetDefault(KeyLogLevel, "info")

	return &Config{v: v}
}

// Viper exposes the underlying instance so commands can bind flags.
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// Set overrides a setting.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// String returns a setting with surrounding whitespace removed.
func (c *Config) String(key string) string {
	return strings.TrimSpace(c.v.GetString(key))
}

// Int returns an integer setting.
func (c *Config) Int(key string) int {
	return c.v.GetInt(key)
}

// Duration returns a duration setting, such as "5m" or "90s".
func (c *Config) Duration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// Require returns the value of key or an *Error when it is empty.
func (c *Config) Require(key string) (string, error) {
	val := c.String(key)
	if val == "" {
		return "", &Error{Key: key}
	}
	return val, nil
}

// RequireAll checks keys in order and reports the first missing one using msg
// as the error text. An empty msg falls back to the key-based text.
func (c *Config) RequireAll(msg string, keys ...string) error {
	for _, key := range keys {
		if c.String(key) == "" {
			return &Error{Key: key, Message: msg}
		}
	}
	return nil
}
