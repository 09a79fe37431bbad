// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the service.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Limiter  Limiter
	Auth     Auth
	Media    Media
	SSO      SSO
}

// Server holds HTTP listener settings.
type Server struct {
	Addr   string
	WebDir string
}

// Postgres holds database connection settings.
type Postgres struct {
	DSN string
}

// Redis holds the rate-limiter backend settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Limiter tunes the fixed-window admission gate.
type Limiter struct {
	MaxRequests int
	Window      time.Duration
	// FallbackKey is charged when the client origin cannot be determined.
	FallbackKey string
}

// Auth tunes credential hashing and session lifetime.
type Auth struct {
	BcryptCost int
	SessionTTL time.Duration
}

// Media holds the CDN upload-auth key pair.
type Media struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string
	TokenTTL    time.Duration
}

// SSO holds optional OIDC settings. Disabled unless Enabled is set.
type SSO struct {
	Enabled      bool
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Load reads the named config file (without extension) from the config
// directory, applies BOOKWISE_* environment overrides, and unmarshals it.
func Load(filename string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOOKWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// Missing file is fine; registered defaults plus env vars carry
		// the config.
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// setDefaults registers every key, including those whose default is the zero
// value. Unmarshal only materializes keys viper knows about, so a key without
// a default would silently ignore its BOOKWISE_* env override when no config
// file is present.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.webdir", "web")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("limiter.maxrequests", 10)
	v.SetDefault("limiter.window", time.Minute)
	v.SetDefault("limiter.fallbackkey", "127.0.0.1")
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("auth.sessionttl", 24*time.Hour)
	v.SetDefault("media.publickey", "")
	v.SetDefault("media.privatekey", "")
	v.SetDefault("media.urlendpoint", "")
	v.SetDefault("media.tokenttl", 10*time.Minute)
	v.SetDefault("sso.enabled", false)
	v.SetDefault("sso.issuerurl", "")
	v.SetDefault("sso.clientid", "")
	v.SetDefault("sso.clientsecret", "")
	v.SetDefault("sso.redirecturl", "")
}
