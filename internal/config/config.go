// Package config loads service settings.
//
// Sources, highest priority first:
//  1. explicit --config path;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. environment only.
package config

import (
	"fmt"
	"gravatarlib/internal/gravatar"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Admin    AdminConfig    `yaml:"admin"`
	Gravatar GravatarConfig `yaml:"gravatar"`
}

type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"3000"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// DatabaseConfig selects the preset store. Driver is sqlite or postgres.
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn"    env:"DB_DSN"    env-default:"data/gravatar.db"`
}

type SessionConfig struct {
	HashKey  string        `yaml:"hash_key"  env:"SESSION_HASH_KEY"  env-default:"12345678901234567890123456789012"`
	BlockKey string        `yaml:"block_key" env:"SESSION_BLOCK_KEY" env-default:"12345678901234567890123456789012"`
	MaxAge   time.Duration `yaml:"max_age"   env:"SESSION_MAX_AGE"   env-default:"24h"`
	Secure   bool          `yaml:"secure"    env:"SESSION_SECURE"    env-default:"false"`
}

// AdminConfig guards preset writes. An empty hash disables them.
type AdminConfig struct {
	Username     string `yaml:"username"      env:"ADMIN_USERNAME"      env-default:"admin"`
	PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
}

// GravatarConfig holds the service-wide defaults for every built URL.
type GravatarConfig struct {
	SecureEndpoint   string `yaml:"secure_endpoint"   env:"GRAVATAR_SECURE_ENDPOINT"   env-default:"https://www.gravatar.com/avatar/"`
	InsecureEndpoint string `yaml:"insecure_endpoint" env:"GRAVATAR_INSECURE_ENDPOINT" env-default:"http://www.gravatar.com/avatar/"`
	Size             int    `yaml:"size"              env:"GRAVATAR_SIZE"              env-default:"80"`
	DefaultImage     string `yaml:"default_image"     env:"GRAVATAR_DEFAULT_IMAGE"`
	ForceDefault     bool   `yaml:"force_default"     env:"GRAVATAR_FORCE_DEFAULT"     env-default:"false"`
	MaxRating        string `yaml:"max_rating"        env:"GRAVATAR_MAX_RATING"        env-default:"g"`
	Secure           bool   `yaml:"secure"            env:"GRAVATAR_SECURE"            env-default:"false"`
}

// insecureSessionKey is the env-default for both session keys.
const insecureSessionKey = "12345678901234567890123456789012"

// UsesDefaultKeys reports whether either cookie key is still the public default.
func (s SessionConfig) UsesDefaultKeys() bool {
	return s.HashKey == insecureSessionKey || s.BlockKey == insecureSessionKey
}

func (g GravatarConfig) Endpoints() gravatar.Endpoints {
	return gravatar.Endpoints{Secure: g.SecureEndpoint, Insecure: g.InsecureEndpoint}
}

func (g GravatarConfig) Options() gravatar.Options {
	return gravatar.Options{
		Size:               g.Size,
		DefaultImage:       g.DefaultImage,
		ForceDefaultImage:  g.ForceDefault,
		MaxRating:          g.MaxRating,
		UseSecureTransport: g.Secure,
		Endpoints:          g.Endpoints(),
	}
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	var (
		loaded *Config
		err    error
	)
	switch {
	case path != "":
		loaded, err = tryRead(path)
	case os.Getenv("CONFIG_PATH") != "":
		loaded, err = tryRead(os.Getenv("CONFIG_PATH"))
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			loaded, err = tryRead("local.yaml")
		} else {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
			}
			loaded = &cfg
		}
	}
	if err != nil {
		return nil, err
	}

	if err := loaded.validate(); err != nil {
		return nil, err
	}
	return loaded, nil
}

// validate rejects gravatar defaults the service could never serve.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if _, err := gravatar.New(c.Gravatar.Options()); err != nil {
		return fmt.Errorf("gravatar defaults: %w", err)
	}
	return nil
}
