package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
	CookieName    string `mapstructure:"cookie_name"`
}

type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type AuthConfig struct {
	// PublicPrefixes lists path prefixes that bypass the auth gate.
	// Prefix match, not exact match.
	PublicPrefixes []string `mapstructure:"public_prefixes"`
	LoginPath      string   `mapstructure:"login_path"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. GV_SERVER_PORT=9000
		v.SetEnvPrefix("GV")
		v.AutomaticEnv()

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		applyDefaults(&c)
		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

func applyDefaults(c *Config) {
	if c.JWT.ExpireMinutes <= 0 {
		c.JWT.ExpireMinutes = 30
	}
	if c.JWT.CookieName == "" {
		c.JWT.CookieName = "access_token"
	}
	if c.Security.BcryptCost <= 0 {
		c.Security.BcryptCost = 12
	}
	if c.Auth.LoginPath == "" {
		c.Auth.LoginPath = "/login"
	}
	if len(c.Auth.PublicPrefixes) == 0 {
		c.Auth.PublicPrefixes = []string{
			"/api/auth/", "/login", "/static", "/docs", "/openapi.json", "/healthz",
		}
	}
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
