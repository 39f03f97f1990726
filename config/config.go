// Package config loads process configuration: .env file (if present), then
// the optional YAML file named by CONFIG_FILE, then environment variables.
// Environment wins, and secrets only come from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session holds token lifetimes. Signup sessions historically run longer
// than logins; both are configuration, not constants.
type Session struct {
	SignupTTL time.Duration
	LoginTTL  time.Duration
}

type Config struct {
	Addr      string
	DSN       string
	SecretKey string
	Origins   []string
	Session   Session
}

type fileConfig struct {
	Addr    string   `yaml:"addr"`
	Origins []string `yaml:"origins"`
	Session struct {
		SignupTTL string `yaml:"signup_ttl"`
		LoginTTL  string `yaml:"login_ttl"`
	} `yaml:"session"`
}

func Load() (Config, error) {
	godotenv.Load()

	cfg := Config{
		Addr: ":8000",
		Session: Session{
			SignupTTL: 720 * time.Hour,
			LoginTTL:  24 * time.Hour,
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if origins := os.Getenv("ORIGINS"); origins != "" {
		cfg.Origins = strings.Fields(origins)
	}
	cfg.DSN = os.Getenv("DSN")
	cfg.SecretKey = os.Getenv("SECRET_KEY")

	if cfg.DSN == "" {
		return Config{}, fmt.Errorf("config: DSN not set")
	}
	if cfg.SecretKey == "" {
		return Config{}, fmt.Errorf("config: SECRET_KEY not set")
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if len(fc.Origins) > 0 {
		cfg.Origins = fc.Origins
	}
	if fc.Session.SignupTTL != "" {
		d, err := time.ParseDuration(fc.Session.SignupTTL)
		if err != nil {
			return fmt.Errorf("config: session.signup_ttl: %w", err)
		}
		cfg.Session.SignupTTL = d
	}
	if fc.Session.LoginTTL != "" {
		d, err := time.ParseDuration(fc.Session.LoginTTL)
		if err != nil {
			return fmt.Errorf("config: session.login_ttl: %w", err)
		}
		cfg.Session.LoginTTL = d
	}
	return nil
}
