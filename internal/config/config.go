package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where LoadConfig looks when no explicit path is given.
const DefaultPath = "config/config.yaml"

type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

type SessionConfig struct {
	// Dir holds the persisted token file. "~" is expanded.
	Dir string `yaml:"dir" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type FilesConfig struct {
	RootDir string `yaml:"root_dir" validate:"required"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl" validate:"gt=0"`
}

type CacheConfig struct {
	// MaxAge of zero keeps entries fresh until a mutation invalidates them.
	MaxAge time.Duration `yaml:"max_age" validate:"gte=0"`
}

type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Server  struct {
		Port int `yaml:"port" validate:"min=1,max=65535"`
	} `yaml:"server"`
	Database struct {
		// DSN empty means in-memory repositories for the dev server.
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Files FilesConfig `yaml:"files"`
	Auth  AuthConfig  `yaml:"auth"`
	Cache CacheConfig `yaml:"cache"`
}

// Default returns a configuration usable without any file on disk.
func Default() *Config {
	cfg := &Config{
		API:     APIConfig{BaseURL: "http://localhost:8000", Timeout: 30 * time.Second},
		Session: SessionConfig{Dir: "~/.taskflow"},
		Log:     LogConfig{Level: "info"},
		Files:   FilesConfig{RootDir: "./files"},
		Auth:    AuthConfig{JWTSecret: "dev-secret-key-change-in-production", TokenTTL: 30 * time.Minute},
	}
	cfg.Server.Port = 8000
	return cfg
}

// LoadConfig reads the YAML file at path on top of Default, applies
// environment overrides and validates the result. A missing file at the
// default location is not an error; a missing explicit path is.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	applyEnv(cfg)

	dir, err := ExpandHome(cfg.Session.Dir)
	if err != nil {
		return nil, err
	}
	cfg.Session.Dir = dir

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TASKFLOW_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TASKFLOW_SESSION_DIR"); v != "" {
		cfg.Session.Dir = v
	}
	if v := os.Getenv("TASKFLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TASKFLOW_DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TASKFLOW_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
