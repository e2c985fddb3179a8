package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"cipherchat/internal/services/lifecycle"
)

// Environment variables read by FromEnv.
const (
	EnvHome             = "CIPHERCHAT_HOME"
	EnvModel            = "CIPHERCHAT_MODEL"
	EnvInferenceURL     = "CIPHERCHAT_INFERENCE_URL"
	EnvInferenceTimeout = "CIPHERCHAT_INFERENCE_TIMEOUT"
	EnvLogLevel         = "CIPHERCHAT_LOG_LEVEL"
)

// Defaults.
const (
	DefaultModel        = "llama3.2"
	DefaultInferenceURL = "http://127.0.0.1:11434"
	DefaultLogLevel     = "warn"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home             string        // session directory, e.g. $HOME/.cipherchat
	Model            string        // inference model the session belongs to
	InferenceURL     string        // inference base URL, e.g. http://127.0.0.1:11434
	InferenceTimeout time.Duration // bound on one inference call
	LogLevel         string        // logrus level name
	HTTP             *http.Client  // optional; defaults to http.DefaultClient
}

// DefaultConfig returns the built-in defaults. Home is ~/.cipherchat.
func DefaultConfig() (Config, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Home:             filepath.Join(dir, ".cipherchat"),
		Model:            DefaultModel,
		InferenceURL:     DefaultInferenceURL,
		InferenceTimeout: lifecycle.DefaultInferenceTimeout,
		LogLevel:         DefaultLogLevel,
	}, nil
}

// FromEnv returns the defaults overridden by the environment. A .env file in
// the working directory, then one in the home directory, fills in variables
// the environment does not already set.
func FromEnv() (Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}
	if err := loadDotEnv(filepath.Join(cfg.Home, ".env")); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv(EnvInferenceURL); v != "" {
		cfg.InferenceURL = v
	}
	if v := os.Getenv(EnvInferenceTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvInferenceTimeout, err)
		}
		cfg.InferenceTimeout = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}
