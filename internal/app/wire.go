package app

import (
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"cipherchat/internal/inference"
	"cipherchat/internal/persist"
	"cipherchat/internal/services/lifecycle"
)

// Wire bundles the logger, the session file, the inference client and the
// controller for the CLI.
type Wire struct {
	Log        *logrus.Logger
	Repository *persist.FileRepository
	Inference  *inference.HTTP
	Controller *lifecycle.Controller
}

// NewWire constructs the dependency graph from cfg. The controller is left
// Uninitialized; commands choose between Create and Restore.
func NewWire(cfg Config) (*Wire, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	repo := persist.NewFileRepository(cfg.Home, log)

	// Ensure an HTTP client is available for outbound calls
	ic := inference.NewHTTP(cfg.InferenceURL)
	if cfg.HTTP != nil {
		ic.HTTP = cfg.HTTP
	} else {
		ic.HTTP = http.DefaultClient
	}

	ctrl, err := lifecycle.New(lifecycle.Config{
		Model:            cfg.Model,
		Repository:       repo,
		Inference:        ic,
		InferenceTimeout: cfg.InferenceTimeout,
		Log:              log,
	})
	if err != nil {
		return nil, fmt.Errorf("build controller: %w", err)
	}

	log.WithFields(logrus.Fields{
		"home":      cfg.Home,
		"model":     cfg.Model,
		"inference": cfg.InferenceURL,
	}).Debug("wired")

	return &Wire{
		Log:        log,
		Repository: repo,
		Inference:  ic,
		Controller: ctrl,
	}, nil
}
