package lifecycle

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cipherchat/internal/domain"
	"cipherchat/internal/persist"
	"cipherchat/internal/services/identity"
	"cipherchat/internal/services/message"
	"cipherchat/internal/services/session"
)

// DefaultInferenceTimeout bounds a single inference call.
const DefaultInferenceTimeout = 2 * time.Minute

// Repository loads and saves the durable session.
type Repository interface {
	Load() (data persist.SessionData, found bool, err error)
	Save(data persist.SessionData) error
}

// Config is everything a Controller is built from. Model, Repository and
// Inference are required; the rest have defaults.
type Config struct {
	Model            string
	Repository       Repository
	Inference        domain.InferenceClient
	InferenceTimeout time.Duration

	Factory     domain.IdentityBundleFactory
	Establisher domain.SessionEstablisher
	Codec       domain.MessageCodec

	Log   logrus.FieldLogger
	Now   func() time.Time
	NewID func() string
}

var (
	errNoModel      = errors.New("lifecycle: model is required")
	errNoRepository = errors.New("lifecycle: repository is required")
	errNoInference  = errors.New("lifecycle: inference client is required")
)

func (c Config) withDefaults() (Config, error) {
	switch {
	case c.Model == "":
		return c, errNoModel
	case c.Repository == nil:
		return c, errNoRepository
	case c.Inference == nil:
		return c, errNoInference
	}
	if c.Log == nil {
		c.Log = logrus.StandardLogger()
	}
	if c.InferenceTimeout <= 0 {
		c.InferenceTimeout = DefaultInferenceTimeout
	}
	if c.Factory == nil {
		c.Factory = identity.New(identity.DefaultPreKeyCount)
	}
	if c.Establisher == nil {
		c.Establisher = session.New(c.Log)
	}
	if c.Codec == nil {
		c.Codec = message.New(c.Log)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c, nil
}
