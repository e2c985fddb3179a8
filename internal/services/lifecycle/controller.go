package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"cipherchat/internal/domain"
	"cipherchat/internal/persist"
	"cipherchat/internal/services/identity"
	"cipherchat/internal/store"
)

// Failure is one persisted message that could not be read back on restore.
type Failure struct {
	RecordID string
	Sender   domain.Sender
	Err      error
}

// Exchange is the outcome of SendMessage. Assistant is zero when inference
// failed.
type Exchange struct {
	User      domain.ChatMessage
	Assistant domain.ChatMessage
}

// Controller owns both parties' identities and stores and the message log,
// and drives create, restore and reset. Its methods are serialised.
type Controller struct {
	mu  sync.Mutex
	cfg Config
	log logrus.FieldLogger

	state State
	err   error

	created   int64
	identityA domain.IdentityBundle
	identityB domain.IdentityBundle
	storesA   *store.KeyStoreCollection
	storesB   *store.KeyStoreCollection
	records   []domain.EncryptedMessageRecord
	messages  []domain.ChatMessage
	failures  []Failure
}

// New returns an uninitialised Controller.
func New(cfg Config) (*Controller, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Controller{
		cfg: cfg,
		log: cfg.Log.WithField("model", cfg.Model),
	}, nil
}

// Create discards any current session and starts a fresh one: two new
// identities, their stores, the handshake, and a save.
func (c *Controller) Create() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.create()
}

// Restore loads the saved session. With no saved session, or one made for a
// different model, it creates a new one instead. When every saved message
// fails to read back the history is cleared, the controller stays Ready and
// an error matching domain.ErrCorruptSession is returned.
func (c *Controller) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setState(StateLoading, nil)
	data, found, err := c.cfg.Repository.Load()
	if err != nil {
		return c.fail(err)
	}
	if !found {
		c.log.Info("no saved session, creating one")
		return c.create()
	}
	if data.Model != c.cfg.Model {
		c.log.WithField("saved_model", data.Model).Info("saved session belongs to another model, creating a new one")
		return c.create()
	}

	storesA, err := store.ReconstructCollection(data.StoresA)
	if err != nil {
		return c.fail(fmt.Errorf("%w: stores for %s: %w", domain.ErrPersistenceIO, domain.PartyA, err))
	}
	storesB, err := store.ReconstructCollection(data.StoresB)
	if err != nil {
		return c.fail(fmt.Errorf("%w: stores for %s: %w", domain.ErrPersistenceIO, domain.PartyB, err))
	}
	c.created = data.Created
	c.identityA, c.identityB = data.IdentityA, data.IdentityB
	c.storesA, c.storesB = storesA, storesB
	c.records = slices.Clone(data.Messages)
	c.messages, c.failures = c.reopenAll(c.records)

	if len(c.records) > 0 && len(c.messages) == 0 {
		lost := len(c.records)
		c.records = nil
		c.log.WithField("records", lost).Warn("no saved message could be read, clearing history")
		if err := c.save(); err != nil {
			return c.fail(err)
		}
		corrupt := fmt.Errorf("%w: none of %d messages could be decrypted", domain.ErrCorruptSession, lost)
		c.setState(StateReady, corrupt)
		return corrupt
	}

	c.setState(StateReady, nil)
	c.log.WithFields(logrus.Fields{
		"messages": len(c.messages),
		"failures": len(c.failures),
	}).Info("session restored")
	return nil
}

// Reset replaces the session with a fresh one. Old messages become
// unreadable for good.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady && c.state != StateError {
		return fmt.Errorf("%w: reset from %s", domain.ErrNotReady, c.state)
	}
	c.setState(StateResetting, nil)
	c.log.Info("resetting session")
	return c.create()
}

// SendMessage runs one exchange: A encrypts text and B reads it, the
// assistant's reply is produced from the decrypted history, B encrypts the
// reply and A reads it. The session is saved afterwards. If inference fails
// the user's message is still saved and the error is returned.
func (c *Controller) SendMessage(ctx context.Context, text string) (Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return Exchange{}, fmt.Errorf("%w: %s", domain.ErrNotReady, c.state)
	}

	user, err := c.exchange(domain.SenderA, text)
	if err != nil {
		return Exchange{}, err
	}

	ictx, cancel := context.WithTimeout(ctx, c.cfg.InferenceTimeout)
	reply, err := c.cfg.Inference.Complete(ictx, c.cfg.Model, c.history())
	cancel()
	if err != nil {
		c.log.WithError(err).Warn("inference failed")
		err = fmt.Errorf("inference: %w", err)
		if saveErr := c.save(); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
		return Exchange{User: user}, err
	}

	assistant, err := c.exchange(domain.SenderB, reply)
	if err != nil {
		return Exchange{User: user}, err
	}
	if err := c.save(); err != nil {
		return Exchange{User: user, Assistant: assistant}, err
	}
	c.err = nil
	return Exchange{User: user, Assistant: assistant}, nil
}

// Messages returns the decrypted conversation in order.
func (c *Controller) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Failures returns the messages that could not be read on the last restore.
func (c *Controller) Failures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.failures)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error attached to the current state: the blocking error
// in StateError, or a recoverable one such as a corrupt history in
// StateReady. A completed exchange clears the latter.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Fingerprints returns short fingerprints of both parties' identities.
func (c *Controller) Fingerprints() (a, b domain.Fingerprint, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return "", "", fmt.Errorf("%w: %s", domain.ErrNotReady, c.state)
	}
	return identity.Fingerprint(c.identityA), identity.Fingerprint(c.identityB), nil
}

func (c *Controller) create() error {
	c.setState(StateLoading, nil)

	identityA, err := c.cfg.Factory.Create()
	if err != nil {
		return c.fail(fmt.Errorf("identity for %s: %w", domain.PartyA, err))
	}
	identityB, err := c.cfg.Factory.Create()
	if err != nil {
		return c.fail(fmt.Errorf("identity for %s: %w", domain.PartyB, err))
	}
	storesA := store.NewKeyStoreCollection(identityA)
	storesB := store.NewKeyStoreCollection(identityB)
	if err := c.cfg.Establisher.Establish(identityA, identityB, storesA, storesB); err != nil {
		return c.fail(err)
	}

	c.created = c.cfg.Now().UnixMilli()
	c.identityA, c.identityB = identityA, identityB
	c.storesA, c.storesB = storesA, storesB
	c.records, c.messages, c.failures = nil, nil, nil

	if err := c.save(); err != nil {
		return c.fail(err)
	}
	c.setState(StateReady, nil)
	c.log.WithFields(logrus.Fields{
		"fingerprint_a": identity.Fingerprint(identityA),
		"fingerprint_b": identity.Fingerprint(identityB),
	}).Info("session created")
	return nil
}

// exchange encrypts text from sender, has the other party decrypt it, and
// appends the record and the decrypted message.
func (c *Controller) exchange(sender domain.Sender, text string) (domain.ChatMessage, error) {
	from, to, peer, role := c.storesA, c.storesB, domain.PartyA, domain.RoleUser
	if sender == domain.SenderB {
		from, to, peer, role = c.storesB, c.storesA, domain.PartyB, domain.RoleAssistant
	}

	ct, err := c.cfg.Codec.Encrypt([]byte(text), recipientName(sender), from)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("encrypt from %s: %w", sender, err)
	}
	pt, err := c.cfg.Codec.Decrypt(ct.Bytes, ct.Type, peer, to)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("decrypt from %s: %w", sender, err)
	}

	rec := domain.EncryptedMessageRecord{
		ID:          c.cfg.NewID(),
		Sender:      sender,
		Ciphertext:  ct.Bytes,
		MessageType: ct.Type,
		Timestamp:   c.cfg.Now().UnixMilli(),
	}
	msg := domain.ChatMessage{ID: rec.ID, Role: role, Content: string(pt), Timestamp: rec.Timestamp}
	c.records = append(c.records, rec)
	c.messages = append(c.messages, msg)
	return msg, nil
}

// reopenAll reads every record back through the recipient's stores.
func (c *Controller) reopenAll(records []domain.EncryptedMessageRecord) ([]domain.ChatMessage, []Failure) {
	var (
		messages []domain.ChatMessage
		failures []Failure
	)
	for _, rec := range records {
		to, role := c.storesB, domain.RoleUser
		if rec.Sender == domain.SenderB {
			to, role = c.storesA, domain.RoleAssistant
		}
		pt, err := c.cfg.Codec.Reopen(rec.Ciphertext, rec.MessageType, string(rec.Sender), to)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"id":     rec.ID,
				"sender": string(rec.Sender),
			}).WithError(err).Warn("saved message could not be decrypted")
			failures = append(failures, Failure{RecordID: rec.ID, Sender: rec.Sender, Err: err})
			continue
		}
		messages = append(messages, domain.ChatMessage{
			ID:        rec.ID,
			Role:      role,
			Content:   string(pt),
			Timestamp: rec.Timestamp,
		})
	}
	return messages, failures
}

func (c *Controller) history() []domain.ChatTurn {
	turns := make([]domain.ChatTurn, 0, len(c.messages))
	for _, m := range c.messages {
		turns = append(turns, domain.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}

// save writes the whole session. Consumed one-time pre-keys are left out of
// the saved identity bundles as well as the stores.
func (c *Controller) save() error {
	c.storesA.Lock()
	stA := c.storesA.Serialize()
	remainingA := c.storesA.RemainingPreKeys()
	c.storesA.Unlock()

	c.storesB.Lock()
	stB := c.storesB.Serialize()
	remainingB := c.storesB.RemainingPreKeys()
	c.storesB.Unlock()

	return c.cfg.Repository.Save(persist.SessionData{
		Version:   persist.CurrentVersion,
		Created:   c.created,
		Model:     c.cfg.Model,
		IdentityA: withPreKeys(c.identityA, remainingA),
		IdentityB: withPreKeys(c.identityB, remainingB),
		StoresA:   stA,
		StoresB:   stB,
		Messages:  slices.Clone(c.records),
	})
}

func (c *Controller) setState(s State, err error) {
	if s != c.state {
		c.log.WithFields(logrus.Fields{"from": c.state.String(), "to": s.String()}).Debug("state change")
	}
	c.state, c.err = s, err
}

func (c *Controller) fail(err error) error {
	c.setState(StateError, err)
	c.log.WithError(err).Error("session unavailable")
	return err
}

func recipientName(sender domain.Sender) string {
	if sender == domain.SenderA {
		return domain.PartyB
	}
	return domain.PartyA
}

func withPreKeys(b domain.IdentityBundle, keep []domain.PreKeyID) domain.IdentityBundle {
	b.PreKeys = slices.DeleteFunc(slices.Clone(b.PreKeys), func(r domain.PreKeyRecord) bool {
		return !slices.Contains(keep, r.ID)
	})
	return b
}
