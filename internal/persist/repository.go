package persist

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"cipherchat/internal/domain"
)

// FileName is the session file's name inside the home directory.
const FileName = "session.json"

// FileRepository keeps one SessionData in a JSON file. Writes replace the
// file atomically.
type FileRepository struct {
	path string
	log  logrus.FieldLogger
	mu   sync.Mutex
}

// NewFileRepository returns a FileRepository for dir/session.json.
func NewFileRepository(dir string, log logrus.FieldLogger) *FileRepository {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FileRepository{path: filepath.Join(dir, FileName), log: log}
}

// Path returns the session file path.
func (r *FileRepository) Path() string { return r.path }

// Load reads the session. found is false when no file exists yet.
func (r *FileRepository) Load() (data SessionData, found bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := readFile(r.path)
	if err != nil {
		return SessionData{}, false, fmt.Errorf("%w: read %s: %v", domain.ErrPersistenceIO, r.path, err)
	}
	if b == nil {
		return SessionData{}, false, nil
	}
	data, err = Decode(b)
	if err != nil {
		return SessionData{}, false, fmt.Errorf("%w: %s: %w", domain.ErrPersistenceIO, r.path, err)
	}
	return data, true, nil
}

// Save writes data, replacing what was there.
func (r *FileRepository) Save(data SessionData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := Encode(data)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrPersistenceIO, err)
	}
	if err := writeFile(r.path, b, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersistenceIO, r.path, err)
	}
	r.log.WithFields(logrus.Fields{
		"path":     r.path,
		"messages": len(data.Messages),
	}).Debug("session saved")
	return nil
}
