package embed

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ModelLock provides cross-process file locking over a model's directory
// under ~/.deepseeker/models/<model>/. It serializes first-use
// initialization (pulling an Ollama model, writing cache metadata) across
// concurrent deepseeker processes sharing the same model directory.
type ModelLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewModelLock creates a lock for the given model directory. The lock file
// is created at <dir>/.init.lock.
func NewModelLock(dir string) *ModelLock {
	lockPath := filepath.Join(dir, ".init.lock")
	return &ModelLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock acquires an exclusive lock, blocking until it is available.
func (l *ModelLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("acquire model lock: %w", err)
	}
	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking.
func (l *ModelLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire model lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times or when unlocked.
func (l *ModelLock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release model lock: %w", err)
	}
	l.locked = false
	return nil
}

// Path returns the lock file path.
func (l *ModelLock) Path() string { return l.path }

// IsLocked reports whether this handle currently holds the lock.
func (l *ModelLock) IsLocked() bool { return l.locked }

// ModelDir returns the deepseeker model directory for the given model name,
// under the user's home directory.
func ModelDir(modelName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".deepseeker", "models", modelName), nil
}
