// Package journal provides implementations of sentmon's Journaler
// interface. It also provides a file locking abstraction so that only
// one supervisor can run against the same configuration directory.
package journal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/sentmon/sentmon/sentmon"
)

// multiWriter combines multiple journalers.
type multiWriter struct {
	writers []sentmon.Journaler
}

// MultiWriter creates a journaler that writes to multiple other
// journalers. The first write error is returned, but every journaler is
// attempted.
func MultiWriter(ws ...sentmon.Journaler) sentmon.Journaler {
	return &multiWriter{ws}
}

func (w *multiWriter) Write(event sentmon.Event) error {
	var firstErr error
	for _, writer := range w.writers {
		if err := writer.Write(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// FileLockJournaler is a journaler that uses a file lock (flock) to
// lock the given file and writes to it. Holding the lock doubles as the
// single-supervisor-per-configuration-directory guarantee. The instance
// must be closed by the caller or by the operating system when the
// application exits.
//
// Reading the Journal
//
// The caller does not need to acquire the file lock in order to read
// the written journal, as each Write performed on the file is
// guaranteed to always be valid and atomic.
type FileLockJournaler struct {
	Writer
	f *os.File
	l *flock.Flock
}

// ErrLockedElsewhere is returned if NewFileLockJournaler can't acquire
// the file lock.
var ErrLockedElsewhere = errors.New("file already locked elsewhere")

// NewFileLockJournaler creates a new file journaler if it can acquire a
// flock on the path. It returns ErrLockedElsewhere if another process
// holds the lock.
func NewFileLockJournaler(path string) (*FileLockJournaler, error) {
	return newFileLockJournaler(nil, path)
}

// NewFileLockJournalerWait creates a new file journaler but waits until
// the lock can be acquired or until the context times out.
func NewFileLockJournalerWait(ctx context.Context, path string) (*FileLockJournaler, error) {
	return newFileLockJournaler(ctx, path)
}

func newFileLockJournaler(ctx context.Context, path string) (*FileLockJournaler, error) {
	// Ensure the directory exists.
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create journal directory")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_SYNC, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}

	l := flock.New(path)

	var locked bool
	if ctx != nil {
		locked, err = l.TryLockContext(ctx, 25*time.Millisecond)
	} else {
		locked, err = l.TryLock()
	}

	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to acquire lock")
	}

	if !locked {
		f.Close()
		return nil, ErrLockedElsewhere
	}

	return &FileLockJournaler{
		Writer: NewWriter(f),
		f:      f,
		l:      l,
	}, nil
}

// Close closes the file and releases the flock. A forced exit may skip
// Close; the OS releases the lock either way.
func (f *FileLockJournaler) Close() error {
	f.f.Close()
	return f.l.Unlock()
}
