package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hookline/hookline/cmd/hookline/cli/fsutil"
	"github.com/hookline/hookline/cmd/hookline/cli/jsonutil"
)

// ErrNoState is returned by Load when no document exists yet.
var ErrNoState = errors.New("no analytics recorded yet")

// Store reads and updates one analytics document.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore returns a store for the document at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// NewStoreWithClock is NewStore with an injectable clock.
func NewStoreWithClock(path string, now func() time.Time) *Store {
	return &Store{path: path, now: now}
}

// Path is the document location.
func (s *Store) Path() string { return s.path }

func (s *Store) lockPath() string { return s.path + ".lock" }

// Load reads the document. It never creates one.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("read analytics state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse analytics state %s: %w", s.path, err)
	}
	st.normalize()
	return &st, nil
}

// Record applies entries under the store lock: load or initialise, start a
// new session if sessionID changed, increment, then atomically replace the
// document. A corrupt document is reported and left untouched.
func (s *Store) Record(ctx context.Context, sessionID string, entries ...Entry) (*State, error) {
	lock, err := fsutil.AcquireLock(ctx, s.lockPath())
	if err != nil {
		return nil, fmt.Errorf("lock analytics state: %w", err)
	}
	defer func() { _ = lock.Release() }()

	now := s.now()
	st, err := s.Load()
	switch {
	case errors.Is(err, ErrNoState):
		st = NewState(now)
	case err != nil:
		return nil, err
	}

	st.startSession(sessionID, now)
	for _, e := range entries {
		st.apply(e, now)
	}
	st.LastUpdated = now

	data, err := jsonutil.MarshalIndentWithNewline(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal analytics state: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write analytics state: %w", err)
	}
	return st, nil
}
