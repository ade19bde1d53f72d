package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alexschlessinger/saintsal/bag"
	"github.com/alexschlessinger/saintsal/capabilities"
	"github.com/alexschlessinger/saintsal/messages"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const snapshotVersion = 1

// SessionState is the serializable form of a session
type SessionState struct {
	ID           string                    `json:"id"`
	UserID       string                    `json:"user_id,omitempty"`
	Capabilities []capabilities.Capability `json:"capabilities"`
	History      []messages.ChatMessage    `json:"history"`
	Context      *bag.Bag                  `json:"context,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	LastActivity time.Time                 `json:"last_activity"`
}

func (s *Session) state() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionState{
		ID:           s.id,
		UserID:       s.userID,
		Capabilities: s.caps.List(),
		History:      CopyHistory(s.history),
		Context:      bag.Clone(s.context),
		CreatedAt:    s.created,
		LastActivity: s.last,
	}
}

type snapshotFile struct {
	Version  int            `json:"version"`
	SavedAt  time.Time      `json:"saved_at"`
	Sessions []SessionState `json:"sessions"`
}

// FileSnapshot dumps and restores store state to a single JSON file so a
// restarted process can pick up warm sessions. It is best effort: sessions
// created after the last save are lost on a crash.
type FileSnapshot struct {
	path string
	lock *flock.Flock
}

// NewFileSnapshot creates a snapshot writer for path. Concurrent processes
// sharing the path are serialized through an advisory lock on path + ".lock".
func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the snapshot file location
func (f *FileSnapshot) Path() string { return f.path }

// Save atomically replaces the snapshot file with states
func (f *FileSnapshot) Save(ctx context.Context, states []SessionState) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	locked, err := f.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire snapshot lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("snapshot %s is locked by another process", f.path)
	}
	defer f.lock.Unlock()

	data, err := json.Marshal(snapshotFile{
		Version:  snapshotVersion,
		SavedAt:  time.Now(),
		Sessions: states,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	zap.S().Debugw("snapshot_saved", "path", f.path, "sessions", len(states))
	return nil
}

// Load reads the snapshot file. A missing file yields no sessions and no error.
func (f *FileSnapshot) Load(ctx context.Context) ([]SessionState, error) {
	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	locked, err := f.lock.TryRLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire snapshot lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("snapshot %s is locked by another process", f.path)
	}
	defer f.lock.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if file.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", file.Version)
	}

	zap.S().Debugw("snapshot_loaded", "path", f.path, "sessions", len(file.Sessions))
	return file.Sessions, nil
}
