package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/attrieng/engine/internal/attrerr"
	"github.com/attrieng/engine/internal/layout"
	"github.com/attrieng/engine/internal/types"
)

// sessionsGuard serializes read-modify-write access to sessions.store,
// mirroring settings.Save's "load whole file, mutate, write whole file"
// pattern but keyed by sessionId instead of being a single flat struct.
type sessionsGuard struct {
	mu sync.Mutex
}

type sessionsFile struct {
	Sessions map[string]types.Session `json:"sessions"`
}

// PutSession creates or fully replaces a session record.
func (s *Store) PutSession(sess types.Session) error {
	s.sessionsMu.mu.Lock()
	defer s.sessionsMu.mu.Unlock()

	file, err := s.loadSessionsLocked()
	if err != nil {
		return err
	}
	file.Sessions[sess.SessionID] = sess
	return s.saveSessionsLocked(file)
}

// PatchSession applies patch to the named session's existing fields and
// persists the result. If the session does not exist, patch is stored as a
// brand-new session (covers the case where a session-end event arrives for
// a session whose session-start event was never recorded).
func (s *Store) PatchSession(sessionID string, patch func(*types.Session)) (types.Session, error) {
	s.sessionsMu.mu.Lock()
	defer s.sessionsMu.mu.Unlock()

	file, err := s.loadSessionsLocked()
	if err != nil {
		return types.Session{}, err
	}

	sess := file.Sessions[sessionID]
	if sess.SessionID == "" {
		sess.SessionID = sessionID
	}
	patch(&sess)
	file.Sessions[sessionID] = sess

	if err := s.saveSessionsLocked(file); err != nil {
		return types.Session{}, err
	}
	return sess, nil
}

// GetSession returns the session with the given id and whether it exists.
func (s *Store) GetSession(sessionID string) (types.Session, bool, error) {
	s.sessionsMu.mu.Lock()
	defer s.sessionsMu.mu.Unlock()

	file, err := s.loadSessionsLocked()
	if err != nil {
		return types.Session{}, false, err
	}
	sess, ok := file.Sessions[sessionID]
	return sess, ok, nil
}

func (s *Store) loadSessionsLocked() (sessionsFile, error) {
	path := layout.SessionsStorePath(s.root)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sessionsFile{Sessions: map[string]types.Session{}}, nil
		}
		return sessionsFile{}, fmt.Errorf("%w: reading %s: %v", attrerr.ErrIOFailure, path, err)
	}
	if len(data) == 0 {
		return sessionsFile{Sessions: map[string]types.Session{}}, nil
	}

	var file sessionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return sessionsFile{}, fmt.Errorf("%w: parsing %s: %v", attrerr.ErrCorruptRecord, path, err)
	}
	if file.Sessions == nil {
		file.Sessions = map[string]types.Session{}
	}
	return file, nil
}

func (s *Store) saveSessionsLocked(file sessionsFile) error {
	root := filepath.Join(s.root, layout.HookDataDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", attrerr.ErrIOFailure, root, err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding sessions store: %v", attrerr.ErrIOFailure, err)
	}

	path := layout.SessionsStorePath(s.root)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", attrerr.ErrIOFailure, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: renaming %s: %v", attrerr.ErrIOFailure, tmp, err)
	}
	return nil
}
