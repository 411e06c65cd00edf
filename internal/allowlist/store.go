// Package allowlist keeps the allowed users and signup requests in two flat
// JSON files that an operator can also edit by hand.
package allowlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/watcher"
)

// File names under the allow-list directory.
const (
	UsersFile    = "users.json"
	RequestsFile = "signup-requests.json"
)

// Store holds both files in memory. Writes go to disk first, atomically,
// and only then replace the in-memory copy. Every I/O failure is returned.
type Store struct {
	dir    string
	logger *slog.Logger

	mu       sync.RWMutex
	users    []domain.AllowedUser
	requests []domain.SignupRequest
}

// Open creates dir if needed and loads both files. Missing files are empty;
// unparseable files are an error.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create allow-list dir: %w", err)
	}

	s := &Store{dir: dir, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the directory holding the files.
func (s *Store) Dir() string {
	return s.dir
}

// Reload rereads both files. On error the previous contents are kept.
func (s *Store) Reload() error {
	users, err := readFile[domain.AllowedUser](filepath.Join(s.dir, UsersFile))
	if err != nil {
		return err
	}
	requests, err := readFile[domain.SignupRequest](filepath.Join(s.dir, RequestsFile))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.users, s.requests = users, requests
	s.mu.Unlock()
	return nil
}

// Users returns a copy of the allowed users.
func (s *Store) Users() []domain.AllowedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// User looks up an allowed user by normalized email.
func (s *Store) User(email string) (domain.AllowedUser, bool) {
	email = domain.NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if domain.NormalizeEmail(u.Email) == email {
			return u, true
		}
	}
	return domain.AllowedUser{}, false
}

// Requests returns a copy of the signup requests.
func (s *Store) Requests() []domain.SignupRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.requests)
}

// Update runs fn on copies of both lists under the write lock and persists
// whichever lists fn changed. If fn fails nothing is written. If the second
// file cannot be written the first is restored, so a failed update leaves
// both files and memory as they were.
func (s *Store) Update(fn func(users []domain.AllowedUser, requests []domain.SignupRequest) ([]domain.AllowedUser, []domain.SignupRequest, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, requests, err := fn(slices.Clone(s.users), slices.Clone(s.requests))
	if err != nil {
		return err
	}

	usersPath := filepath.Join(s.dir, UsersFile)
	usersChanged := !slices.EqualFunc(users, s.users, sameUser)
	requestsChanged := !slices.EqualFunc(requests, s.requests, sameRequest)

	if usersChanged {
		_, statErr := os.Stat(usersPath)
		hadUsersFile := statErr == nil
		if err := writeFile(usersPath, users); err != nil {
			return err
		}
		if requestsChanged {
			if err := writeFile(filepath.Join(s.dir, RequestsFile), requests); err != nil {
				if rbErr := s.restoreUsers(usersPath, hadUsersFile); rbErr != nil {
					s.logger.Error("failed to restore users file", "path", usersPath, "error", rbErr)
					return errors.Join(err, rbErr)
				}
				return err
			}
		}
	} else if requestsChanged {
		if err := writeFile(filepath.Join(s.dir, RequestsFile), requests); err != nil {
			return err
		}
	}

	s.users, s.requests = users, requests
	return nil
}

// restoreUsers puts the users file back to the in-memory copy, or removes
// it when it did not exist before.
func (s *Store) restoreUsers(path string, existed bool) error {
	if !existed {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	return writeFile(path, s.users)
}

// Follow reloads the store whenever the watcher reports a change to one of
// its files, until ctx is done or the event channel closes.
func (s *Store) Follow(ctx context.Context, events <-chan watcher.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch filepath.Base(ev.Path) {
			case UsersFile, RequestsFile:
			default:
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Error("allow-list reload failed, keeping previous contents", "path", ev.Path, "error", err)
				continue
			}
			s.logger.Info("allow-list reloaded", "path", ev.Path, "change", ev.Type.String())
		}
	}
}

func readFile[T any](path string) ([]T, error) {
	raw, err := os.ReadFile(path) //#nosec G304 -- path is built from the configured allow-list dir
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// writeFile replaces path atomically with the JSON encoding of items.
func writeFile[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func sameUser(a, b domain.AllowedUser) bool {
	return a.Email == b.Email && a.Name == b.Name && a.IsAdmin == b.IsAdmin &&
		a.Status == b.Status && a.Picture == b.Picture && a.CreatedAt.Equal(b.CreatedAt) &&
		equalTimePtr(a.LastLoginAt, b.LastLoginAt)
}

func sameRequest(a, b domain.SignupRequest) bool {
	return a.ID == b.ID && a.Status == b.Status && a.Email == b.Email && a.Name == b.Name &&
		a.Reason == b.Reason && a.DecidedBy == b.DecidedBy && equalTimePtr(a.DecidedAt, b.DecidedAt)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
