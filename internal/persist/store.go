// Package persist saves group registry snapshots to disk so a host that
// reconnects to the same browser keeps its group labels and colors.
package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/schema"
)

// RegistrySnapshot captures a host's groups and their members.
type RegistrySnapshot struct {
	Groups []schema.GroupSnapshot `json:"groups"`
}

// Store persists registry snapshots to disk, one file per key.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads a snapshot from disk. A missing file is not an error.
func (s *Store) Load(key string) (RegistrySnapshot, bool, error) {
	path := s.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.debug("state load miss", "key", key)
			return RegistrySnapshot{}, false, nil
		}
		s.warn("state load failed", "key", key, "err", err)
		return RegistrySnapshot{}, false, err
	}
	var snapshot RegistrySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.warn("state load failed", "key", key, "err", err)
		return RegistrySnapshot{}, false, err
	}
	s.debug("state load ok", "key", key, "groups", len(snapshot.Groups))
	return snapshot, true, nil
}

// Save atomically replaces the snapshot stored under key.
func (s *Store) Save(key string, snapshot RegistrySnapshot) error {
	path := s.pathFor(key)
	if err := s.write(path, snapshot); err != nil {
		s.warn("state save failed", "key", key, "err", err)
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "key", key, "groups", len(snapshot.Groups))
	}
	return nil
}

func (s *Store) write(path string, snapshot RegistrySnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "state-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) debug(msg string, kv ...any) {
	if s.log != nil {
		s.log.Debug(msg, kv...)
	}
}

func (s *Store) warn(msg string, kv ...any) {
	if s.log != nil {
		s.log.Warn(msg, kv...)
	}
}

func (s *Store) pathFor(key string) string {
	name := sanitize(key)
	if name == "" {
		name = "default"
	}
	return filepath.Join(s.dir, name+".json")
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
