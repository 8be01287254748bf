package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/credentials"
)

var _ credentials.Store = (*FileStore)(nil)

// FileStore persists the credential pair as a small JSON document on disk.
// Writes go to a temporary file in the same directory which is then renamed over
// the target, so a reader sees either the old pair or the new one.
type FileStore struct {
	path string
	lock sync.RWMutex
}

// New returns a store backed by path. The parent directory is created on first Save.
func New(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("[filestore New] empty credentials file path")
	}
	return &FileStore{path: path}, nil
}

// Path returns the file the pair is written to.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Save(pair credentials.Pair) error {
	if err := credentials.CheckPair(pair); err != nil {
		return err
	}
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("[filestore Save] marshal: %w", err)
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[filestore Save] create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("[filestore Save] create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore Save] chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore Save] write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore Save] sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[filestore Save] close: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("[filestore Save] rename: %w", err)
	}
	return nil
}

func (f *FileStore) Load() (credentials.Pair, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", f.path).Msg("Credentials file unreadable, treating as logged out")
		}
		return credentials.Pair{}, false
	}

	var pair credentials.Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		log.Warn().Err(err).Str("path", f.path).Msg("Credentials file corrupt, treating as logged out")
		return credentials.Pair{}, false
	}
	if !pair.Valid() {
		return credentials.Pair{}, false
	}
	return pair, true
}

func (f *FileStore) Clear() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[filestore Clear] %w", err)
	}
	return nil
}
