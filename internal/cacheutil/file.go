// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// FileStore keeps one file per key beneath the cache base directory. Key
// names are md5-encoded so any string is a valid key.
type FileStore struct {
	// Subdirs namespace the store beneath the base directory.
	Subdirs []string
	// Base overrides Dir() when set.
	Base string
}

// NewFileStore returns a FileStore rooted at Dir()/subdirs...
func NewFileStore(subdirs ...string) *FileStore {
	return &FileStore{Subdirs: subdirs}
}

func (s *FileStore) base() (string, bool) {
	if s.Base != "" {
		return s.Base, true
	}
	return Dir()
}

// EntryPath returns the absolute path where the entry for clearKey would live.
// It also returns true if a file currently exists at that path.
func (s *FileStore) EntryPath(clearKey string) (string, bool) {
	base, ok := s.base()
	if !ok {
		return "", false
	}
	p := filepath.Join(append([]string{base}, append(s.Subdirs, encodeKey(clearKey))...)...)
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Get reads the entry for key.
func (s *FileStore) Get(key string) (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}
	p, ok := s.EntryPath(key)
	if !ok {
		return "", false, nil
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return string(bytes.TrimSpace(b)), true, nil
}

// Set stores value for key. Creates directories as needed.
func (s *FileStore) Set(key, value string) error {
	if !Enabled() {
		return nil // treat as disabled.
	}
	base, ok := s.base()
	if !ok {
		return nil // treat as disabled.
	}
	dir := filepath.Join(append([]string{base}, s.Subdirs...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Write to a sibling and rename so a reader never sees a torn value.
	p := filepath.Join(dir, encodeKey(key))
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Delete removes the entries for keys. Missing entries are not an error.
func (s *FileStore) Delete(keys ...string) error {
	var errs []error
	for _, key := range keys {
		p, ok := s.EntryPath(key)
		if !ok {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove cache entry: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Purge removes files older than the provided number of hours.
// If hours <= 0 or the cache dir cannot be resolved, it is a no-op.
func (s *FileStore) Purge(hours int) error {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return nil
	}
	base, ok := s.base()
	if !ok {
		return nil
	}
	maxAge := time.Duration(hours) * time.Hour
	if err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil
		}
		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

func (s *FileStore) String() string {
	base, _ := s.base()
	return "file:" + filepath.Join(append([]string{base}, s.Subdirs...)...)
}
