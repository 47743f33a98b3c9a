// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package jobstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Collection is the full persisted state: every job plus the counter
// from which new IDs are drawn. The counter only ever increases, so
// a deleted job's ID is never reissued.
type Collection struct {
	Counter int    `json:"counter"`
	Jobs    []*Job `json:"jobs"`
}

// NextID allocates a fresh job ID by advancing the counter.
func (c *Collection) NextID() int {
	c.Counter++
	return c.Counter
}

// Find returns the job with the given ID, or nil if no such job
// exists.
func (c *Collection) Find(id int) *Job {
	for _, job := range c.Jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}

// Remove deletes the job with the given ID, reporting whether it was
// present. The counter is unaffected.
func (c *Collection) Remove(id int) bool {
	for i, job := range c.Jobs {
		if job.ID == id {
			c.Jobs = slices.Delete(c.Jobs, i, i+1)
			return true
		}
	}
	return false
}

// Store persists a job collection. Update is the only mutating entry
// point bot code should use: it serializes read-modify-write cycles
// so concurrent event handlers cannot lose writes.
type Store interface {
	Load() (*Collection, error)
	Save(*Collection) error
	Update(func(*Collection) error) error
}

// FileStore keeps the collection in a single JSON file. A missing
// file reads as an empty collection, so first run needs no setup.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore backed by the file at path. The
// file is not touched until the first Save or Update.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the collection from disk.
func (s *FileStore) Load() (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() (*Collection, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading job store: %w", err)
	}
	var collection Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("parsing job store %s: %w", s.path, err)
	}
	return &collection, nil
}

// Save writes the collection to disk. The write goes through a
// temporary file in the same directory followed by a rename, so a
// crash mid-write leaves the previous state intact.
func (s *FileStore) Save(collection *Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(collection)
}

func (s *FileStore) save(collection *Collection) error {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding job store: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating job store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary job store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing job store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing job store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing job store: %w", err)
	}
	return nil
}

// Update loads the collection, applies fn, and saves the result,
// holding the store lock for the whole cycle. If fn returns an error
// nothing is written.
func (s *FileStore) Update(fn func(*Collection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	collection, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(collection); err != nil {
		return err
	}
	return s.save(collection)
}
