// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements [Store] on top of a single JSON document.
//
// The document is read once at open and rewritten in full on every mutation,
// through a temporary file and a rename so a crash never leaves half a file.
type FileStore struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

// OpenFileStore loads the document at path, creating an empty store if the
// file does not exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	store := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("file_store_open_failed: %w", err)
	}

	// An empty file is a valid empty store.
	if len(data) == 0 {
		return store, nil
	}

	if err := json.Unmarshal(data, &store.values); err != nil {
		return nil, fmt.Errorf("file_store_decode_failed: %w", err)
	}
	if store.values == nil {
		store.values = make(map[string]string)
	}

	return store, nil
}

// Path returns the location of the backing document.
func (store *FileStore) Path() string {
	return store.path
}

// Get implements [Store].
func (store *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	value, ok := store.values[key]
	return value, ok, nil
}

// Set implements [Store].
func (store *FileStore) Set(_ context.Context, key, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	previous, existed := store.values[key]
	store.values[key] = value

	if err := store.flush(); err != nil {
		// Keep memory and disk in agreement.
		if existed {
			store.values[key] = previous
		} else {
			delete(store.values, key)
		}
		return err
	}
	return nil
}

// Delete implements [Store].
func (store *FileStore) Delete(_ context.Context, keys ...string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	changed := false
	for _, key := range keys {
		if _, ok := store.values[key]; ok {
			delete(store.values, key)
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return store.flush()
}

// flush writes the current document. Callers must hold mu.
func (store *FileStore) flush() error {
	data, err := json.MarshalIndent(store.values, "", "  ")
	if err != nil {
		return fmt.Errorf("file_store_encode_failed: %w", err)
	}

	dir := filepath.Dir(store.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("file_store_mkdir_failed: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("file_store_temp_failed: %w", err)
	}
	tempPath := temp.Name()

	// Remove the temp file on every failure path.
	cleanup := func() { _ = os.Remove(tempPath) }

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		cleanup()
		return fmt.Errorf("file_store_write_failed: %w", err)
	}
	if err := temp.Chmod(0o600); err != nil {
		_ = temp.Close()
		cleanup()
		return fmt.Errorf("file_store_chmod_failed: %w", err)
	}
	if err := temp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("file_store_close_failed: %w", err)
	}
	if err := os.Rename(tempPath, store.path); err != nil {
		cleanup()
		return fmt.Errorf("file_store_rename_failed: %w", err)
	}

	return nil
}
