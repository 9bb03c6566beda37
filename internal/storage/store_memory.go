// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"sync"
)

// MemoryStore implements [Store] with a mutex-guarded map.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements [Store].
func (store *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	value, ok := store.values[key]
	return value, ok, nil
}

// Set implements [Store].
func (store *MemoryStore) Set(_ context.Context, key, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.values[key] = value
	return nil
}

// Delete implements [Store].
func (store *MemoryStore) Delete(_ context.Context, keys ...string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, key := range keys {
		delete(store.values, key)
	}
	return nil
}

// Snapshot returns a copy of every stored key/value pair.
func (store *MemoryStore) Snapshot() map[string]string {
	store.mu.RLock()
	defer store.mu.RUnlock()

	copied := make(map[string]string, len(store.values))
	for key, value := range store.values {
		copied[key] = value
	}
	return copied
}
