// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Accounts

// MemoryAccountRepository implements [AccountRepository] in process memory.
// Records are copied in and out so callers never share state with the map.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
	byPhone  map[string]string
}

// NewMemoryAccountRepository creates an empty repository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]Account),
		byPhone:  make(map[string]string),
	}
}

func phoneIndex(role sec.Role, phone string) string {
	return role.String() + "|" + phone
}

// FindByPhone implements [AccountRepository].
func (repository *MemoryAccountRepository) FindByPhone(_ context.Context, role sec.Role, phone string) (*Account, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	id, found := repository.byPhone[phoneIndex(role, phone)]
	if !found {
		return nil, apperr.NotFound("Account")
	}
	account := repository.accounts[id]
	return &account, nil
}

// FindByID implements [AccountRepository].
func (repository *MemoryAccountRepository) FindByID(_ context.Context, id string) (*Account, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	account, found := repository.accounts[id]
	if !found {
		return nil, apperr.NotFound("Account")
	}
	return &account, nil
}

// Create implements [AccountRepository].
func (repository *MemoryAccountRepository) Create(_ context.Context, account *Account) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	index := phoneIndex(account.Role, account.Phone)
	if _, taken := repository.byPhone[index]; taken {
		return apperr.Conflict("Account already exists")
	}

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	repository.accounts[account.ID] = *account
	repository.byPhone[index] = account.ID
	return nil
}

// Update implements [AccountRepository].
func (repository *MemoryAccountRepository) Update(_ context.Context, account *Account) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, found := repository.accounts[account.ID]; !found {
		return apperr.NotFound("Account")
	}

	account.UpdatedAt = time.Now()
	repository.accounts[account.ID] = *account
	return nil
}

// # Sessions

// MemorySessionRepository implements [SessionRepository] in process memory.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]RefreshSession
	byHash   map[string]string
}

// NewMemorySessionRepository creates an empty repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]RefreshSession),
		byHash:   make(map[string]string),
	}
}

// Create implements [SessionRepository].
func (repository *MemorySessionRepository) Create(_ context.Context, session *RefreshSession) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	repository.sessions[session.ID] = *session
	repository.byHash[session.TokenHash] = session.ID
	return nil
}

// FindByTokenHash implements [SessionRepository].
func (repository *MemorySessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*RefreshSession, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	id, found := repository.byHash[tokenHash]
	if !found {
		return nil, apperr.NotFound("Session")
	}
	session := repository.sessions[id]
	return &session, nil
}

// Revoke implements [SessionRepository].
func (repository *MemorySessionRepository) Revoke(_ context.Context, sessionID string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	session, found := repository.sessions[sessionID]
	if !found || session.IsRevoked {
		return false, nil
	}
	session.IsRevoked = true
	repository.sessions[sessionID] = session
	return true, nil
}

// # Codes

type memoryCode struct {
	code      Code
	expiresAt time.Time
}

// MemoryCodeRepository implements [CodeRepository] in process memory.
// Expired codes are dropped lazily on read.
type MemoryCodeRepository struct {
	mu    sync.Mutex
	codes map[string]memoryCode
}

// NewMemoryCodeRepository creates an empty repository.
func NewMemoryCodeRepository() *MemoryCodeRepository {
	return &MemoryCodeRepository{codes: make(map[string]memoryCode)}
}

// Save implements [CodeRepository].
func (repository *MemoryCodeRepository) Save(_ context.Context, key string, code Code, ttl time.Duration) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	repository.codes[key] = memoryCode{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Find implements [CodeRepository].
func (repository *MemoryCodeRepository) Find(_ context.Context, key string) (*Code, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	entry, found := repository.codes[key]
	if !found {
		return nil, apperr.NotFound("Code")
	}
	if !time.Now().Before(entry.expiresAt) {
		delete(repository.codes, key)
		return nil, apperr.NotFound("Code")
	}

	code := entry.code
	return &code, nil
}

// Delete implements [CodeRepository].
func (repository *MemoryCodeRepository) Delete(_ context.Context, key string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	delete(repository.codes, key)
	return nil
}
