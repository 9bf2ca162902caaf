// Package memory implements an in-process AccountStore.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/recipebox-server/internal/model"
)

var _ model.AccountStore = (*AccountStore)(nil)

// AccountStore keeps deep copies of accounts in a map. Reads and writes never share slices with callers.
type AccountStore struct {
	mu         sync.RWMutex
	accounts   map[uuid.UUID]model.Account
	byUsername map[string]uuid.UUID
}

// NewAccountStore creates an empty store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts:   make(map[uuid.UUID]model.Account),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (s *AccountStore) Create(_ context.Context, account model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[account.Username]; ok {
		return model.Account{}, model.ErrUsernameTaken
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	now := time.Now().UTC()
	account = account.Clone()
	account.Version = 1
	account.CreatedAt = now
	account.UpdatedAt = now

	s.accounts[account.ID] = account
	s.byUsername[account.Username] = account.ID

	return account.Clone(), nil
}

func (s *AccountStore) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return model.Account{}, model.NewNotFoundError("user", id.String())
	}
	return account.Clone(), nil
}

func (s *AccountStore) GetByUsername(_ context.Context, username string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return model.Account{}, model.NewNotFoundError("user", username)
	}
	return s.accounts[id].Clone(), nil
}

func (s *AccountStore) Save(_ context.Context, account model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[account.ID]
	if !ok {
		return model.Account{}, model.NewNotFoundError("user", account.ID.String())
	}
	if stored.Version != account.Version {
		return model.Account{}, model.ErrVersionConflict
	}

	account = account.Clone()
	account.Version = stored.Version + 1
	account.CreatedAt = stored.CreatedAt
	account.UpdatedAt = time.Now().UTC()
	s.accounts[account.ID] = account

	return account.Clone(), nil
}

func (s *AccountStore) Ping(_ context.Context) error {
	return nil
}
