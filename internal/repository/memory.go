package repository

import (
	"context"
	"sync"
	"time"

	"github.com/OmarVCRZ/theSobieCo/internal/model"
)

// MemStore is an in-memory Directory for tests and local development.
// A single mutex gives it the same atomicity guarantees the Postgres
// store gets from conditional updates.
type MemStore struct {
	mu       sync.Mutex
	accounts map[string]model.Account
	byEmail  map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		accounts: make(map[string]model.Account),
		byEmail:  make(map[string]string),
	}
}

func (s *MemStore) CreateAccount(_ context.Context, account model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[account.Email]; exists {
		return ErrDuplicateEmail
	}
	s.accounts[account.ID] = cloneAccount(account)
	s.byEmail[account.Email] = account.ID
	return nil
}

func (s *MemStore) GetAccountByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return cloneAccount(s.accounts[id]), nil
}

func (s *MemStore) GetAccountByID(_ context.Context, id string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return cloneAccount(account), nil
}

func (s *MemStore) SetVerificationToken(_ context.Context, accountID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	account.VerificationToken = &token
	account.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = account
	return nil
}

func (s *MemStore) ConsumeToken(_ context.Context, token string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, account := range s.accounts {
		if account.VerificationToken == nil || *account.VerificationToken != token {
			continue
		}
		account.VerificationToken = nil
		account.UpdatedAt = time.Now().UTC()
		s.accounts[id] = account
		return cloneAccount(account), nil
	}
	return model.Account{}, ErrNotFound
}

func (s *MemStore) UpdateUsername(_ context.Context, accountID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	account.Username = username
	account.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = account
	return nil
}

func (s *MemStore) UpdateResearch(_ context.Context, accountID string, research model.Research) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	account.HasResearch = true
	account.ResearchTitle = research.Title
	account.ResearchAbstract = research.Abstract
	account.CoAuthors = append([]string(nil), research.CoAuthors...)
	account.SessionPreference = research.SessionPreference
	account.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = account
	return nil
}

func cloneAccount(account model.Account) model.Account {
	clone := account
	if account.VerificationToken != nil {
		token := *account.VerificationToken
		clone.VerificationToken = &token
	}
	clone.CoAuthors = append([]string(nil), account.CoAuthors...)
	return clone
}
