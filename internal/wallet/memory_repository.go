package wallet

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Wallet
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Wallet)}
}

func (r *memoryRepository) Create(_ context.Context, wallet Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[wallet.ID]; exists {
		return errors.New("wallet exists")
	}
	r.storage[wallet.ID] = wallet
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wallet, ok := r.storage[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return wallet, nil
}

func (r *memoryRepository) GetByOwner(_ context.Context, ownerID string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, wallet := range r.storage {
		if wallet.OwnerID == ownerID {
			return wallet, nil
		}
	}
	return Wallet{}, ErrNotFound
}

type memoryLimitStore struct {
	mu     sync.RWMutex
	limits map[string]Limits
}

// NewMemoryLimitStore constructs an in-memory limit store for tests.
func NewMemoryLimitStore() LimitStore {
	return &memoryLimitStore{limits: make(map[string]Limits)}
}

func (s *memoryLimitStore) Get(_ context.Context, walletID string) (Limits, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lim, ok := s.limits[walletID]
	return lim, ok, nil
}

func (s *memoryLimitStore) Put(_ context.Context, limits Limits) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits[limits.WalletID] = limits
	return nil
}
