package account

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.RWMutex
	users   map[string]User
	methods map[string][]PaymentMethod
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users:   make(map[string]User),
		methods: make(map[string][]PaymentMethod),
	}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return ErrEmailTaken
	}
	r.users[user.Email] = user
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *memoryRepository) UpdatePIN(_ context.Context, id string, pinHash []byte) error {
	return r.update(id, func(u *User) { u.PINHash = pinHash })
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, id string, version int) error {
	return r.update(id, func(u *User) { u.TokenVersion = version })
}

func (r *memoryRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(u *User) { u.LastLogin = at.UTC() })
}

func (r *memoryRepository) update(id string, apply func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, user := range r.users {
		if user.ID == id {
			apply(&user)
			r.users[email] = user
			return nil
		}
	}
	return ErrUserNotFound
}

func (r *memoryRepository) AddPaymentMethod(_ context.Context, method PaymentMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[method.UserID] = append(r.methods[method.UserID], method)
	return nil
}

func (r *memoryRepository) PaymentMethods(_ context.Context, userID string) ([]PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := make([]PaymentMethod, len(r.methods[userID]))
	copy(methods, r.methods[userID])
	return methods, nil
}
