package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/campus-auth/internal/domain"
)

// AccountRepo keeps accounts by email plus a username index for uniqueness.
type AccountRepo struct {
	mu         sync.RWMutex
	byEmail    map[string]domain.Account
	byUsername map[string]string
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		byEmail:    make(map[string]domain.Account),
		byUsername: make(map[string]string),
	}
}

func (r *AccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("account: %w", domain.ErrNotFound)
	}
	return &a, nil
}

func (r *AccountRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUsername[username]
	return ok, nil
}

// Create inserts a and reserves its username in one step.
func (r *AccountRepo) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[a.Email]; ok {
		return fmt.Errorf("create account: %w", domain.ErrAccountExists)
	}
	if _, ok := r.byUsername[a.Username]; ok {
		return fmt.Errorf("create account: %w", domain.ErrUsernameTaken)
	}
	r.byEmail[a.Email] = *a
	r.byUsername[a.Username] = a.Email
	return nil
}

// Save overwrites the mutable fields of an existing account. Email and username are kept.
func (r *AccountRepo) Save(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byEmail[a.Email]
	if !ok {
		return fmt.Errorf("save account: %w", domain.ErrNotFound)
	}
	cur.Verified = a.Verified
	cur.Banned = a.Banned
	cur.BannedBy = a.BannedBy
	cur.TrustedTokenHash = a.TrustedTokenHash
	cur.TrustedTokenExpiresAt = a.TrustedTokenExpiresAt
	cur.UniversityDomain = a.UniversityDomain
	cur.UpdatedAt = a.UpdatedAt
	r.byEmail[a.Email] = cur
	return nil
}

// Count reports the number of stored accounts.
func (r *AccountRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}
