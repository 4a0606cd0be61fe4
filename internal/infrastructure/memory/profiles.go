package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/campus-auth/internal/domain"
)

type ProfileRepo struct {
	mu      sync.RWMutex
	byEmail map[string]domain.Profile
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{byEmail: make(map[string]domain.Profile)}
}

func (r *ProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	return &p, nil
}

func (r *ProfileRepo) Put(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEmail[p.Email] = *p
	return nil
}
