// Package memory holds process-local repositories used with STORE_BACKEND=memory
// and by service tests. They honour the same conditional-write contracts as the
// DynamoDB repositories.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/campus-auth/internal/domain"
)

type UniversityRepo struct {
	mu       sync.RWMutex
	byDomain map[string]domain.University
}

func NewUniversityRepo() *UniversityRepo {
	return &UniversityRepo{byDomain: make(map[string]domain.University)}
}

func (r *UniversityRepo) List(_ context.Context) ([]domain.University, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.University, 0, len(r.byDomain))
	for _, u := range r.byDomain {
		out = append(out, u)
	}
	return out, nil
}

func (r *UniversityRepo) GetByDomain(_ context.Context, d string) (*domain.University, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byDomain[d]
	if !ok {
		return nil, fmt.Errorf("university %s: %w", d, domain.ErrNotFound)
	}
	return &u, nil
}

func (r *UniversityRepo) PutIfAbsent(_ context.Context, u *domain.University) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byDomain[u.Domain]; ok {
		return fmt.Errorf("university %s: %w", u.Domain, domain.ErrConflict)
	}
	r.byDomain[u.Domain] = *u
	return nil
}
