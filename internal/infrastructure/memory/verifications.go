package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/campus-auth/internal/domain"
)

// VerificationRepo holds one verification code per email.
type VerificationRepo struct {
	mu      sync.Mutex
	byEmail map[string]domain.VerificationCode
}

func NewVerificationRepo() *VerificationRepo {
	return &VerificationRepo{byEmail: make(map[string]domain.VerificationCode)}
}

func (r *VerificationRepo) Put(_ context.Context, v *domain.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEmail[v.Email] = *v
	return nil
}

func (r *VerificationRepo) GetByEmail(_ context.Context, email string) (*domain.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("verification code: %w", domain.ErrNotFound)
	}
	return &v, nil
}

func (r *VerificationRepo) MarkUsed(_ context.Context, email, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byEmail[email]
	if !ok || v.Used || v.Code != code {
		return fmt.Errorf("mark used: %w", domain.ErrConflict)
	}
	v.Used = true
	r.byEmail[email] = v
	return nil
}

func (r *VerificationRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for email, v := range r.byEmail {
		if v.ExpiresAt.Before(now) {
			delete(r.byEmail, email)
			n++
		}
	}
	return n, nil
}
