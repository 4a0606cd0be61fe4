package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/campus-auth/internal/domain"
	"github.com/campus-auth/internal/pkg/id"
	"github.com/campus-auth/internal/pkg/keylock"
	"github.com/campus-auth/internal/pkg/randcode"
)

const codeDigits = 6

type Service interface {
	Issue(ctx context.Context, email string) (*domain.VerificationCode, error)
	Redeem(ctx context.Context, email, code string) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// codeStore keeps at most one record per email; Put replaces any earlier record.
// MarkUsed must fail with domain.ErrConflict unless the stored record still holds
// code and is unused.
type codeStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	GetByEmail(ctx context.Context, email string) (*domain.VerificationCode, error)
	MarkUsed(ctx context.Context, email, code string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	repo  codeStore
	ttl   time.Duration
	now   func() time.Time
	rand  io.Reader
	locks *keylock.Locker
}

type ServiceDeps struct {
	CodeRepo codeStore
	TTL      time.Duration
	Now      func() time.Time
	Rand     io.Reader
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:  deps.CodeRepo,
		ttl:   deps.TTL,
		now:   deps.Now,
		rand:  deps.Rand,
		locks: keylock.New(),
	}
	if s.ttl <= 0 {
		s.ttl = 10 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Issue(ctx context.Context, email string) (*domain.VerificationCode, error) {
	code, err := randcode.Digits(s.rand, codeDigits)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	unlock := s.locks.Lock(email)
	defer unlock()

	now := s.now().UTC()
	v := &domain.VerificationCode{
		CodeID:    id.New(),
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Used:      false,
	}
	v.TTL = v.ExpiresAt.Unix()
	if err := s.repo.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("store verification code: %w", err)
	}
	return v, nil
}

// Redeem checks in a fixed order: missing, wrong code, already used, expired.
func (s *service) Redeem(ctx context.Context, email, code string) error {
	unlock := s.locks.Lock(email)
	defer unlock()

	v, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCodeError(domain.CodeNotFound)
	}
	if err != nil {
		return fmt.Errorf("load verification code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(v.Code), []byte(code)) != 1 {
		return domain.NewCodeError(domain.CodeMismatch)
	}
	if v.Used {
		return domain.NewCodeError(domain.CodeAlreadyUsed)
	}
	if v.Expired(s.now()) {
		return domain.NewCodeError(domain.CodeExpired)
	}

	err = s.repo.MarkUsed(ctx, email, code)
	if errors.Is(err, domain.ErrConflict) {
		// Another instance redeemed or superseded it between read and write.
		return domain.NewCodeError(domain.CodeAlreadyUsed)
	}
	if err != nil {
		return fmt.Errorf("mark verification code used: %w", err)
	}
	return nil
}

func (s *service) Sweep(ctx context.Context, now time.Time) (int, error) {
	n, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		return n, fmt.Errorf("sweep verification codes: %w", err)
	}
	return n, nil
}
