package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/campus-auth/internal/domain"
	"github.com/campus-auth/internal/pkg/logging"
	"github.com/campus-auth/internal/pkg/randcode"
)

const (
	minUsernameLength   = 5
	maxUsernameAttempts = 10
)

type Service interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	GenerateUsername(email string) (string, error)
	// ProvisionOrTouch returns the account for email, creating it when absent.
	// created reports whether this call inserted the row.
	ProvisionOrTouch(ctx context.Context, email string, u *domain.University) (acct *domain.Account, created bool, err error)
	Save(ctx context.Context, a *domain.Account) error
}

// accountStore.Create must be atomic: it fails with domain.ErrAccountExists when
// the email is present and domain.ErrUsernameTaken when the username is reserved.
type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, a *domain.Account) error
	Save(ctx context.Context, a *domain.Account) error
}

type service struct {
	repo accountStore
	now  func() time.Time
	rand io.Reader
}

type ServiceDeps struct {
	AccountRepo accountStore
	Now         func() time.Time
	Rand        io.Reader
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.AccountRepo, now: now, rand: deps.Rand}
}

func (s *service) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *service) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.repo.ExistsByUsername(ctx, username)
}

// GenerateUsername keeps the alphanumeric characters of the local part and pads
// short results with four random digits. An empty result starts from "user".
func (s *service) GenerateUsername(email string) (string, error) {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		name = "user"
	}
	if len(name) < minUsernameLength {
		suffix, err := randcode.Digits(s.rand, 4)
		if err != nil {
			return "", err
		}
		name += suffix
	}
	return name, nil
}

func (s *service) ProvisionOrTouch(ctx context.Context, email string, u *domain.University) (*domain.Account, bool, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("load account: %w", err)
	}

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		username, err := s.candidate(email, attempt)
		if err != nil {
			return nil, false, fmt.Errorf("generate username: %w", err)
		}
		taken, err := s.repo.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, false, fmt.Errorf("check username: %w", err)
		}
		if taken {
			continue
		}

		now := s.now().UTC()
		acct := &domain.Account{
			Email:            email,
			Username:         username,
			Verified:         false,
			Banned:           false,
			UniversityDomain: u.Domain,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		err = s.repo.Create(ctx, acct)
		switch {
		case err == nil:
			slog.Info("account created", "email", logging.RedactEmail(email), "username", username)
			return acct, true, nil
		case errors.Is(err, domain.ErrAccountExists):
			// Created concurrently by another request for the same email.
			existing, err := s.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, false, fmt.Errorf("reload account: %w", err)
			}
			return existing, false, nil
		case errors.Is(err, domain.ErrUsernameTaken):
			continue
		default:
			return nil, false, fmt.Errorf("create account: %w", err)
		}
	}
	slog.Error("username attempts exhausted", "email", logging.RedactEmail(email), "attempts", maxUsernameAttempts)
	return nil, false, fmt.Errorf("%d attempts: %w", maxUsernameAttempts, domain.ErrUsernameExhausted)
}

// candidate is the plain generated name first, then the generated name plus three random digits.
func (s *service) candidate(email string, attempt int) (string, error) {
	name, err := s.GenerateUsername(email)
	if err != nil || attempt == 0 {
		return name, err
	}
	suffix, err := randcode.Digits(s.rand, 3)
	if err != nil {
		return "", err
	}
	return name + suffix, nil
}

func (s *service) Save(ctx context.Context, a *domain.Account) error {
	a.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, a); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}
