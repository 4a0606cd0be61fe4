package http

import (
	"context"
	"time"

	"github.com/campus-auth/internal/application/account"
	"github.com/campus-auth/internal/application/auth"
	"github.com/campus-auth/internal/application/profile"
	"github.com/campus-auth/internal/application/university"
	"github.com/campus-auth/internal/application/verification"
	"github.com/campus-auth/internal/config"
	"github.com/campus-auth/internal/domain"
	jwtinfra "github.com/campus-auth/internal/infrastructure/jwt"
)

// UniversityRepository is the minimal interface the router requires from a university store.
type UniversityRepository interface {
	List(ctx context.Context) ([]domain.University, error)
	GetByDomain(ctx context.Context, d string) (*domain.University, error)
	PutIfAbsent(ctx context.Context, u *domain.University) error
}

// AccountRepository is the minimal interface the router requires from an account store.
// Create must reject a duplicate email or username atomically.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, a *domain.Account) error
	Save(ctx context.Context, a *domain.Account) error
}

// VerificationRepository is the minimal interface the router requires from a code store.
type VerificationRepository interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	GetByEmail(ctx context.Context, email string) (*domain.VerificationCode, error)
	MarkUsed(ctx context.Context, email, code string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// ProfileRepository is the minimal interface the router requires from a profile store.
type ProfileRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Put(ctx context.Context, p *domain.Profile) error
}

// AvatarStore keeps profile pictures and turns stored references into URLs.
type AvatarStore interface {
	Save(ctx context.Context, owner, filename string, data []byte) (string, error)
	URL(ctx context.Context, ref string) (string, error)
	Remove(ctx context.Context, ref string) error
}

// Notifier delivers verification mail.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// HealthChecker reports whether the store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UniversityRepo   UniversityRepository
	AccountRepo      AccountRepository
	VerificationRepo VerificationRepository
	ProfileRepo      ProfileRepository
	Avatars          AvatarStore
	Notifier         Notifier
	JWTProvider      *jwtinfra.Provider
	Health           HealthChecker
	Now              func() time.Time
}

// Services are the application services built from Deps.
type Services struct {
	Universities university.Service
	Codes        verification.Service
	Accounts     account.Service
	Auth         auth.Service
	Profiles     profile.Service
}

// NewServices wires the application layer over deps.
func NewServices(cfg *config.Config, deps *Deps) *Services {
	universities := university.NewService(university.ServiceDeps{
		UniversityRepo: deps.UniversityRepo,
		Branding:       cfg.Branding,
		DefaultDomain:  cfg.DefaultUniversityDomain,
		Now:            deps.Now,
	})
	codes := verification.NewService(verification.ServiceDeps{
		CodeRepo: deps.VerificationRepo,
		TTL:      cfg.CodeTTL,
		Now:      deps.Now,
	})
	accounts := account.NewService(account.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		Now:         deps.Now,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		Universities:        universities,
		Codes:               codes,
		Accounts:            accounts,
		Notifier:            deps.Notifier,
		Signer:              deps.JWTProvider,
		InstitutionalSuffix: cfg.InstitutionalSuffix,
		UnsupportedPath:     cfg.UnsupportedPath,
		TrustedTokenTTL:     cfg.TrustedTokenTTL,
		NotifyTimeout:       cfg.NotifyTimeout,
		TestMode: auth.TestMode{
			Enabled:       cfg.TestMode,
			BypassCode:    cfg.TestBypassCode,
			ReservedEmail: cfg.TestReservedEmail,
		},
		Now: deps.Now,
	})
	profiles := profile.NewService(profile.ServiceDeps{
		ProfileRepo:    deps.ProfileRepo,
		AccountRepo:    deps.AccountRepo,
		UniversityRepo: deps.UniversityRepo,
		Avatars:        deps.Avatars,
		Signer:         deps.JWTProvider,
		Now:            deps.Now,
	})
	return &Services{
		Universities: universities,
		Codes:        codes,
		Accounts:     accounts,
		Auth:         authSvc,
		Profiles:     profiles,
	}
}
