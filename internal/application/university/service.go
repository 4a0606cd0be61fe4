package university

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/campus-auth/internal/config"
	"github.com/campus-auth/internal/domain"
	"github.com/campus-auth/internal/pkg/id"
	"golang.org/x/net/publicsuffix"
)

// Resolution is the outcome of mapping an email domain onto a university.
// Matched is false when the default institution was used as a fallback.
type Resolution struct {
	University *domain.University
	Matched    bool
}

type Service interface {
	List(ctx context.Context) ([]domain.SupportedUniversity, error)
	FindByDomain(ctx context.Context, d string) (*domain.University, error)
	Resolve(ctx context.Context, emailDomain string) (*Resolution, error)
	Describe(u *domain.University) domain.SupportedUniversity
	IsDefaultDomain(d string) bool
	Seed(ctx context.Context, seeds []config.SeedUniversity) error
}

type universityStore interface {
	List(ctx context.Context) ([]domain.University, error)
	GetByDomain(ctx context.Context, d string) (*domain.University, error)
	PutIfAbsent(ctx context.Context, u *domain.University) error
}

type service struct {
	repo          universityStore
	branding      domain.Branding
	defaultDomain string
	now           func() time.Time
}

type ServiceDeps struct {
	UniversityRepo universityStore
	Branding       domain.Branding
	DefaultDomain  string
	Now            func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:          deps.UniversityRepo,
		branding:      deps.Branding,
		defaultDomain: deps.DefaultDomain,
		now:           now,
	}
}

func (s *service) List(ctx context.Context) ([]domain.SupportedUniversity, error) {
	unis, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	sort.Slice(unis, func(i, j int) bool { return unis[i].Name < unis[j].Name })
	out := make([]domain.SupportedUniversity, len(unis))
	for i := range unis {
		out[i] = s.Describe(&unis[i])
	}
	return out, nil
}

func (s *service) FindByDomain(ctx context.Context, d string) (*domain.University, error) {
	return s.repo.GetByDomain(ctx, d)
}

// Resolve tries the exact domain, then its registrable domain
// (cs.northeastern.edu -> northeastern.edu), then the default institution.
func (s *service) Resolve(ctx context.Context, emailDomain string) (*Resolution, error) {
	if emailDomain != "" {
		u, err := s.lookup(ctx, emailDomain)
		if err != nil {
			return nil, err
		}
		if u != nil {
			return &Resolution{University: u, Matched: true}, nil
		}
		if root, psErr := publicsuffix.EffectiveTLDPlusOne(emailDomain); psErr == nil && root != emailDomain {
			u, err = s.lookup(ctx, root)
			if err != nil {
				return nil, err
			}
			if u != nil {
				return &Resolution{University: u, Matched: true}, nil
			}
		}
	}

	u, err := s.lookup(ctx, s.defaultDomain)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("default university %q is not configured: %w", s.defaultDomain, domain.ErrSchoolNotFound)
	}
	return &Resolution{University: u, Matched: false}, nil
}

func (s *service) lookup(ctx context.Context, d string) (*domain.University, error) {
	u, err := s.repo.GetByDomain(ctx, d)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup university %s: %w", d, err)
	}
	return u, nil
}

func (s *service) Describe(u *domain.University) domain.SupportedUniversity {
	return domain.SupportedUniversity{
		ID:              u.UniversityID,
		Name:            u.Name,
		Domain:          u.Domain,
		MarketplaceURL:  s.branding.MarketplaceURL(u),
		MarketplaceName: s.branding.MarketplaceName(u),
	}
}

func (s *service) IsDefaultDomain(d string) bool {
	return d == s.defaultDomain
}

// Seed inserts each university whose domain is not yet stored. Existing rows are left alone.
func (s *service) Seed(ctx context.Context, seeds []config.SeedUniversity) error {
	for _, seed := range seeds {
		u := &domain.University{
			UniversityID: id.New(),
			Name:         seed.Name,
			Domain:       seed.Domain,
			CreatedAt:    s.now().UTC(),
		}
		err := s.repo.PutIfAbsent(ctx, u)
		switch {
		case errors.Is(err, domain.ErrConflict):
			continue
		case err != nil:
			return fmt.Errorf("seed university %s: %w", seed.Domain, err)
		}
		slog.Info("seeded university", "domain", seed.Domain, "name", seed.Name)
	}
	return nil
}
