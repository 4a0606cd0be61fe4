package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campus-auth/internal/domain"
	"github.com/campus-auth/internal/pkg/id"
	"github.com/campus-auth/internal/pkg/logging"
	"github.com/campus-auth/internal/pkg/validate"
)

// Avatar is an uploaded profile picture. Content is stored as received.
type Avatar struct {
	Filename string
	Data     []byte
}

// Result is the stored profile plus everything the client needs to render it.
type Result struct {
	Profile        *domain.Profile
	PictureURL     string
	UniversityName string
	Token          string
}

type Service interface {
	SetupProfile(ctx context.Context, email string, fields domain.ProfileFields, avatar *Avatar) (*Result, error)
}

type profileStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Put(ctx context.Context, p *domain.Profile) error
}

type accountFinder interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type universityFinder interface {
	GetByDomain(ctx context.Context, d string) (*domain.University, error)
}

type avatarStore interface {
	Save(ctx context.Context, owner, filename string, data []byte) (string, error)
	URL(ctx context.Context, ref string) (string, error)
	Remove(ctx context.Context, ref string) error
}

type tokenSigner interface {
	Sign(email, username, university string) (string, error)
}

type service struct {
	profiles     profileStore
	accounts     accountFinder
	universities universityFinder
	avatars      avatarStore
	signer       tokenSigner
	now          func() time.Time
}

type ServiceDeps struct {
	ProfileRepo    profileStore
	AccountRepo    accountFinder
	UniversityRepo universityFinder
	Avatars        avatarStore
	Signer         tokenSigner
	Now            func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		profiles:     deps.ProfileRepo,
		accounts:     deps.AccountRepo,
		universities: deps.UniversityRepo,
		avatars:      deps.Avatars,
		signer:       deps.Signer,
		now:          deps.Now,
	}
	if s.avatars == nil {
		s.avatars = InlineAvatars{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) SetupProfile(ctx context.Context, email string, fields domain.ProfileFields, avatar *Avatar) (*Result, error) {
	email = domain.NormalizeEmail(email)
	if err := validate.Struct(&fields); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no account for this email: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	now := s.now().UTC()
	p, err := s.profiles.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p = &domain.Profile{ProfileID: id.New(), Email: email, CreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	p.FirstName = fields.FirstName
	p.LastName = fields.LastName
	p.PhoneNumber = fields.PhoneNumber
	p.Bio = fields.Bio
	p.UpdatedAt = now

	var previousAvatar *string
	if avatar != nil && len(avatar.Data) > 0 {
		ref, err := s.avatars.Save(ctx, p.ProfileID, avatar.Filename, avatar.Data)
		if err != nil {
			return nil, fmt.Errorf("store avatar: %w", err)
		}
		previousAvatar = p.AvatarRef
		p.AvatarRef = &ref
	}

	if err := s.profiles.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	if previousAvatar != nil && *previousAvatar != *p.AvatarRef {
		if err := s.avatars.Remove(ctx, *previousAvatar); err != nil {
			slog.Warn("failed to remove replaced avatar", "profile_id", p.ProfileID, "err", err)
		}
	}

	res := &Result{Profile: p}
	if p.AvatarRef != nil {
		if res.PictureURL, err = s.avatars.URL(ctx, *p.AvatarRef); err != nil {
			return nil, fmt.Errorf("avatar url: %w", err)
		}
	}
	if u, err := s.universities.GetByDomain(ctx, acct.UniversityDomain); err == nil {
		res.UniversityName = u.Name
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load university: %w", err)
	}

	if res.Token, err = s.signer.Sign(acct.Email, acct.Username, res.UniversityName); err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	slog.Info("profile saved", "email", logging.RedactEmail(email), "profile_id", p.ProfileID)
	return res, nil
}
