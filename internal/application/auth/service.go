package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/campus-auth/internal/application/university"
	"github.com/campus-auth/internal/domain"
	"github.com/campus-auth/internal/pkg/logging"
	pkgtoken "github.com/campus-auth/internal/pkg/token"
	"github.com/campus-auth/internal/pkg/validate"
)

// SchoolRedirect is returned after a code has been sent.
type SchoolRedirect struct {
	UniversityName  string `json:"universityName"`
	MarketplaceURL  string `json:"marketplaceUrl"`
	MarketplaceName string `json:"marketplaceName"`
}

// LoginResult is returned by every successful login path.
type LoginResult struct {
	Email              string `json:"email"`
	Username           string `json:"username"`
	University         string `json:"university"`
	RedirectURL        string `json:"redirectUrl"`
	IsFirstLogin       bool   `json:"isFirstLogin"`
	Token              string `json:"token"`
	TrustedDeviceToken string `json:"trustedDeviceToken,omitempty"`
}

type Service interface {
	RequestVerification(ctx context.Context, email string) (*SchoolRedirect, error)
	ConfirmVerification(ctx context.Context, email, code string, rememberMe bool) (*LoginResult, error)
	VerifyTrustedToken(ctx context.Context, email, token string) (bool, error)
	LoginWithTrustedToken(ctx context.Context, email, token string) (*LoginResult, error)
	SupportedUniversities(ctx context.Context) ([]domain.SupportedUniversity, error)
}

type directory interface {
	Resolve(ctx context.Context, emailDomain string) (*university.Resolution, error)
	Describe(u *domain.University) domain.SupportedUniversity
	IsDefaultDomain(d string) bool
	List(ctx context.Context) ([]domain.SupportedUniversity, error)
}

type codeStore interface {
	Issue(ctx context.Context, email string) (*domain.VerificationCode, error)
	Redeem(ctx context.Context, email, code string) error
}

type accountDirectory interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	ProvisionOrTouch(ctx context.Context, email string, u *domain.University) (*domain.Account, bool, error)
	Save(ctx context.Context, a *domain.Account) error
}

type notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type tokenSigner interface {
	Sign(email, username, university string) (string, error)
}

// TestMode enables the reserved account and bypass code. It must stay zero in production.
type TestMode struct {
	Enabled       bool
	BypassCode    string
	ReservedEmail string
}

type service struct {
	universities        directory
	codes               codeStore
	accounts            accountDirectory
	notifier            notifier
	signer              tokenSigner
	institutionalSuffix string
	unsupportedPath     string
	trustedTokenTTL     time.Duration
	notifyTimeout       time.Duration
	testMode            TestMode
	now                 func() time.Time
	rand                io.Reader
}

type ServiceDeps struct {
	Universities        directory
	Codes               codeStore
	Accounts            accountDirectory
	Notifier            notifier
	Signer              tokenSigner
	InstitutionalSuffix string
	UnsupportedPath     string
	TrustedTokenTTL     time.Duration
	NotifyTimeout       time.Duration
	TestMode            TestMode
	Now                 func() time.Time
	Rand                io.Reader
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		universities:        deps.Universities,
		codes:               deps.Codes,
		accounts:            deps.Accounts,
		notifier:            deps.Notifier,
		signer:              deps.Signer,
		institutionalSuffix: deps.InstitutionalSuffix,
		unsupportedPath:     deps.UnsupportedPath,
		trustedTokenTTL:     deps.TrustedTokenTTL,
		notifyTimeout:       deps.NotifyTimeout,
		testMode:            deps.TestMode,
		now:                 deps.Now,
		rand:                deps.Rand,
	}
	if s.institutionalSuffix == "" {
		s.institutionalSuffix = ".edu"
	}
	if s.unsupportedPath == "" {
		s.unsupportedPath = "/unsupported"
	}
	if s.trustedTokenTTL <= 0 {
		s.trustedTokenTTL = 30 * 24 * time.Hour
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = 10 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) RequestVerification(ctx context.Context, email string) (*SchoolRedirect, error) {
	email = domain.NormalizeEmail(email)
	reserved := s.isReserved(email)
	if !reserved {
		if !validate.Email(email) || !strings.HasSuffix(email, s.institutionalSuffix) {
			return nil, fmt.Errorf("only %s email addresses are allowed: %w", s.institutionalSuffix, domain.ErrInvalidEmail)
		}
	}

	res, err := s.resolve(ctx, email, reserved)
	if err != nil {
		return nil, err
	}

	v, err := s.codes.Issue(ctx, email)
	if err != nil {
		return nil, err
	}

	subject, body := verificationMail(v.Code, res, domain.EmailDomain(email), s.ttlMinutes(v))
	sendCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Send(sendCtx, email, subject, body); err != nil {
		// The code stays stored; the caller may ask again.
		slog.Error("verification mail failed", "email", logging.RedactEmail(email), "err", err)
		return nil, fmt.Errorf("send verification code: %w", err)
	}

	info := s.universities.Describe(res.University)
	slog.Info("verification code sent",
		"email", logging.RedactEmail(email),
		"university", info.Domain,
		"matched", res.Matched,
	)
	return &SchoolRedirect{
		UniversityName:  info.Name,
		MarketplaceURL:  info.MarketplaceURL,
		MarketplaceName: info.MarketplaceName,
	}, nil
}

func (s *service) ConfirmVerification(ctx context.Context, email, code string, rememberMe bool) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	if s.isBypassCode(code) {
		slog.Warn("verification bypass code used", "email", logging.RedactEmail(email))
	} else if err := s.codes.Redeem(ctx, email, code); err != nil {
		if kind, ok := domain.CodeErrorKindOf(err); ok {
			slog.Warn("verification code rejected", "email", logging.RedactEmail(email), "kind", kind)
		}
		return nil, err
	}

	res, err := s.resolve(ctx, email, s.isReserved(email))
	if err != nil {
		return nil, err
	}

	acct, created, err := s.accounts.ProvisionOrTouch(ctx, email, res.University)
	if err != nil {
		return nil, err
	}
	if acct.Banned {
		return nil, fmt.Errorf("account is suspended: %w", domain.ErrForbidden)
	}

	acct.Verified = true
	var trusted string
	if rememberMe {
		trusted, err = pkgtoken.NewOpaque(s.rand)
		if err != nil {
			return nil, err
		}
		hash := pkgtoken.Hash(trusted)
		expires := s.now().UTC().Add(s.trustedTokenTTL)
		acct.TrustedTokenHash = &hash
		acct.TrustedTokenExpiresAt = &expires
	}
	if err := s.accounts.Save(ctx, acct); err != nil {
		return nil, err
	}

	result, err := s.loginResult(acct, res.University, email, created)
	if err != nil {
		return nil, err
	}
	result.TrustedDeviceToken = trusted
	slog.Info("verification confirmed",
		"email", logging.RedactEmail(email),
		"username", acct.Username,
		"first_login", created,
		"remember_me", rememberMe,
	)
	return result, nil
}

// VerifyTrustedToken reports whether token is the live trusted-device token for email.
func (s *service) VerifyTrustedToken(ctx context.Context, email, token string) (bool, error) {
	acct, err := s.accounts.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.trustedTokenValid(acct, token), nil
}

func (s *service) LoginWithTrustedToken(ctx context.Context, email, token string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	acct, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("invalid trusted device token: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !s.trustedTokenValid(acct, token) {
		return nil, fmt.Errorf("invalid trusted device token: %w", domain.ErrUnauthorized)
	}
	if acct.Banned {
		return nil, fmt.Errorf("account is suspended: %w", domain.ErrForbidden)
	}

	res, err := s.resolve(ctx, email, s.isReserved(email))
	if err != nil {
		return nil, err
	}
	return s.loginResult(acct, res.University, email, false)
}

func (s *service) SupportedUniversities(ctx context.Context) ([]domain.SupportedUniversity, error) {
	return s.universities.List(ctx)
}

func (s *service) trustedTokenValid(acct *domain.Account, token string) bool {
	if token == "" || acct.TrustedTokenHash == nil {
		return false
	}
	if acct.TrustedTokenExpiresAt != nil && s.now().After(*acct.TrustedTokenExpiresAt) {
		return false
	}
	return pkgtoken.Matches(token, *acct.TrustedTokenHash)
}

// resolve maps the email onto a university; the reserved test account always lands on the default.
func (s *service) resolve(ctx context.Context, email string, reserved bool) (*university.Resolution, error) {
	d := domain.EmailDomain(email)
	if reserved {
		d = ""
	}
	return s.universities.Resolve(ctx, d)
}

func (s *service) loginResult(acct *domain.Account, u *domain.University, email string, firstLogin bool) (*LoginResult, error) {
	info := s.universities.Describe(u)
	redirect := s.unsupportedPath
	if s.isReserved(email) || s.universities.IsDefaultDomain(domain.EmailDomain(email)) {
		redirect = info.MarketplaceURL
	}
	sessionToken, err := s.signer.Sign(acct.Email, acct.Username, info.Name)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &LoginResult{
		Email:        acct.Email,
		Username:     acct.Username,
		University:   info.Name,
		RedirectURL:  redirect,
		IsFirstLogin: firstLogin,
		Token:        sessionToken,
	}, nil
}

func (s *service) isReserved(email string) bool {
	return s.testMode.Enabled && s.testMode.ReservedEmail != "" && email == s.testMode.ReservedEmail
}

func (s *service) isBypassCode(code string) bool {
	return s.testMode.Enabled && s.testMode.BypassCode != "" && code == s.testMode.BypassCode
}

func (s *service) ttlMinutes(v *domain.VerificationCode) int {
	return int(v.ExpiresAt.Sub(v.CreatedAt).Round(time.Minute) / time.Minute)
}
