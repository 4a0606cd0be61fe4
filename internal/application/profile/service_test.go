package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/campus-auth/internal/domain"
	"github.com/campus-auth/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(email, username, university string) (string, error) {
	args := m.Called(email, username, university)
	return args.String(0), args.Error(1)
}

type mockAvatars struct{ mock.Mock }

func (m *mockAvatars) Save(ctx context.Context, owner, filename string, data []byte) (string, error) {
	args := m.Called(ctx, owner, filename, data)
	return args.String(0), args.Error(1)
}
func (m *mockAvatars) URL(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}
func (m *mockAvatars) Remove(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

type fixture struct {
	profiles *memory.ProfileRepo
	accounts *memory.AccountRepo
	signer   *mockSigner
	svc      Service
}

var now = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, avatars avatarStore) *fixture {
	t.Helper()
	ctx := context.Background()
	unis := memory.NewUniversityRepo()
	require.NoError(t, unis.PutIfAbsent(ctx, &domain.University{UniversityID: "u1", Name: "Northeastern University", Domain: "northeastern.edu"}))
	accounts := memory.NewAccountRepo()
	require.NoError(t, accounts.Create(ctx, &domain.Account{Email: "alexander@northeastern.edu", Username: "alexander", UniversityDomain: "northeastern.edu"}))

	f := &fixture{profiles: memory.NewProfileRepo(), accounts: accounts, signer: &mockSigner{}}
	f.signer.On("Sign", "alexander@northeastern.edu", "alexander", "Northeastern University").Return("jwt-token", nil)
	f.svc = NewService(ServiceDeps{
		ProfileRepo:    f.profiles,
		AccountRepo:    accounts,
		UniversityRepo: unis,
		Avatars:        avatars,
		Signer:         f.signer,
		Now:            func() time.Time { return now },
	})
	return f
}

func strPtr(s string) *string { return &s }

func TestSetupProfile_CreatesProfileWithInlineAvatar(t *testing.T) {
	f := newFixture(t, nil)
	png := []byte("\x89PNG\r\n\x1a\n0000")

	res, err := f.svc.SetupProfile(context.Background(), " Alexander@Northeastern.edu ", domain.ProfileFields{
		FirstName: "Alex", LastName: "Ander", Bio: strPtr("Selling textbooks"),
	}, &Avatar{Filename: "me.png", Data: png})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Profile.ProfileID)
	assert.Equal(t, "alexander@northeastern.edu", res.Profile.Email)
	assert.Equal(t, "Alex", res.Profile.FirstName)
	assert.Equal(t, "Selling textbooks", *res.Profile.Bio)
	assert.True(t, strings.HasPrefix(res.PictureURL, "data:image/png;base64,"))
	assert.Equal(t, "Northeastern University", res.UniversityName)
	assert.Equal(t, "jwt-token", res.Token)
	assert.Equal(t, now, res.Profile.CreatedAt)
}

func TestSetupProfile_UpdatesInPlace(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	first, err := f.svc.SetupProfile(ctx, "alexander@northeastern.edu", domain.ProfileFields{FirstName: "Alex", LastName: "Ander"},
		&Avatar{Data: []byte("GIF89a....")})
	require.NoError(t, err)

	second, err := f.svc.SetupProfile(ctx, "alexander@northeastern.edu", domain.ProfileFields{FirstName: "Alexander", LastName: "Ander"}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Profile.ProfileID, second.Profile.ProfileID)
	assert.Equal(t, "Alexander", second.Profile.FirstName)
	assert.Equal(t, first.PictureURL, second.PictureURL, "avatar kept when none uploaded")

	stored, err := f.profiles.GetByEmail(ctx, "alexander@northeastern.edu")
	require.NoError(t, err)
	assert.Equal(t, "Alexander", stored.FirstName)
}

func TestSetupProfile_AccountMissing(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.SetupProfile(context.Background(), "ghost@northeastern.edu", domain.ProfileFields{FirstName: "G", LastName: "H"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetupProfile_ValidationFailure(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.SetupProfile(context.Background(), "alexander@northeastern.edu", domain.ProfileFields{LastName: "Ander"}, nil)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.ErrorContains(t, err, "FirstName")
}

func TestSetupProfile_ReplacedAvatarRemoved(t *testing.T) {
	av := &mockAvatars{}
	f := newFixture(t, av)
	ctx := context.Background()

	av.On("Save", mock.Anything, mock.Anything, "a.png", []byte("one")).Return("s3://b/a", nil).Once()
	av.On("Save", mock.Anything, mock.Anything, "b.png", []byte("two")).Return("s3://b/b", nil).Once()
	av.On("URL", mock.Anything, mock.Anything).Return("https://signed", nil)
	av.On("Remove", mock.Anything, "s3://b/a").Return(errors.New("already gone"))

	_, err := f.svc.SetupProfile(ctx, "alexander@northeastern.edu", domain.ProfileFields{FirstName: "A", LastName: "B"}, &Avatar{Filename: "a.png", Data: []byte("one")})
	require.NoError(t, err)
	res, err := f.svc.SetupProfile(ctx, "alexander@northeastern.edu", domain.ProfileFields{FirstName: "A", LastName: "B"}, &Avatar{Filename: "b.png", Data: []byte("two")})
	require.NoError(t, err, "removal failure is logged, not returned")

	assert.Equal(t, "s3://b/b", *res.Profile.AvatarRef)
	assert.Equal(t, "https://signed", res.PictureURL)
	av.AssertExpectations(t)
}

func TestSetupProfile_AvatarStoreFailure(t *testing.T) {
	av := &mockAvatars{}
	f := newFixture(t, av)
	av.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("denied"))

	_, err := f.svc.SetupProfile(context.Background(), "alexander@northeastern.edu", domain.ProfileFields{FirstName: "A", LastName: "B"}, &Avatar{Data: []byte("x")})
	assert.ErrorContains(t, err, "store avatar")
	_, err = f.profiles.GetByEmail(context.Background(), "alexander@northeastern.edu")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
