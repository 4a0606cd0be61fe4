package account

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/campus-auth/internal/domain"
	"github.com/campus-auth/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}
func (m *mockAccountStore) Create(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAccountStore) Save(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}

var (
	fixedNow = time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	neu      = &domain.University{UniversityID: "u1", Name: "Northeastern University", Domain: "northeastern.edu"}
)

func newService(repo accountStore) Service {
	return NewService(ServiceDeps{AccountRepo: repo, Now: func() time.Time { return fixedNow }})
}

func TestGenerateUsername_ShortLocalPartGetsFourDigits(t *testing.T) {
	name, err := newService(nil).GenerateUsername("ab@x.edu")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ab[0-9]{4}$`), name)
}

func TestGenerateUsername_LongLocalPartUnchanged(t *testing.T) {
	name, err := newService(nil).GenerateUsername("alexander@x.edu")
	require.NoError(t, err)
	assert.Equal(t, "alexander", name)
}

func TestGenerateUsername_StripsNonAlphanumerics(t *testing.T) {
	name, err := newService(nil).GenerateUsername("mary.o'neil+mkt@x.edu")
	require.NoError(t, err)
	assert.Equal(t, "maryoneilmkt", name)

	name, err = newService(nil).GenerateUsername("a.b-c@x.edu")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^abc[0-9]{4}$`), name)
}

func TestGenerateUsername_EmptyLocalPart(t *testing.T) {
	name, err := newService(nil).GenerateUsername("..@x.edu")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^user[0-9]{4}$`), name)
}

func TestProvisionOrTouch_ExistingReturnedUnchanged(t *testing.T) {
	repo := &mockAccountStore{}
	existing := &domain.Account{Email: "alexander@northeastern.edu", Username: "alexander", Verified: true}
	repo.On("GetByEmail", mock.Anything, existing.Email).Return(existing, nil)

	acct, created, err := newService(repo).ProvisionOrTouch(context.Background(), existing.Email, neu)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, existing, acct)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProvisionOrTouch_CreatesUnverifiedAccount(t *testing.T) {
	repo := memory.NewAccountRepo()
	acct, created, err := newService(repo).ProvisionOrTouch(context.Background(), "alexander@northeastern.edu", neu)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alexander", acct.Username)
	assert.False(t, acct.Verified)
	assert.False(t, acct.Banned)
	assert.Equal(t, "northeastern.edu", acct.UniversityDomain)
	assert.Equal(t, fixedNow, acct.CreatedAt)
}

func TestProvisionOrTouch_TakenUsernameGetsSuffix(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAccountRepo()
	require.NoError(t, repo.Create(ctx, &domain.Account{Email: "alexander@bu.edu", Username: "alexander"}))

	acct, created, err := newService(repo).ProvisionOrTouch(ctx, "alexander@northeastern.edu", neu)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Regexp(t, regexp.MustCompile(`^alexander[0-9]{3}$`), acct.Username)
}

func TestProvisionOrTouch_GivesUpAfterTenAttempts(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("GetByEmail", mock.Anything, "alexander@x.edu").Return(nil, domain.ErrNotFound)
	repo.On("ExistsByUsername", mock.Anything, mock.Anything).Return(true, nil)

	_, _, err := newService(repo).ProvisionOrTouch(context.Background(), "alexander@x.edu", neu)
	assert.ErrorIs(t, err, domain.ErrUsernameExhausted)
	repo.AssertNumberOfCalls(t, "ExistsByUsername", 10)
}

func TestProvisionOrTouch_UsernameRaceRetries(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("GetByEmail", mock.Anything, "alexander@x.edu").Return(nil, domain.ErrNotFound)
	repo.On("ExistsByUsername", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool { return a.Username == "alexander" })).
		Return(domain.ErrUsernameTaken).Once()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil).Once()

	acct, created, err := newService(repo).ProvisionOrTouch(context.Background(), "alexander@x.edu", neu)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "alexander", acct.Username)
}

func TestProvisionOrTouch_ConcurrentCreateRereads(t *testing.T) {
	repo := &mockAccountStore{}
	winner := &domain.Account{Email: "alexander@x.edu", Username: "alexander"}
	repo.On("GetByEmail", mock.Anything, "alexander@x.edu").Return(nil, domain.ErrNotFound).Once()
	repo.On("ExistsByUsername", mock.Anything, "alexander").Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrAccountExists)
	repo.On("GetByEmail", mock.Anything, "alexander@x.edu").Return(winner, nil).Once()

	acct, created, err := newService(repo).ProvisionOrTouch(context.Background(), "alexander@x.edu", neu)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, winner, acct)
}

func TestProvisionOrTouch_ParallelSameEmailCreatesOne(t *testing.T) {
	repo := memory.NewAccountRepo()
	svc := newService(repo)

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := svc.ProvisionOrTouch(context.Background(), "alexander@x.edu", neu)
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, createdCount)
	assert.Equal(t, 1, repo.Count())
}

func TestProvisionOrTouch_StoreErrorSurfaces(t *testing.T) {
	repo := &mockAccountStore{}
	boom := errors.New("throttled")
	repo.On("GetByEmail", mock.Anything, "a@x.edu").Return(nil, boom)

	_, _, err := newService(repo).ProvisionOrTouch(context.Background(), "a@x.edu", neu)
	assert.ErrorIs(t, err, boom)
}

func TestSave_StampsUpdatedAt(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Save", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		return a.UpdatedAt.Equal(fixedNow)
	})).Return(nil)

	require.NoError(t, newService(repo).Save(context.Background(), &domain.Account{Email: "a@x.edu"}))
	repo.AssertExpectations(t)
}
