package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gendai-ordering/internal/auth"
	"gendai-ordering/internal/domain"
	"gendai-ordering/internal/repository"
)

type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}}
}

func (r *fakeUserRepo) Init(ctx context.Context) error { return nil }

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return 0, repository.ErrUsernameExists
		}
		if existing.Email == strings.ToLower(user.Email) {
			return 0, repository.ErrEmailExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return user.ID, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) RecordFailedAttempt(ctx context.Context, id int64, threshold int, lockUntil time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= threshold {
		deadline := lockUntil
		user.LockUntil = &deadline
	}
	return nil
}

func (r *fakeUserRepo) RecordSuccessfulLogin(ctx context.Context, id int64, at time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.FailedLoginAttempts = 0
	user.LockUntil = nil
	stamp := at
	user.LastLogin = &stamp
	return nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

const (
	testUsername = "kitchen_admin"
	testEmail    = "ops@gendai.example"
	testPassword = "Sup3r@secret"
)

func newTestAuthService(t *testing.T) (AuthService, *fakeUserRepo, *auth.TokenManager) {
	t.Helper()
	repo := newFakeUserRepo()
	tokens := auth.NewTokenManager("test-secret", 8*time.Hour)
	return NewAuthService(repo, tokens), repo, tokens
}

func TestAuthService_Signup_HashesPassword(t *testing.T) {
	svc, repo, tokens := newTestAuthService(t)

	user, token, err := svc.Signup(context.Background(), testUsername, testEmail, testPassword)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotEmpty(t, token)

	assert.Empty(t, user.PasswordHash, "sanitized user must not expose the hash")
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.True(t, user.IsActive)

	stored := repo.users[user.ID]
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(testPassword)))

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", testEmail, testPassword},
		{"bad username chars", "kitchen admin!", testEmail, testPassword},
		{"bad email", testUsername, "not-an-email", testPassword},
		{"short password", testUsername, testEmail, "S3c@rt"},
		{"no special char", testUsername, testEmail, "Secret123"},
		{"no uppercase", testUsername, testEmail, "secret@123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Signup(ctx, tc.username, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Signup_DuplicateIdentity(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, testUsername, testEmail, testPassword)
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, testUsername, "other@gendai.example", testPassword)
	assert.ErrorIs(t, err, ErrUsernameExists)

	// email comparison is case-insensitive
	_, _, err = svc.Signup(ctx, "other_admin", strings.ToUpper(testEmail), testPassword)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	signedUp, _, err := svc.Signup(ctx, testUsername, testEmail, testPassword)
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, testUsername, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, signedUp.ID, user.ID)
	assert.NotNil(t, user.LastLogin)
	assert.Empty(t, user.PasswordHash)
}

func TestAuthService_Login_UnknownOrInactive(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "nobody", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, _, err := svc.Signup(ctx, testUsername, testEmail, testPassword)
	require.NoError(t, err)

	repo.users[user.ID].IsActive = false
	_, _, err = svc.Login(ctx, testUsername, testPassword)
	// deliberately indistinguishable from a wrong password
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_LockoutAfterFiveFailures(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	user, _, err := svc.Signup(ctx, testUsername, testEmail, testPassword)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		_, _, err := svc.Login(ctx, testUsername, "Wrong@pass1")
		assert.ErrorIs(t, err, ErrInvalidCredentials, "failure %d must report invalid credentials", i)
	}

	stored := repo.users[user.ID]
	assert.Equal(t, 5, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockUntil, "fifth failure must arm the lock")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), *stored.LockUntil, 5*time.Second)

	// even the correct password is refused while the window is open
	_, _, err = svc.Login(ctx, testUsername, testPassword)
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestAuthService_Login_FourFailuresDoNotLock(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	user, _, err := svc.Signup(ctx, testUsername, testEmail, testPassword)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _, err := svc.Login(ctx, testUsername, "Wrong@pass1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Nil(t, repo.users[user.ID].LockUntil)

	_, _, err = svc.Login(ctx, testUsername, testPassword)
	assert.NoError(t, err)
	assert.Equal(t, 0, repo.users[user.ID].FailedLoginAttempts)
}

func TestAuthService_Login_LockExpires(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	user, _, err := svc.Signup(ctx, testUsername, testEmail, testPassword)
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute)
	repo.users[user.ID].FailedLoginAttempts = 5
	repo.users[user.ID].LockUntil = &expired

	logged, _, err := svc.Login(ctx, testUsername, testPassword)
	require.NoError(t, err)
	assert.Equal(t, 0, logged.FailedLoginAttempts)
	assert.Nil(t, logged.LockUntil)

	stored := repo.users[user.ID]
	assert.Equal(t, 0, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockUntil)
	assert.NotNil(t, stored.LastLogin)
}

func TestAuthService_VerifyToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	signedUp, token, err := svc.Signup(ctx, testUsername, testEmail, testPassword)
	require.NoError(t, err)

	user, err := svc.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, signedUp.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.VerifyToken(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestAuthService_VerifyToken_DeactivatedAccount(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	user, token, err := svc.Signup(ctx, testUsername, testEmail, testPassword)
	require.NoError(t, err)

	// the token stays cryptographically valid, the account state rejects it
	repo.users[user.ID].IsActive = false
	_, err = svc.VerifyToken(ctx, token)
	assert.ErrorIs(t, err, ErrAccountInvalid)

	repo.users[user.ID].IsActive = true
	locked := time.Now().Add(10 * time.Minute)
	repo.users[user.ID].LockUntil = &locked
	_, err = svc.VerifyToken(ctx, token)
	assert.ErrorIs(t, err, ErrAccountLocked)

	delete(repo.users, user.ID)
	_, err = svc.VerifyToken(ctx, token)
	assert.ErrorIs(t, err, ErrAccountInvalid)
}
