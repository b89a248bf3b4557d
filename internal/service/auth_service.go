package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"gendai-ordering/internal/auth"
	"gendai-ordering/internal/domain"
	"gendai-ordering/internal/repository"
)

var (
	// ErrInvalidCredentials covers unknown usernames, deactivated accounts and
	// wrong passwords alike, so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountLocked is returned while the lockout window is open. Distinct
	// from ErrInvalidCredentials on purpose: a legitimate user should know to wait.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountInvalid is returned when a token references a deleted or
	// deactivated account.
	ErrAccountInvalid = errors.New("invalid or deactivated account")
	// ErrUsernameExists is returned on signup with a taken username.
	ErrUsernameExists = errors.New("username already exists")
	// ErrEmailExists is returned on signup with a taken email.
	ErrEmailExists = errors.New("email already exists")
	// ErrValidation marks signup field violations; the wrapped message is
	// safe to surface to the caller.
	ErrValidation = errors.New("validation failed")
)

const (
	// Five consecutive failures lock the account for fifteen minutes.
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute

	passwordSpecialChars = "@$!%*?&"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// AuthService owns the credential lifecycle: signup, login with lockout
// enforcement, and bearer token verification.
type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
	VerifyToken(ctx context.Context, token string) (*domain.User, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
	}
}

func (s *authService) Signup(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateSignup(username, email, password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, "", ErrUsernameExists
		case errors.Is(err, repository.ErrEmailExists):
			return nil, "", ErrEmailExists
		}
		return nil, "", err
	}

	// signup implies immediate login
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	return sanitizeUser(user), token, nil
}

// Login evaluates a login attempt in strict order: existence/active check,
// lockout check, secret check. It short-circuits on the first failure so a
// locked account never reveals whether the supplied password was right.
func (s *authService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	if user.IsLocked(now) {
		return nil, "", ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if recErr := s.users.RecordFailedAttempt(ctx, user.ID, maxFailedAttempts, now.Add(lockoutDuration)); recErr != nil {
			return nil, "", recErr
		}
		return nil, "", ErrInvalidCredentials
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		return nil, "", err
	}
	user.FailedLoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	return sanitizeUser(user), token, nil
}

// VerifyToken validates the signature and expiry, then re-reads the owning
// account: a cryptographically valid token for a deleted or deactivated user
// is rejected, trading a store lookup per request for immediate revocation.
func (s *authService) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInvalid
	}
	if user.IsLocked(time.Now()) {
		return nil, ErrAccountLocked
	}

	return sanitizeUser(user), nil
}

func validateSignup(username, email, password string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-30 characters of letters, numbers and underscores", ErrValidation)
	}
	if email == "" || len(email) > 100 || !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSpecialChars, r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return fmt.Errorf("%w: password must contain uppercase, lowercase, number and special character", ErrValidation)
	}
	return nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
