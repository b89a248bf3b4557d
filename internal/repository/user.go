package repository

import (
	"context"
	"errors"
	"time"

	"gendai-ordering/internal/domain"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameExists is returned when creating a user with a taken username.
	ErrUsernameExists = errors.New("username already exists")
	// ErrEmailExists is returned when creating a user with a taken email.
	ErrEmailExists = errors.New("email already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// RecordFailedAttempt increments the failed login counter and, when the
	// attempt being recorded is the fifth consecutive failure, sets the lock
	// deadline to lockUntil. The increment and the lock decision happen in a
	// single conditional update so concurrent attempts cannot lose counts.
	RecordFailedAttempt(ctx context.Context, id int64, threshold int, lockUntil time.Time) error

	// RecordSuccessfulLogin resets the failure counter, clears any lock and
	// stamps the last login time.
	RecordSuccessfulLogin(ctx context.Context, id int64, at time.Time) error
}
