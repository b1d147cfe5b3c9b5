package storage

import (
	"context"

	"github.com/iudanet/agroprofile/internal/models"
)

// UserStorage defines interface for user profile persistence.
// Every multi-row write (user row + crop rows) is executed in a single transaction.
type UserStorage interface {
	// CreateUser inserts the user and its crops atomically and assigns user.ID
	// Returns ErrUserAlreadyExists if phone number is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByPhone retrieves user (with crops) by phone number
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByPhone(ctx context.Context, phoneNumber string) (*models.User, error)

	// GetUserByID retrieves user (with crops) by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)

	// UpdateProfile overwrites mutable fields and, when update.SelectedCrops != nil,
	// replaces the whole crop set. Phone number and password are never touched.
	// Returns the refreshed user or ErrUserNotFound
	UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.User, error)

	// DeleteUser removes crops and then the user row
	// Returns ErrUserNotFound if user doesn't exist
	DeleteUser(ctx context.Context, userID int64) error

	// Ping checks that the storage is reachable
	Ping(ctx context.Context) error
}
