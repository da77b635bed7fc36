package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/social-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInvalidID indicates an identifier the store could not parse.
var ErrInvalidID = errors.New("invalid identifier")

// UniqueError names the field behind a uniqueness conflict.
type UniqueError struct {
	Field string
}

func (e *UniqueError) Error() string {
	if e.Field == "" {
		return ErrAlreadyExists.Error()
	}
	return e.Field + ": " + ErrAlreadyExists.Error()
}

func (e *UniqueError) Unwrap() error {
	return ErrAlreadyExists
}

// UserStore captures persistence operations needed by handlers.
//
// FindByID, AddFollower and RemoveFollower return the user with Following and
// Followers expanded to id/name pairs. References to deleted users are dropped
// from the expansion.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	DeleteUser(ctx context.Context, id string) error

	AddFollowing(ctx context.Context, userID, followID string) error
	AddFollower(ctx context.Context, followID, userID string) (models.User, error)
	RemoveFollowing(ctx context.Context, userID, unfollowID string) error
	RemoveFollower(ctx context.Context, unfollowID, userID string) (models.User, error)

	// FindPeople returns every user whose id is not in exclude.
	FindPeople(ctx context.Context, exclude []string) ([]models.Person, error)

	Close()
}
