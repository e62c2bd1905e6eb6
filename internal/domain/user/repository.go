package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrInvalidID      = errors.New("invalid user id")
	ErrDuplicateEmail = errors.New("user with this email already exists")
)

// Repository is the persistence gateway for the users collection.
// Lookups by id return ErrInvalidID for ids that are not UUIDs and ErrNotFound
// for well-formed ids the store never issued.
type Repository interface {
	FetchUsers(ctx context.Context) (Users, error)
	FetchUserByID(ctx context.Context, id string) (*User, error)
	FetchUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, req User) (*User, error)
	UpdateUser(ctx context.Context, id string, patch Patch) (*User, error)
	DeleteUser(ctx context.Context, id string) (*User, error)
}
