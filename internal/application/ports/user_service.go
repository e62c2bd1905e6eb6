package ports

import (
	"context"
	"mime/multipart"

	"user-registry-api/internal/domain/user"
)

type UserService interface {
	FindUsers(ctx context.Context) (user.Users, error)
	FindUserByID(ctx context.Context, id string) (*user.User, error)
	CreateUser(ctx context.Context, u user.User, picture *multipart.FileHeader) (*user.User, error)
	UpdateUser(ctx context.Context, id string, patch user.Patch, picture *multipart.FileHeader) (*user.User, error)
	DeleteUser(ctx context.Context, id string) error
}
