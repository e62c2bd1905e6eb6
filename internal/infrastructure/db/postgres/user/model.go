package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	User struct {
		ID             uuid.UUID
		FirstName      string
		LastName       string
		Email          string
		PhoneNumber    string
		Gender         string
		ProfilePicture *string

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Users []*User
)
