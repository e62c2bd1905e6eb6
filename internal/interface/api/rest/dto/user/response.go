package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	User struct {
		// LegacyID mirrors ID under "_id" for clients that key records on it.
		LegacyID       uuid.UUID `json:"_id"`
		ID             uuid.UUID `json:"id"`
		FirstName      string    `json:"firstName"`
		LastName       string    `json:"lastName"`
		Email          string    `json:"email"`
		PhoneNumber    string    `json:"phoneNumber"`
		Gender         string    `json:"gender"`
		ProfilePicture *string   `json:"profilePicture"`
		CreatedAt      time.Time `json:"createdAt"`
		UpdatedAt      time.Time `json:"updatedAt"`
	}
	Users []User
)
