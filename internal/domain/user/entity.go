package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	GenderMale   = "M"
	GenderFemale = "F"
)

type (
	UUID = uuid.UUID
	User struct {
		ID          UUID
		FirstName   string
		LastName    string
		Email       string
		PhoneNumber string
		Gender      string
		// ProfilePicture is the public path of the stored image, nil when absent.
		ProfilePicture *string

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Users []*User

	// Patch is a partial field set applied on update. Nil fields are left untouched.
	Patch struct {
		FirstName      *string
		LastName       *string
		Email          *string
		PhoneNumber    *string
		Gender         *string
		ProfilePicture *string
	}
)

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.FirstName == nil &&
		p.LastName == nil &&
		p.Email == nil &&
		p.PhoneNumber == nil &&
		p.Gender == nil &&
		p.ProfilePicture == nil
}

// Apply returns a copy of u with the patch merged in.
func (p Patch) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.ProfilePicture != nil {
		pic := *p.ProfilePicture
		u.ProfilePicture = &pic
	}

	return u
}
