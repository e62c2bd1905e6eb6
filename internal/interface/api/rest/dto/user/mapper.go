package user

import (
	"user-registry-api/internal/domain/user"
)

func ToResponseUser(uDomain user.User) User {
	var u = User{
		LegacyID:       uDomain.ID,
		ID:             uDomain.ID,
		FirstName:      uDomain.FirstName,
		LastName:       uDomain.LastName,
		Email:          uDomain.Email,
		PhoneNumber:    uDomain.PhoneNumber,
		Gender:         uDomain.Gender,
		ProfilePicture: uDomain.ProfilePicture,
		CreatedAt:      uDomain.CreatedAt,
		UpdatedAt:      uDomain.UpdatedAt,
	}

	return u
}

func ToResponseUsers(usDomain user.Users) Users {
	us := make(Users, len(usDomain))
	for idx, u := range usDomain {
		us[idx] = ToResponseUser(*u)
	}

	return us
}

func ToDomainUser(uRequest Request) user.User {
	return user.User{
		FirstName:   deref(uRequest.FirstName),
		LastName:    deref(uRequest.LastName),
		Email:       deref(uRequest.Email),
		PhoneNumber: deref(uRequest.PhoneNumber),
		Gender:      deref(uRequest.Gender),
	}
}

func ToDomainPatch(uRequest Request) user.Patch {
	return user.Patch{
		FirstName:   uRequest.FirstName,
		LastName:    uRequest.LastName,
		Email:       uRequest.Email,
		PhoneNumber: uRequest.PhoneNumber,
		Gender:      uRequest.Gender,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
