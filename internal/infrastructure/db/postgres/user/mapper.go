package user

import (
	domain "user-registry-api/internal/domain/user"
)

func fromDBModel(model *User) *domain.User {
	var u = &domain.User{
		ID:             model.ID,
		FirstName:      model.FirstName,
		LastName:       model.LastName,
		Email:          model.Email,
		PhoneNumber:    model.PhoneNumber,
		Gender:         model.Gender,
		ProfilePicture: model.ProfilePicture,

		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}

	return u
}

func fromDBModels(models Users) domain.Users {
	us := make(domain.Users, len(models))
	for idx, u := range models {
		us[idx] = fromDBModel(u)
	}

	return us
}
