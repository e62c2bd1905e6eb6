package validator

import (
	"strings"

	"user-registry-api/internal/interface/api/rest/dto/user"
)

// HasRequiredFields reports whether every field of a new user carries a non-blank value.
func HasRequiredFields(r user.Request) bool {
	for _, f := range []*string{r.FirstName, r.LastName, r.Email, r.PhoneNumber, r.Gender} {
		if f == nil || strings.TrimSpace(*f) == "" {
			return false
		}
	}
	return true
}

// UserID returns the trimmed path id and false when it is blank.
func UserID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	return id, id != ""
}
