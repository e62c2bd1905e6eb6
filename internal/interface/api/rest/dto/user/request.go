package user

// Request is bound from JSON, urlencoded or multipart bodies.
// Nil fields were absent from the request.
type Request struct {
	FirstName   *string `json:"firstName" form:"firstName"`
	LastName    *string `json:"lastName" form:"lastName"`
	Email       *string `json:"email" form:"email"`
	PhoneNumber *string `json:"phoneNumber" form:"phoneNumber"`
	Gender      *string `json:"gender" form:"gender"`
}
