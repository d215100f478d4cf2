package handler

type signupRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
	Username  string `json:"username"  validate:"required"`
	Password  string `json:"password"  validate:"required"`
}

type signinRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// tokenResponse answers successful signup and signin.
type tokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type updateCountResponse struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// userDeletedResponse reports the author rewrites performed alongside the
// deletion.
type userDeletedResponse struct {
	Message               string              `json:"message"`
	UpdatedPlaceCreations updateCountResponse `json:"updatedPlaceCreations"`
	UpdatedPlaceUpdates   updateCountResponse `json:"updatedPlaceUpdates"`
}

type messageResponse struct {
	Message string `json:"message"`
}
