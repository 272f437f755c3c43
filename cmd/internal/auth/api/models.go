package authapi

// registerRequest is the explicit register schema. Pointers distinguish absent from empty.
type registerRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authStatusResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          userResponse `json:"user"`
}
