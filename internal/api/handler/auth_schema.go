package handler

// messageResponse is the plain acknowledgment envelope shared by all routes.
type messageResponse struct {
	Message string `json:"message"`
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
}

type signupResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

// loginFailedResponse reports the remaining attempts on a wrong password.
type loginFailedResponse struct {
	Message      string `json:"message"`
	AttemptsLeft int    `json:"attemptsLeft"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// resetPasswordRequest carries form tags as well: the GET /reset-password
// page posts url-encoded.
type resetPasswordRequest struct {
	Password string `json:"password" form:"password" validate:"required"`
}

type meResponse struct {
	Username string `json:"username"`
}
