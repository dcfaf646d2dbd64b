package identity

import "github.com/example/serverless-task-api/domain/user"

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// RegisterResponse carries either the provider's sign-up result or the
// caller-facing failure message.
type RegisterResponse struct {
	Result *user.SignUpResult `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries either the provider's auth result or the
// caller-facing failure message.
type LoginResponse struct {
	Result *user.AuthResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// VerifyTokenRequest represents a token verification request.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyTokenResponse represents a token verification response.
type VerifyTokenResponse struct {
	Valid  bool         `json:"valid"`
	Claims *user.Claims `json:"claims,omitempty"`
	Error  string       `json:"error,omitempty"`
}
