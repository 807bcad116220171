package authmodel

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	// Email identifies the account.
	// Example: "jane.doe@example.com"
	Email string `json:"email"`

	// Password is sent in clear over TLS and never stored client side.
	// Security: Never log or expose this value
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of POST /auth/change-password.
// Requires: Authorization: Bearer <access_token>
type ChangePasswordRequest struct {
	// CurrentPassword re-proves possession of the account.
	CurrentPassword string `json:"current_password"`

	// NewPassword must satisfy the server's strength rules.
	// Example: "Summer2024!" (8+ chars, upper, lower, digit)
	NewPassword string `json:"new_password"`
}

// VerifyEmailRequest is the body of POST /auth/verify-email.
type VerifyEmailRequest struct {
	// Token is the one-time value delivered in the verification email.
	Token string `json:"token"`
}

// ResendVerificationRequest is the body of POST /auth/resend-verification.
type ResendVerificationRequest struct {
	// Email of the unverified account.
	Email string `json:"email"`
}
