package authmodel

// HR API auth routes, relative to the API base URL
const (
	RouteLogin              = "/auth/login"
	RouteMe                 = "/auth/me"
	RouteChangePassword     = "/auth/change-password"
	RouteVerifyEmail        = "/auth/verify-email"
	RouteResendVerification = "/auth/resend-verification"
)
