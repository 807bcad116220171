package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-session/authmodel"
	"github.com/jrsteele09/go-hr-session/internal/utils"
	"github.com/jrsteele09/go-hr-session/users"
)

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// LoginHandler handles POST /auth/login
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))

		var fieldErrors []authmodel.FieldError
		if req.Email == "" {
			fieldErrors = append(fieldErrors, missingField("email"))
		}
		if req.Password == "" {
			fieldErrors = append(fieldErrors, missingField("password"))
		}
		if len(fieldErrors) > 0 {
			writeFieldErrors(w, fieldErrors)
			return
		}

		account, err := s.users.GetByEmail(req.Email)
		if err != nil || !users.CheckPasswordHash(req.Password, account.PasswordHash) {
			writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		if !account.Verified {
			writeDetail(w, http.StatusForbidden, "Email address has not been verified")
			return
		}

		accessToken, err := s.issuer.CreateAccessToken(account.User())
		if err != nil {
			s.logger.Err(err).Str("user_id", account.ID).Msg("failed to create access token")
			writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		writeJSON(w, http.StatusOK, authmodel.TokenResponse{
			AccessToken:  utils.Ptr(accessToken),
			RefreshToken: utils.Ptr(uuid.New().String()),
			TokenType:    "bearer",
			ExpiresIn:    s.issuer.ExpiresIn(),
		})
	}
}

// MeHandler handles GET /auth/me
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := s.currentAccount(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, authmodel.MeResponse{
			ID:          authmodel.ID(account.ID),
			Email:       account.Email,
			FirstName:   account.FirstName,
			LastName:    account.LastName,
			Roles:       account.Roles,
			Permissions: account.Permissions,
		})
	}
}

// ChangePasswordHandler handles POST /auth/change-password
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := s.currentAccount(w, r)
		if !ok {
			return
		}

		var req authmodel.ChangePasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var fieldErrors []authmodel.FieldError
		if req.CurrentPassword == "" {
			fieldErrors = append(fieldErrors, missingField("current_password"))
		}
		if req.NewPassword == "" {
			fieldErrors = append(fieldErrors, missingField("new_password"))
		} else if err := users.ValidatePasswordStrength(req.NewPassword); err != nil {
			fieldErrors = append(fieldErrors, invalidField("new_password", err.Error()))
		}
		if len(fieldErrors) > 0 {
			writeFieldErrors(w, fieldErrors)
			return
		}

		if !users.CheckPasswordHash(req.CurrentPassword, account.PasswordHash) {
			writeDetail(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}

		hash, err := users.HashPassword(req.NewPassword)
		if err != nil {
			s.logger.Err(err).Msg("failed to hash password")
			writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if err := s.users.SetPasswordHash(account.Email, hash); err != nil {
			s.logger.Err(err).Str("user_id", account.ID).Msg("failed to update password")
			writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		writeJSON(w, http.StatusOK, authmodel.MessageResponse{Message: "Password updated successfully"})
	}
}

// VerifyEmailHandler handles POST /auth/verify-email
func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.VerifyEmailRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Token == "" {
			writeFieldErrors(w, []authmodel.FieldError{missingField("token")})
			return
		}

		account, err := s.users.GetByVerificationToken(req.Token)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid or expired verification token")
			return
		}
		if err := s.users.SetVerified(account.Email, true); err != nil {
			s.logger.Err(err).Str("user_id", account.ID).Msg("failed to verify email")
			writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		writeJSON(w, http.StatusOK, authmodel.MessageResponse{Message: "Email verified successfully"})
	}
}

// ResendVerificationHandler handles POST /auth/resend-verification. The reply
// is the same whether or not the address is known.
func (s *Server) ResendVerificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.ResendVerificationRequest
		if !decodeBody(w, r, &req) {
			return
		}
		email := strings.TrimSpace(strings.ToLower(req.Email))
		if email == "" {
			writeFieldErrors(w, []authmodel.FieldError{missingField("email")})
			return
		}

		if account, err := s.users.GetByEmail(email); err == nil && !account.Verified {
			verificationToken := uuid.New().String()
			if err := s.users.SetVerificationToken(email, verificationToken); err != nil {
				s.logger.Err(err).Str("user_id", account.ID).Msg("failed to store verification token")
				writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			// No mail is sent; the token is only logged.
			s.logger.Info().Str("email", email).Str("token", verificationToken).Msg("verification token issued")
		}

		writeJSON(w, http.StatusOK, authmodel.MessageResponse{
			Message: "If the account exists and is unverified, a verification email has been sent",
		})
	}
}

func (s *Server) currentAccount(w http.ResponseWriter, r *http.Request) (*users.Account, bool) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		unauthorized(w, "Not authenticated")
		return nil, false
	}
	account, err := s.users.GetByID(claims.Subject)
	if err != nil {
		unauthorized(w, "Could not validate credentials")
		return nil, false
	}
	return account, true
}
