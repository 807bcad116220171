package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-hr-session/apierr"
	"github.com/jrsteele09/go-hr-session/authmodel"
	internalerrors "github.com/jrsteele09/go-hr-session/internal/errors"
	"github.com/jrsteele09/go-hr-session/internal/utils"
	"github.com/jrsteele09/go-hr-session/token"
	"github.com/jrsteele09/go-hr-session/users"
	"github.com/pkg/errors"
)

// Doer sends a JSON request to the HR API. Failures are *apierr.Error values.
type Doer interface {
	Do(ctx context.Context, method, path string, in, out any) error
}

// Service wraps the HR API auth endpoints. It holds no state of its own:
// tokens are returned to the caller, never stored here.
type Service struct {
	api Doer
}

func NewService(api Doer) (*Service, error) {
	if api == nil {
		return nil, errors.New("[NewService] api client is required")
	}
	return &Service{api: api}, nil
}

// Login exchanges an email and password for a token pair. A response
// missing either token is a failure.
func (s *Service) Login(ctx context.Context, email, password string) (*token.Pair, error) {
	var resp authmodel.TokenResponse
	err := s.api.Do(ctx, http.MethodPost, authmodel.RouteLogin, authmodel.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}

	pair := token.Pair{
		AccessToken:  utils.Value(resp.AccessToken),
		RefreshToken: utils.Value(resp.RefreshToken),
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, apierr.New(internalerrors.ErrIncompleteTokenSet)
	}
	return &pair, nil
}

// Me resolves the identity behind the current bearer token.
func (s *Service) Me(ctx context.Context) (*users.User, error) {
	var resp authmodel.MeResponse
	if err := s.api.Do(ctx, http.MethodGet, authmodel.RouteMe, nil, &resp); err != nil {
		return nil, err
	}
	return resp.User(), nil
}

func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	return s.post(ctx, authmodel.RouteChangePassword, authmodel.ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
}

func (s *Service) VerifyEmail(ctx context.Context, verificationToken string) (string, error) {
	return s.post(ctx, authmodel.RouteVerifyEmail, authmodel.VerifyEmailRequest{Token: verificationToken})
}

func (s *Service) ResendVerification(ctx context.Context, email string) (string, error) {
	return s.post(ctx, authmodel.RouteResendVerification, authmodel.ResendVerificationRequest{Email: email})
}

// post sends a request whose reply is a plain acknowledgement and returns its message.
func (s *Service) post(ctx context.Context, route string, in any) (string, error) {
	var resp authmodel.MessageResponse
	if err := s.api.Do(ctx, http.MethodPost, route, in, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
