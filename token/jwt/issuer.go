package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-session/internal/utils"
	"github.com/jrsteele09/go-hr-session/users"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims carried by access tokens minted by the stub HR API.
type Claims struct {
	Subject string
	Email   string
	Roles   []string
	Expiry  time.Time
	ID      string
}

// Issuer mints and verifies HS256 access tokens.
type Issuer struct {
	secret []byte
	issuer string
	expiry time.Duration
}

func NewIssuer(secret, issuer string, expiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("[NewIssuer] signing secret is required")
	}
	if expiry <= 0 {
		return nil, errors.New("[NewIssuer] expiry must be positive")
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, expiry: expiry}, nil
}

// ExpiresIn is the access token lifetime in seconds, as reported by the login endpoint.
func (i *Issuer) ExpiresIn() int {
	return int(i.expiry.Seconds())
}

// CreateAccessToken creates an access token for user
func (i *Issuer) CreateAccessToken(user *users.User) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":   i.issuer,
		"sub":   user.ID,
		"email": user.Email,
		"roles": user.RoleNames(),
		"iat":   now.Unix(),
		"exp":   now.Add(i.expiry).Unix(),
		"jti":   uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the token claims.
func (i *Issuer) Verify(rawToken string) (*Claims, error) {
	token, err := jwtlib.Parse(rawToken, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwtlib.WithIssuer(i.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Verify] invalid token")
	}
	if !token.Valid {
		return nil, errors.New("[Issuer.Verify] invalid token")
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("[Issuer.Verify] error extracting claims from token")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	jti, _ := claims["jti"].(string)
	exp, _ := claims["exp"].(float64)

	var roles []string
	if claimRoles, ok := claims["roles"].([]any); ok {
		roles = utils.ToStringSlice(claimRoles)
	}

	return &Claims{
		Subject: sub,
		Email:   email,
		Roles:   roles,
		Expiry:  time.Unix(int64(exp), 0),
		ID:      jti,
	}, nil
}
