package token

import "golang.org/x/oauth2"

// Pair is the bearer credential pair issued by POST /auth/login. Both values are
// opaque to the client; no expiry is tracked.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// OAuth2 adapts the pair for golang.org/x/oauth2 header handling. TokenType is
// left empty so SetAuthHeader always writes "Bearer".
func (p *Pair) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
	}
}
