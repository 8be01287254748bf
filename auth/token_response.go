package auth

import "github.com/jrsteele09/agent-console/credentials"

// TokenResponse is the body returned by the register, login and refresh endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // always "bearer"
}

// Pair extracts the credential pair.
func (t TokenResponse) Pair() credentials.Pair {
	return credentials.Pair{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
