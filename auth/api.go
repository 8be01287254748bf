// Package auth binds the remote API's authentication endpoints.
package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/agent-console/apiclient"
	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/internal/errors"
	"github.com/jrsteele09/agent-console/token/refresh"
	"github.com/jrsteele09/agent-console/users"
)

const (
	RouteRegister = "/auth/register"
	RouteLogin    = "/auth/login"
	RouteRefresh  = "/auth/refresh"
	RouteMe       = "/auth/me"
)

var _ refresh.Renewer = (*Renewer)(nil)

// Renewer exchanges a refresh credential for a new pair. It must be given the
// unauthenticated client so a rejected renewal never triggers another renewal.
type Renewer struct {
	public apiclient.Requester
}

func NewRenewer(public apiclient.Requester) *Renewer {
	return &Renewer{public: public}
}

// Renew calls POST /auth/refresh. The server rotates the refresh credential, so
// the returned pair replaces the old one entirely.
func (r *Renewer) Renew(ctx context.Context, refreshToken string) (credentials.Pair, error) {
	var resp TokenResponse
	if err := apiclient.DoJSON(ctx, r.public, http.MethodPost, RouteRefresh, refreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return credentials.Pair{}, errors.Wrapf(err, "[auth Renew]")
	}
	return checkIssued("Renew", resp)
}

// API holds the login, registration and identity calls.
type API struct {
	public apiclient.Requester
	authed apiclient.Requester
}

// New builds the auth API. public is used for login and registration, authed for
// the identity lookup.
func New(public, authed apiclient.Requester) *API {
	return &API{public: public, authed: authed}
}

// Login exchanges email and password for a credential pair. A rejection by the
// server matches errors.ErrAuthentication.
func (a *API) Login(ctx context.Context, email, password string) (credentials.Pair, error) {
	var resp TokenResponse
	err := apiclient.DoJSON(ctx, a.public, http.MethodPost, RouteLogin, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return credentials.Pair{}, errors.Wrapf(err, "[auth Login]")
	}
	return checkIssued("Login", resp)
}

// Register creates the account. A server rejection matches errors.ErrValidation
// and carries the server's detail.
func (a *API) Register(ctx context.Context, reg users.Registration) (credentials.Pair, error) {
	var resp TokenResponse
	if err := apiclient.DoJSON(ctx, a.public, http.MethodPost, RouteRegister, reg, &resp); err != nil {
		return credentials.Pair{}, errors.Wrapf(err, "[auth Register]")
	}
	return checkIssued("Register", resp)
}

// Me returns the user the stored credential belongs to.
func (a *API) Me(ctx context.Context) (*users.User, error) {
	var user users.User
	if err := apiclient.DoJSON(ctx, a.authed, http.MethodGet, RouteMe, nil, &user); err != nil {
		return nil, errors.Wrapf(err, "[auth Me]")
	}
	return &user, nil
}
