package provider

import (
	"context"
	"errors"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
)

// ErrUnknownProvider is returned by Registry.Get for unregistered names.
var ErrUnknownProvider = errors.New("unknown oauth provider")

// OAuthProvider is an external sign-in provider. Implementations return
// identity facts only; resolving the internal user and issuing the
// browser session happen elsewhere.
type OAuthProvider interface {
	// Name is the path segment used in /oauth/login/:provider.
	Name() string

	// AuthCodeURL returns the authorization URL for state and an S256
	// PKCE challenge.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode redeems the authorization code. The returned identity
	// has no UID yet.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Identity, error)
}
