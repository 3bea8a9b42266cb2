package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCClient runs the authorization code flow with PKCE against one
// OpenID Connect issuer and verifies the returned ID token.
type OIDCClient struct {
	name     string
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
	authOpts []oauth2.AuthCodeOption
}

// NewOIDCClient discovers issuer and builds a client. rewriteAuthURL, when
// non-nil, maps the discovered authorization endpoint to the URL browsers
// must use.
func NewOIDCClient(
	ctx context.Context,
	name string,
	issuer string,
	config oauth2.Config,
	rewriteAuthURL func(string) string,
	authOpts ...oauth2.AuthCodeOption,
) (*OIDCClient, error) {

	discovered, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s oidc provider: %w", name, err)
	}

	config.Endpoint = discovered.Endpoint()
	if rewriteAuthURL != nil {
		config.Endpoint.AuthURL = rewriteAuthURL(config.Endpoint.AuthURL)
	}
	if len(config.Scopes) == 0 {
		config.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &OIDCClient{
		name:     name,
		config:   &config,
		verifier: discovered.Verifier(&oidc.Config{ClientID: config.ClientID}),
		authOpts: authOpts,
	}, nil
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (c *OIDCClient) AuthCodeURL(state string, codeChallenge string) string {
	opts := append([]oauth2.AuthCodeOption{
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}, c.authOpts...)

	return c.config.AuthCodeURL(state, opts...)
}

// Exchange redeems code and returns the verified ID token.
func (c *OIDCClient) Exchange(ctx context.Context, code string, codeVerifier string) (*oidc.IDToken, error) {
	token, err := c.config.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", c.name, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New(c.name + " did not return id_token")
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s id_token verification failed: %w", c.name, err)
	}

	return idToken, nil
}
