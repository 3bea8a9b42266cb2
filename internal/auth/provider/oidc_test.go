package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newIssuer serves a discovery document and a token endpoint that never
// returns an id_token.
func newIssuer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/realms/nest/auth",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/keys",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"token_type":   "Bearer",
		})
	})

	return srv
}

func TestOIDCClient_AuthCodeURL(t *testing.T) {
	srv := newIssuer(t)

	client, err := NewOIDCClient(
		context.Background(),
		"test",
		srv.URL,
		oauth2.Config{ClientID: "nest", RedirectURL: "http://localhost:8080/oauth/callback/test"},
		func(string) string { return "https://sso.example.com/realms/nest/auth" },
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	require.NoError(t, err)

	u, err := url.Parse(client.AuthCodeURL("st", "challenge"))
	require.NoError(t, err)

	assert.Equal(t, "sso.example.com", u.Host)
	q := u.Query()
	assert.Equal(t, "st", q.Get("state"))
	assert.Equal(t, "challenge", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "select_account", q.Get("prompt"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
}

func TestOIDCClient_ExchangeWithoutIDToken(t *testing.T) {
	srv := newIssuer(t)

	client, err := NewOIDCClient(context.Background(), "test", srv.URL, oauth2.Config{ClientID: "nest"}, nil)
	require.NoError(t, err)

	_, err = client.Exchange(context.Background(), "code", "verifier")
	assert.ErrorContains(t, err, "did not return id_token")
}

func TestNewOIDCClient_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewOIDCClient(context.Background(), "test", srv.URL, oauth2.Config{}, nil)
	assert.ErrorContains(t, err, "failed to init test oidc provider")
}
