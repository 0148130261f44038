package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	gojson "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "ucsb-test-client"

type fakeIssuer struct {
	server  *httptest.Server
	key     *ecdsa.PrivateKey
	idToken func(form url.Values) string
	form    url.Values
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	f := &fakeIssuer{key: key}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		f.form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = gojson.NewEncoder(w).Encode(map[string]any{
			"access_token": "access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     f.idToken(r.PostForm),
		})
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeIssuer) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func (f *fakeIssuer) login(t *testing.T) *GoogleLogin {
	t.Helper()
	provider := (&oidc.ProviderConfig{
		IssuerURL: f.server.URL,
		AuthURL:   f.server.URL + "/auth",
		TokenURL:  f.server.URL + "/token",
	}).NewProvider(context.Background())

	verifier := oidc.NewVerifier(f.server.URL,
		&oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&f.key.PublicKey}},
		&oidc.Config{ClientID: testClientID, SupportedSigningAlgs: []string{oidc.ES256}})

	return newGoogleLogin(provider, verifier, GoogleConfig{
		IssuerURL:    f.server.URL,
		ClientID:     testClientID,
		ClientSecret: "shh",
		RedirectURL:  "http://localhost:8080/login/oauth2/code/google",
	})
}

func (f *fakeIssuer) claims(nonce string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            f.server.URL,
		"aud":            testClientID,
		"sub":            "1234567890",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"nonce":          nonce,
		"email":          "cgaucho@ucsb.edu",
		"email_verified": true,
		"name":           "Chris Gaucho",
		"given_name":     "Chris",
		"family_name":    "Gaucho",
		"hd":             "ucsb.edu",
	}
}

func TestGoogleLogin_Begin(t *testing.T) {
	f := newFakeIssuer(t)
	login := f.login(t)

	req, err := login.Begin()
	require.NoError(t, err)
	assert.NotEqual(t, req.State, req.Nonce)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/auth", u.Path)
	assert.Equal(t, req.State, q.Get("state"))
	assert.Equal(t, req.Nonce, q.Get("nonce"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, pkceS256Challenge(req.Verifier), q.Get("code_challenge"))
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), "openid")
}

func TestGoogleLogin_Complete(t *testing.T) {
	f := newFakeIssuer(t)
	login := f.login(t)
	f.idToken = func(url.Values) string { return f.sign(t, f.claims("n-123")) }

	profile, err := login.Complete(context.Background(), "code-1", "verifier-1", "n-123")
	require.NoError(t, err)
	assert.Equal(t, "code-1", f.form.Get("code"))
	assert.Equal(t, "verifier-1", f.form.Get("code_verifier"))

	user := profile.User()
	assert.Equal(t, "cgaucho@ucsb.edu", user.Email)
	assert.Equal(t, "1234567890", user.GoogleSub)
	assert.Equal(t, "Chris Gaucho", user.FullName)
	assert.Equal(t, "ucsb.edu", user.HostedDomain)
	assert.True(t, user.EmailVerified)
	assert.False(t, user.Admin)
}

func TestGoogleLogin_CompleteRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
	}{
		{"nonce mismatch", func(c jwt.MapClaims) { c["nonce"] = "other" }},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "someone-else" }},
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }},
		{"no email", func(c jwt.MapClaims) { delete(c, "email") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeIssuer(t)
			login := f.login(t)
			f.idToken = func(url.Values) string {
				c := f.claims("n-123")
				tt.mutate(c)
				return f.sign(t, c)
			}

			_, err := login.Complete(context.Background(), "code", "verifier", "n-123")
			assert.ErrorIs(t, err, ErrLoginFailed)
		})
	}
}

func TestGoogleLogin_CompleteForeignKey(t *testing.T) {
	f := newFakeIssuer(t)
	login := f.login(t)
	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	f.idToken = func(url.Values) string {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, f.claims("n")).SignedString(other)
		require.NoError(t, err)
		return signed
	}

	_, err = login.Complete(context.Background(), "code", "verifier", "n")
	assert.ErrorIs(t, err, ErrLoginFailed)
}
