package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"golang.org/x/oauth2"
)

// ErrLoginFailed wraps every failure of the authorization code exchange.
var ErrLoginFailed = errors.New("login failed")

// GoogleConfig configures the OpenID Connect login.
type GoogleConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleLogin runs the authorization code flow with PKCE and nonce.
type GoogleLogin struct {
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
}

// NewGoogleLogin discovers the provider at cfg.IssuerURL.
func NewGoogleLogin(ctx context.Context, cfg GoogleConfig) (*GoogleLogin, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}
	return newGoogleLogin(provider, provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}), cfg), nil
}

func newGoogleLogin(provider *oidc.Provider, verifier *oidc.IDTokenVerifier, cfg GoogleConfig) *GoogleLogin {
	return &GoogleLogin{
		verifier: verifier,
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}
}

// LoginRequest holds the per-attempt secrets the caller must keep
// (in short-lived cookies) until the callback.
type LoginRequest struct {
	State    string
	Verifier string
	Nonce    string
	URL      string
}

// Begin starts a login attempt.
func (g *GoogleLogin) Begin() (*LoginRequest, error) {
	state, err := randomBase64URL(32)
	if err != nil {
		return nil, err
	}
	verifier, err := randomBase64URL(32)
	if err != nil {
		return nil, err
	}
	nonce, err := randomBase64URL(32)
	if err != nil {
		return nil, err
	}

	url := g.oauth2.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", pkceS256Challenge(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
	return &LoginRequest{State: state, Verifier: verifier, Nonce: nonce, URL: url}, nil
}

// GoogleProfile is the subset of ID token claims stored on the user.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
	HostedDomain  string `json:"hd"`
	Nonce         string `json:"nonce"`
}

// User converts the profile into a user record for upsert.
func (p *GoogleProfile) User() *model.User {
	return &model.User{
		Email:         p.Email,
		GoogleSub:     p.Subject,
		PictureURL:    p.Picture,
		FullName:      p.Name,
		GivenName:     p.GivenName,
		FamilyName:    p.FamilyName,
		EmailVerified: p.EmailVerified,
		Locale:        p.Locale,
		HostedDomain:  p.HostedDomain,
	}
}

// Complete exchanges code, verifies the ID token and its nonce, and
// returns the caller's profile.
func (g *GoogleLogin) Complete(ctx context.Context, code, verifier, nonce string) (*GoogleProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	token, err := g.oauth2.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrLoginFailed, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: missing id_token", ErrLoginFailed)
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: verify id_token: %v", ErrLoginFailed, err)
	}

	var profile GoogleProfile
	if err := idToken.Claims(&profile); err != nil {
		return nil, fmt.Errorf("%w: id_token claims: %v", ErrLoginFailed, err)
	}
	if profile.Nonce == "" || profile.Nonce != nonce {
		return nil, fmt.Errorf("%w: nonce mismatch", ErrLoginFailed)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: id_token has no email", ErrLoginFailed)
	}
	return &profile, nil
}

func randomBase64URL(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func pkceS256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
