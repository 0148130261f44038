package model

import "slices"

// Role constants used for authorization.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// ValidRoles contains all grantable roles.
var ValidRoles = []string{RoleUser, RoleAdmin}

// Principal sources.
const (
	SourceAPIKey  = "api_key"
	SourceSession = "session"
)

// Principal is the authenticated identity of a request.
// It is injected into the request context by the auth middleware.
type Principal struct {
	UserID        int64
	Email         string
	Roles         []string
	RateLimitTier string
	Source        string
	KeyID         string
	KeyPrefix     string
	SessionID     string
}

// HasRole reports whether the principal holds role.
// ROLE_ADMIN implies ROLE_USER.
func (p *Principal) HasRole(role string) bool {
	if role == RoleUser && slices.Contains(p.Roles, RoleAdmin) {
		return true
	}
	return slices.Contains(p.Roles, role)
}

// IsAdmin reports whether the principal holds ROLE_ADMIN.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// RateLimitKey identifies the principal for rate limiting.
func (p *Principal) RateLimitKey() string {
	if p.KeyID != "" {
		return "key:" + p.KeyID
	}
	if p.SessionID != "" {
		return "session:" + p.SessionID
	}
	return "user:" + p.Email
}

// GetRateLimitConfig returns the tier configuration, defaulting to free.
func (p *Principal) GetRateLimitConfig() RateLimitConfig {
	if config, ok := TierConfigs[p.RateLimitTier]; ok {
		return config
	}
	return TierConfigs[TierFree]
}

// NormalizeRoles drops unknown roles and duplicates, and adds ROLE_USER
// when ROLE_ADMIN is present.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles)+1)
	for _, r := range roles {
		if slices.Contains(ValidRoles, r) && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	if slices.Contains(out, RoleAdmin) && !slices.Contains(out, RoleUser) {
		out = append([]string{RoleUser}, out...)
	}
	return out
}
