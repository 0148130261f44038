package model

import (
	"slices"
	"time"
)

// Rate limit tiers.
const (
	TierFree      = "free"
	TierPro       = "pro"
	TierUnlimited = "unlimited"
)

// ValidTiers contains all tier names.
var ValidTiers = []string{TierFree, TierPro, TierUnlimited}

// RateLimitConfig defines rate limit parameters per tier.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// TierConfigs maps tier names to their rate limit configurations.
var TierConfigs = map[string]RateLimitConfig{
	TierFree:      {RequestsPerMinute: 60, Burst: 10},
	TierPro:       {RequestsPerMinute: 600, Burst: 50},
	TierUnlimited: {RequestsPerMinute: 0, Burst: 0}, // 0 means unlimited
}

// APIKey is a long-lived credential bound to a user. The plaintext key is
// never stored; only its argon2id hash and lookup prefix.
type APIKey struct {
	ID            string     `json:"id"`
	UserID        int64      `json:"userId"`
	KeyHash       string     `json:"-"`
	KeyPrefix     string     `json:"keyPrefix"`
	Roles         []string   `json:"roles"`
	RateLimitTier string     `json:"rateLimitTier"`
	Name          string     `json:"name,omitempty"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
	LastUsedAt    *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// IsRevoked returns true if the key has been revoked.
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// HasRole checks if the key grants role. ROLE_ADMIN implies ROLE_USER.
func (k *APIKey) HasRole(role string) bool {
	if role == RoleUser && slices.Contains(k.Roles, RoleAdmin) {
		return true
	}
	return slices.Contains(k.Roles, role)
}

// Principal builds the request identity for an authenticated key.
func (k *APIKey) Principal(email string) *Principal {
	return &Principal{
		UserID:        k.UserID,
		Email:         email,
		Roles:         NormalizeRoles(k.Roles),
		RateLimitTier: k.RateLimitTier,
		Source:        SourceAPIKey,
		KeyID:         k.ID,
		KeyPrefix:     k.KeyPrefix,
	}
}

// APIKeyCreateRequest is the body of POST /api/apikeys.
type APIKeyCreateRequest struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
}

// APIKeyResponse is an API key without secrets.
type APIKeyResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	KeyPrefix     string     `json:"keyPrefix"`
	Roles         []string   `json:"roles"`
	RateLimitTier string     `json:"rateLimitTier"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastUsedAt    *time.Time `json:"lastUsedAt,omitempty"`
	Revoked       bool       `json:"revoked"`
}

// ToResponse converts an APIKey to APIKeyResponse.
func (k *APIKey) ToResponse() APIKeyResponse {
	return APIKeyResponse{
		ID:            k.ID,
		Name:          k.Name,
		KeyPrefix:     k.KeyPrefix,
		Roles:         k.Roles,
		RateLimitTier: k.RateLimitTier,
		CreatedAt:     k.CreatedAt,
		LastUsedAt:    k.LastUsedAt,
		Revoked:       k.IsRevoked(),
	}
}

// APIKeyCreateResponse includes the plaintext key, shown only once.
type APIKeyCreateResponse struct {
	ID            string    `json:"id"`
	Key           string    `json:"key"`
	Name          string    `json:"name,omitempty"`
	KeyPrefix     string    `json:"keyPrefix"`
	Roles         []string  `json:"roles"`
	RateLimitTier string    `json:"rateLimitTier"`
	CreatedAt     time.Time `json:"createdAt"`
}

// APIKeyRotateResponse includes both old and new key information.
type APIKeyRotateResponse struct {
	OldKeyID        string               `json:"oldKeyId"`
	OldKeyRevokedAt time.Time            `json:"oldKeyRevokedAt"`
	NewKey          APIKeyCreateResponse `json:"newKey"`
}

// GetRateLimitConfig returns the rate limit configuration for this key.
func (k *APIKey) GetRateLimitConfig() RateLimitConfig {
	if config, ok := TierConfigs[k.RateLimitTier]; ok {
		return config
	}
	return TierConfigs[TierFree]
}
