package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// API keys look like pk_{env}_{prefix}_{secret}, e.g.
// pk_live_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b.
const (
	KeyPrefixLen = 6  // hex of 3 random bytes, stored for lookup
	KeySecretLen = 32 // hex of 16 random bytes
	keyMarker    = "pk_"
)

// Key environments.
const (
	EnvLive = "live"
	EnvTest = "test"
)

var (
	// ErrInvalidKeyFormat indicates the key format is invalid.
	ErrInvalidKeyFormat = errors.New("invalid API key format")

	keyFormat = regexp.MustCompile(`^pk_(live|test)_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// GeneratedKey is a freshly minted API key.
type GeneratedKey struct {
	Plaintext string // shown to the caller once
	Hash      string // argon2id PHC string for storage
	Prefix    string
}

// GenerateAPIKey mints a key for env. Unknown environments become live.
func GenerateAPIKey(env string) (*GeneratedKey, error) {
	if env != EnvTest {
		env = EnvLive
	}

	prefix, err := randomHex(KeyPrefixLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}
	secret, err := randomHex(KeySecretLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := keyMarker + env + "_" + prefix + "_" + secret
	hash, err := HashSecret(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &GeneratedKey{Plaintext: plaintext, Hash: hash, Prefix: prefix}, nil
}

// ParsedKey contains the parts of an API key.
type ParsedKey struct {
	Env    string
	Prefix string
	Secret string
}

// ParseAPIKey splits a plaintext key into its parts.
func ParseAPIKey(key string) (*ParsedKey, error) {
	m := keyFormat.FindStringSubmatch(key)
	if m == nil {
		return nil, ErrInvalidKeyFormat
	}
	return &ParsedKey{Env: m[1], Prefix: m[2], Secret: m[3]}, nil
}

// LooksLikeAPIKey reports whether a bearer token should be treated as an
// API key rather than a session token.
func LooksLikeAPIKey(token string) bool {
	return strings.HasPrefix(token, keyMarker)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
