package auth

import (
	"strings"
	"testing"
)

// fastParams keeps hashing cheap in tests.
var fastParams = HashParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHash_Format(t *testing.T) {
	t.Parallel()

	hash, err := fastParams.Hash("pk_test_abc123_secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("unexpected PHC prefix: %s", hash)
	}
	if parts := strings.Split(hash, "$"); len(parts) != 6 {
		t.Errorf("expected 6 PHC parts, got %d", len(parts))
	}
}

func TestHash_SaltedUniqueness(t *testing.T) {
	t.Parallel()

	a, _ := fastParams.Hash("same")
	b, _ := fastParams.Hash("same")
	if a == b {
		t.Error("hashes of the same secret should differ by salt")
	}
}

func TestVerifySecret(t *testing.T) {
	t.Parallel()

	hash, err := fastParams.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	ok, err := VerifySecret("correct horse", hash)
	if err != nil || !ok {
		t.Errorf("VerifySecret(correct) = %v, %v; want true, nil", ok, err)
	}

	ok, err = VerifySecret("battery staple", hash)
	if err != nil || ok {
		t.Errorf("VerifySecret(wrong) = %v, %v; want false, nil", ok, err)
	}
}

func TestVerifySecret_UsesEncodedParams(t *testing.T) {
	t.Parallel()

	// A hash made with other params still verifies: the params travel with it.
	other := HashParams{Time: 2, Memory: 2048, Threads: 2, KeyLen: 16, SaltLen: 8}
	hash, err := other.Hash("secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if ok, err := VerifySecret("secret", hash); err != nil || !ok {
		t.Errorf("VerifySecret = %v, %v; want true, nil", ok, err)
	}
}

func TestVerifySecret_InvalidHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hash string
		want error
	}{
		{"empty", "", ErrInvalidHash},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuv", ErrInvalidHash},
		{"argon2i", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA", ErrInvalidHash},
		{"bad params", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA", ErrInvalidHash},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA", ErrInvalidHash},
		{"empty hash", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$", ErrInvalidHash},
		{"old version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$aGFzaA", ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, err := VerifySecret("secret", tt.hash)
			if ok || err != tt.want {
				t.Errorf("VerifySecret(%q) = %v, %v; want false, %v", tt.hash, ok, err, tt.want)
			}
		})
	}
}

func TestQuickHash(t *testing.T) {
	t.Parallel()

	a := QuickHash("pk_live_abc123_0123456789abcdef0123456789abcdef")
	if a != QuickHash("pk_live_abc123_0123456789abcdef0123456789abcdef") {
		t.Error("QuickHash should be deterministic")
	}
	if len(a) != 32 {
		t.Errorf("QuickHash length = %d, want 32", len(a))
	}
	if a == QuickHash("pk_live_abc123_0123456789abcdef0123456789abcdee") {
		t.Error("different inputs should hash differently")
	}
}
