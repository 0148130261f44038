package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessions_IssueVerify(t *testing.T) {
	t.Parallel()
	sessions := NewSessions(testSecret, time.Hour)
	user := &model.User{Base: model.Base{ID: 7}, Email: "cgaucho@ucsb.edu", Admin: true}

	token, issued, err := sessions.Issue(user, user.Roles())
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	got, err := sessions.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, got.ID)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "cgaucho@ucsb.edu", got.Email)
	assert.Equal(t, []string{model.RoleUser, model.RoleAdmin}, got.Roles)
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, 5*time.Second)

	p := got.Principal()
	assert.Equal(t, model.SourceSession, p.Source)
	assert.Equal(t, issued.ID, p.SessionID)
	assert.True(t, p.IsAdmin())
}

func TestSessions_Expired(t *testing.T) {
	t.Parallel()
	sessions := NewSessions(testSecret, time.Minute)
	sessions.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := sessions.Issue(&model.User{Base: model.Base{ID: 1}, Email: "a@ucsb.edu"}, []string{model.RoleUser})
	require.NoError(t, err)

	_, err = sessions.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessions_WrongSecret(t *testing.T) {
	t.Parallel()
	token, _, err := NewSessions(testSecret, time.Hour).Issue(&model.User{Base: model.Base{ID: 1}}, nil)
	require.NoError(t, err)

	_, err = NewSessions(strings.Repeat("x", 32), time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessions_RejectsForeignTokens(t *testing.T) {
	t.Parallel()
	sessions := NewSessions(testSecret, time.Hour)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "iss": sessionIssuer, "jti": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	otherIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "iss": "someone-else", "jti": "x", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"alg none":     noneToken,
		"other issuer": otherIssuer,
		"garbage":      "not.a.jwt",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := sessions.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}
