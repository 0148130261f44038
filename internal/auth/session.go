package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/oklog/ulid/v2"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

const sessionIssuer = "ucsb-api"

// ErrInvalidSession is returned for any token that fails verification.
var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims are the JWT claims of a login session.
type SessionClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.StandardClaims
}

// Session is a verified login session.
type Session struct {
	ID        string
	UserID    int64
	Email     string
	Roles     []string
	ExpiresAt time.Time
}

// Principal returns the request identity carried by the session.
func (s *Session) Principal() *model.Principal {
	return &model.Principal{
		UserID:        s.UserID,
		Email:         s.Email,
		Roles:         s.Roles,
		RateLimitTier: model.TierFree,
		Source:        model.SourceSession,
		SessionID:     s.ID,
	}
}

// Sessions issues and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a token issuer signing with secret.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued sessions.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a session for user holding roles.
func (s *Sessions) Issue(user *model.User, roles []string) (string, *Session, error) {
	now := s.now()
	sess := &Session{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		Email:     user.Email,
		Roles:     roles,
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		Email: sess.Email,
		Roles: sess.Roles,
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    sessionIssuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: sess.ExpiresAt.Unix(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return signed, sess, nil
}

// Verify checks the signature, issuer and expiry of raw.
func (s *Sessions) Verify(raw string) (*Session, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Issuer != sessionIssuer || claims.Id == "" {
		return nil, ErrInvalidSession
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidSession
	}

	return &Session{
		ID:        claims.Id,
		UserID:    userID,
		Email:     claims.Email,
		Roles:     model.NormalizeRoles(claims.Roles),
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}, nil
}
