package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

// minAuthDuration is the minimum time spent verifying an API key so that
// unknown and wrong keys cannot be told apart by latency.
const minAuthDuration = 200 * time.Millisecond

// KeyStore is the persistence the auth middleware needs.
type KeyStore interface {
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// PrincipalCache caches verified API keys and tracks logged out sessions.
type PrincipalCache interface {
	GetPrincipal(ctx context.Context, cacheKey string) (*model.Principal, error)
	SetPrincipal(ctx context.Context, cacheKey string, p *model.Principal) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Keys       KeyStore
	Cache      PrincipalCache
	Sessions   *auth.Sessions
	CookieName string
}

// Authenticate resolves the request principal from an API key, a bearer
// session token or the session cookie, in that order. Requests without
// credentials continue anonymously; Authorize decides whether that is
// acceptable. Invalid headers are rejected with 401. An invalid cookie is
// ignored so that a stale session does not block the frontend.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := extractCredential(r, cfg.CookieName)

			var (
				principal *model.Principal
				reason    string
			)
			switch {
			case cred.apiKey != "":
				principal, reason = cfg.authenticateAPIKey(r, cred.apiKey)
			case cred.session != "":
				principal, reason = cfg.authenticateSession(r, cred.session)
			default:
				next.ServeHTTP(w, r)
				return
			}

			if principal == nil && cred.fromCookie {
				cfg.Logger.Info("session_cookie_ignored",
					slog.String("reason", reason),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}
			if principal == nil {
				cfg.Logger.Warn("authentication_failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired credentials")
				return
			}

			annotatePrincipal(r.Context(), principal)
			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (cfg AuthConfig) authenticateAPIKey(r *http.Request, key string) (*model.Principal, string) {
	start := time.Now()
	defer func() {
		if elapsed := time.Since(start); elapsed < minAuthDuration {
			time.Sleep(minAuthDuration - elapsed)
		}
	}()

	parsed, err := auth.ParseAPIKey(key)
	if err != nil {
		return nil, "invalid_format"
	}

	cacheKey := auth.QuickHash(key)
	if cached, _ := cfg.Cache.GetPrincipal(r.Context(), cacheKey); cached != nil {
		cfg.logSuccess(r, cached, true)
		return cached, ""
	}

	candidates, err := cfg.Keys.GetAPIKeysByPrefix(r.Context(), parsed.Prefix)
	if err != nil {
		cfg.Logger.Error("auth_lookup_failed",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return nil, "lookup_error"
	}

	// Prefixes can collide; verify every candidate.
	var matched *model.APIKey
	for _, k := range candidates {
		if ok, err := auth.VerifySecret(key, k.KeyHash); err == nil && ok {
			matched = k
			break
		}
	}
	if matched == nil || matched.IsRevoked() {
		return nil, "invalid_key"
	}

	owner, err := cfg.Keys.GetUserByID(r.Context(), matched.UserID)
	if err != nil {
		return nil, "unknown_owner"
	}

	principal := matched.Principal(owner.Email)
	// A key never grants more than its owner currently holds.
	ownerRoles := owner.Roles()
	principal.Roles = slices.DeleteFunc(principal.Roles, func(role string) bool {
		return !slices.Contains(ownerRoles, role)
	})
	if len(principal.Roles) == 0 {
		return nil, "no_roles"
	}

	_ = cfg.Cache.SetPrincipal(r.Context(), cacheKey, principal)

	go func(id string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = cfg.Keys.UpdateAPIKeyLastUsed(ctx, id)
	}(matched.ID)

	cfg.logSuccess(r, principal, false)
	return principal, ""
}

func (cfg AuthConfig) authenticateSession(r *http.Request, token string) (*model.Principal, string) {
	if cfg.Sessions == nil {
		return nil, "sessions_disabled"
	}
	session, err := cfg.Sessions.Verify(token)
	if err != nil {
		return nil, "invalid_session"
	}
	revoked, err := cfg.Cache.IsSessionRevoked(r.Context(), session.ID)
	if err != nil {
		cfg.Logger.Error("session_revocation_check_failed",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return nil, "lookup_error"
	}
	if revoked {
		return nil, "session_revoked"
	}
	return session.Principal(), ""
}

func (cfg AuthConfig) logSuccess(r *http.Request, p *model.Principal, cacheHit bool) {
	cfg.Logger.Info("authentication_succeeded",
		slog.String("key_id", p.KeyID),
		slog.String("key_prefix", p.KeyPrefix),
		slog.Int64("user_id", p.UserID),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Bool("cache_hit", cacheHit),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

type credential struct {
	apiKey     string
	session    string
	fromCookie bool
}

// extractCredential reads "Authorization: Bearer <token>", "X-API-Key" and
// the session cookie. Bearer tokens shaped like API keys are API keys;
// anything else is treated as a session token.
func extractCredential(r *http.Request, cookieName string) credential {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if auth.LooksLikeAPIKey(token) {
			return credential{apiKey: token}
		}
		if token != "" {
			return credential{session: token}
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return credential{apiKey: key}
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return credential{session: c.Value, fromCookie: true}
		}
	}
	return credential{}
}
