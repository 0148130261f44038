package middleware

import (
	"log/slog"
	"net/http"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

// Authorizer decides whether a route is public and whether a principal's
// roles grant it.
type Authorizer interface {
	Public(path, method string) (bool, error)
	Allowed(p *model.Principal, path, method string) (bool, error)
}

// Authorize enforces the route policy. Must run after Authenticate.
// Public routes pass for everyone. Other routes answer 401 to anonymous
// requests without consulting role rules, and 403 to principals whose
// roles do not grant them.
func Authorize(logger *slog.Logger, authz Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())

			public, err := authz.Public(r.URL.Path, r.Method)
			if err != nil {
				authorizationFailed(logger, w, r, err)
				return
			}
			if public {
				next.ServeHTTP(w, r)
				return
			}
			if principal == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			ok, err := authz.Allowed(principal, r.URL.Path, r.Method)
			if err != nil {
				authorizationFailed(logger, w, r, err)
				return
			}
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			logger.Warn("access_denied",
				slog.Int64("user_id", principal.UserID),
				slog.Any("roles", principal.Roles),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Access is denied")
		})
	}
}

func authorizationFailed(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("authorization_failed",
		slog.String("error", err.Error()),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization check failed")
}
