package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/handler/dto"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/metrics"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/service"
)

// Login routes.
const (
	LoginPath    = "/oauth2/authorization/google"
	CallbackPath = "/login/oauth2/code/google"
	LogoutPath   = "/logout"
)

const (
	stateCookie    = "oauth_state"
	verifierCookie = "oauth_verifier"
	nonceCookie    = "oauth_nonce"
	loginCookieTTL = 10 * time.Minute
)

// LoginFlow is the OpenID Connect exchange with Google.
type LoginFlow interface {
	Begin() (*auth.LoginRequest, error)
	Complete(ctx context.Context, code, verifier, nonce string) (*auth.GoogleProfile, error)
}

// SessionRevoker remembers logged out sessions until they expire.
type SessionRevoker interface {
	RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error
}

// LoginConfig configures LoginHandler.
type LoginConfig struct {
	Flow     LoginFlow
	Accounts *service.Accounts
	Sessions *auth.Sessions
	Revoker  SessionRevoker
	Recorder metrics.Recorder
	Logger   *slog.Logger

	CookieName   string
	CookieSecure bool
	// RedirectTo is where the browser lands after login.
	RedirectTo string
}

// LoginHandler runs the browser login flow and logout.
type LoginHandler struct {
	cfg LoginConfig
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(cfg LoginConfig) *LoginHandler {
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NewNoop()
	}
	if cfg.RedirectTo == "" {
		cfg.RedirectTo = "/"
	}
	return &LoginHandler{cfg: cfg}
}

// Begin handles GET /oauth2/authorization/google.
func (h *LoginHandler) Begin(w http.ResponseWriter, r *http.Request) {
	req, err := h.cfg.Flow.Begin()
	if err != nil {
		h.cfg.Logger.Error("login_begin_failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.setLoginCookie(w, stateCookie, req.State, int(loginCookieTTL.Seconds()))
	h.setLoginCookie(w, verifierCookie, req.Verifier, int(loginCookieTTL.Seconds()))
	h.setLoginCookie(w, nonceCookie, req.Nonce, int(loginCookieTTL.Seconds()))
	http.Redirect(w, r, req.URL, http.StatusFound)
}

// Callback handles GET /login/oauth2/code/google.
func (h *LoginHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state, verifier, nonce := cookieValue(r, stateCookie), cookieValue(r, verifierCookie), cookieValue(r, nonceCookie)

	h.setLoginCookie(w, stateCookie, "", -1)
	h.setLoginCookie(w, verifierCookie, "", -1)
	h.setLoginCookie(w, nonceCookie, "", -1)

	if reason := query.Get("error"); reason != "" {
		h.fail(w, r, "provider_error", reason)
		return
	}
	if state == "" || verifier == "" || nonce == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(query.Get("state"))) != 1 {
		h.fail(w, r, "state_mismatch", "")
		return
	}

	profile, err := h.cfg.Flow.Complete(r.Context(), query.Get("code"), verifier, nonce)
	if err != nil {
		h.fail(w, r, "exchange_failed", err.Error())
		return
	}

	user, err := h.cfg.Accounts.Login(r.Context(), profile.User())
	if err != nil {
		handleServiceError(h.cfg.Logger, w, err)
		return
	}

	token, session, err := h.cfg.Sessions.Issue(user, user.Roles())
	if err != nil {
		h.cfg.Logger.Error("session_issue_failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.cfg.RedirectTo, http.StatusFound)
}

// Logout handles POST /logout. Session tokens are revoked until they
// would have expired; the cookie is cleared either way.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal != nil && principal.Source == model.SourceSession && h.cfg.Revoker != nil {
		expiresAt := time.Now().Add(h.cfg.Sessions.TTL())
		if err := h.cfg.Revoker.RevokeSession(r.Context(), principal.SessionID, expiresAt); err != nil {
			h.cfg.Logger.Error("session_revoke_failed",
				slog.String("session_id", principal.SessionID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
			return
		}
		h.cfg.Logger.Info("user_logged_out", slog.Int64("user_id", principal.UserID))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out"})
}

func (h *LoginHandler) fail(w http.ResponseWriter, r *http.Request, reason, detail string) {
	h.cfg.Recorder.IncLogin(metrics.LoginFailed)
	h.cfg.Logger.Warn("authentication_failed",
		slog.String("reason", reason),
		slog.String("detail", detail),
		slog.String("remote_addr", r.RemoteAddr),
	)
	writeError(w, http.StatusUnauthorized, "LOGIN_FAILED", "Google login failed")
}

func (h *LoginHandler) setLoginCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     CallbackPath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
