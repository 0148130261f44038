// Package frontend serves the single page app on every path the API does
// not own. The app comes from a dev server, an S3 bucket, or nowhere.
package frontend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gojson "github.com/goccy/go-json"
)

// Modes.
const (
	ModeNone        = "none"
	ModeProxy       = "proxy"
	ModeObjectStore = "objectstore"
)

// Config selects and configures the frontend origin.
type Config struct {
	Mode     string
	ProxyURL string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

// New builds the origin for cfg.Mode.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (http.Handler, error) {
	switch cfg.Mode {
	case ModeNone, "":
		return None(), nil
	case ModeProxy:
		return NewProxy(cfg.ProxyURL, logger)
	case ModeObjectStore:
		bucket, err := NewMinioBucket(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
		if err != nil {
			return nil, err
		}
		return NewObjectStore(bucket, logger), nil
	default:
		return nil, fmt.Errorf("unknown frontend mode %q", cfg.Mode)
	}
}

// None answers every request with a JSON 404.
func None() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	})
}

// Fallback routes paths under a reserved prefix to notFound and
// everything else to origin. It is meant for the router's NotFound hook.
func Fallback(origin http.Handler, reserved []string, notFound http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range reserved {
			if strings.HasPrefix(r.URL.Path, prefix) {
				notFound.ServeHTTP(w, r)
				return
			}
		}
		origin.ServeHTTP(w, r)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	body.Error.Code = code
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(body)
}
