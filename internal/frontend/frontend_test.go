package frontend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memoryBucket struct {
	objects map[string]string
	err     error
	keys    []string
}

func (b *memoryBucket) Get(_ context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	b.keys = append(b.keys, key)
	if b.err != nil {
		return nil, ObjectInfo{}, b.err
	}
	content, ok := b.objects[key]
	if !ok {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(content)), ObjectInfo{
		Key:          key,
		Size:         int64(len(content)),
		ETag:         "abc123",
		LastModified: time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func TestObjectStore(t *testing.T) {
	bucket := &memoryBucket{objects: map[string]string{
		"index.html":         "<html>app</html>",
		"static/js/main.js":  "console.log(1)",
		"static/css/app.css": "body{}",
	}}
	origin := NewObjectStore(bucket, discard)

	tests := []struct {
		name        string
		method      string
		path        string
		status      int
		body        string
		contentType string
	}{
		{"root", http.MethodGet, "/", http.StatusOK, "<html>app</html>", "html"},
		{"asset", http.MethodGet, "/static/js/main.js", http.StatusOK, "console.log(1)", "javascript"},
		{"client route", http.MethodGet, "/parks/edit/3", http.StatusOK, "<html>app</html>", "html"},
		{"traversal", http.MethodGet, "/../../etc/passwd", http.StatusOK, "<html>app</html>", "html"},
		{"head", http.MethodHead, "/static/css/app.css", http.StatusOK, "", "css"},
		{"post", http.MethodPost, "/", http.StatusMethodNotAllowed, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			origin.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}
			assert.Equal(t, tt.body, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.Equal(t, `"abc123"`, rec.Header().Get("ETag"))
		})
	}
}

func TestObjectStore_IndexNoCache(t *testing.T) {
	origin := NewObjectStore(&memoryBucket{objects: map[string]string{"index.html": "x"}}, discard)
	rec := httptest.NewRecorder()
	origin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestObjectStore_MissingIndex(t *testing.T) {
	bucket := &memoryBucket{objects: map[string]string{}}
	rec := httptest.NewRecorder()
	NewObjectStore(bucket, discard).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"anything", "index.html"}, bucket.keys)
}

func TestObjectStore_StorageDown(t *testing.T) {
	bucket := &memoryBucket{err: errors.New("dial tcp: connection refused")}
	rec := httptest.NewRecorder()
	NewObjectStore(bucket, discard).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "FRONTEND_UNAVAILABLE")
}

func TestProxy(t *testing.T) {
	var gotAuth, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, "dev server")
	}))
	defer upstream.Close()

	proxy, err := NewProxy(upstream.URL, discard)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/parks", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev server", rec.Body.String())
	assert.Equal(t, "/parks", gotPath)
	assert.Empty(t, gotAuth)
}

func TestProxy_Unreachable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL
	upstream.Close()

	proxy, err := NewProxy(target, discard)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestNewProxy_InvalidURL(t *testing.T) {
	_, err := NewProxy("localhost:3000", discard)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	h, err := New(context.Background(), Config{Mode: ModeNone}, discard)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err = New(context.Background(), Config{Mode: "cdn"}, discard)
	assert.Error(t, err)
}

func TestFallback(t *testing.T) {
	origin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "app")
	})
	apiNotFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Fallback(origin, []string{"/api/", "/healthz"}, apiNotFound)

	for path, want := range map[string]int{
		"/":            http.StatusOK,
		"/parks":       http.StatusOK,
		"/api/unknown": http.StatusNotFound,
		"/healthz/x":   http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}
