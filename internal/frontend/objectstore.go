package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const indexObject = "index.html"

// ErrObjectNotFound is returned by Bucket.Get for missing keys.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Bucket reads objects of the built app.
type Bucket interface {
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
}

// MinioBucket reads one S3 bucket through minio-go.
type MinioBucket struct {
	client *minio.Client
	bucket string
}

// NewMinioBucket connects to endpoint and checks that bucket exists.
func NewMinioBucket(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioBucket, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check frontend bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("frontend bucket %q does not exist", bucket)
	}
	return &MinioBucket{client: client, bucket: bucket}, nil
}

// Get opens key. Missing keys yield ErrObjectNotFound.
func (b *MinioBucket) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}

	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get %s: %w", key, err)
	}
	return obj, ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// ObjectStore serves the app from a Bucket. Unknown paths get index.html
// so client side routes load the app.
type ObjectStore struct {
	bucket Bucket
	logger *slog.Logger
}

// NewObjectStore creates an ObjectStore origin.
func NewObjectStore(bucket Bucket, logger *slog.Logger) *ObjectStore {
	return &ObjectStore{bucket: bucket, logger: logger}
}

func (s *ObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	key := path.Clean("/" + r.URL.Path)[1:]
	if key == "" {
		key = indexObject
	}

	body, info, err := s.bucket.Get(r.Context(), key)
	if errors.Is(err, ErrObjectNotFound) && key != indexObject {
		key = indexObject
		body, info, err = s.bucket.Get(r.Context(), key)
	}
	switch {
	case errors.Is(err, ErrObjectNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	case err != nil:
		s.logger.Error("frontend_object_failed", slog.String("key", key), slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "FRONTEND_UNAVAILABLE", "frontend storage is not reachable")
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(path.Ext(key)); byExt != "" {
			contentType = byExt
		}
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.FormatInt(info.Size, 10))
	if info.ETag != "" {
		h.Set("ETag", `"`+info.ETag+`"`)
	}
	if !info.LastModified.IsZero() {
		h.Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	if key == indexObject {
		h.Set("Cache-Control", "no-cache")
	}

	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.Copy(w, body)
}
