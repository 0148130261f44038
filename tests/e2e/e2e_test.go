//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/repository"
)

const adminEmail = "e2e-admin@ucsb.edu"

type majorResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Department    string `json:"department"`
	DegreePursued string `json:"degreePursued"`
}

type apiKeyCreateResponse struct {
	ID    string   `json:"id"`
	Key   string   `json:"key"`
	Roles []string `json:"roles"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("UCSB_BASE_URL", "http://localhost:8080")
	bootstrapKey := bootstrapKey(t, model.TierUnlimited, model.RoleUser, model.RoleAdmin)
	adminKey := createAPIKey(t, baseURL, bootstrapKey, model.RoleAdmin)

	var current struct {
		User  model.User `json:"user"`
		Roles []struct {
			Authority string `json:"authority"`
		} `json:"roles"`
	}
	if status := doJSON(t, http.MethodGet, baseURL+"/api/currentUser", adminKey, nil, &current); status != http.StatusOK {
		t.Fatalf("expected 200 from currentUser, got %d", status)
	}
	if current.User.Email != adminEmail || len(current.Roles) != 2 {
		t.Fatalf("unexpected current user %+v", current)
	}

	name := fmt.Sprintf("E2E Major %d", time.Now().UnixNano())
	var created majorResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/majors", adminKey,
		map[string]any{"name": name, "department": "E2E", "degreePursued": "BS"}, &created)
	if status != http.StatusCreated || created.ID == 0 {
		t.Fatalf("expected 201 with id from major create, got %d %+v", status, created)
	}

	itemURL := fmt.Sprintf("%s/api/majors?id=%d", baseURL, created.ID)

	var fetched majorResponse
	if status := doJSON(t, http.MethodGet, itemURL, adminKey, nil, &fetched); status != http.StatusOK || fetched != created {
		t.Fatalf("get major: status %d, got %+v want %+v", status, fetched, created)
	}

	var listed []majorResponse
	if status := doJSON(t, http.MethodGet, baseURL+"/api/majors/all", adminKey, nil, &listed); status != http.StatusOK {
		t.Fatalf("expected 200 from list, got %d", status)
	}
	if !containsMajor(listed, created.ID) {
		t.Fatalf("created major %d missing from list", created.ID)
	}

	var updated majorResponse
	status = doJSON(t, http.MethodPut, itemURL, adminKey,
		map[string]any{"name": name + " (renamed)", "department": "E2E", "degreePursued": "BA"}, &updated)
	if status != http.StatusOK || updated.DegreePursued != "BA" || updated.ID != created.ID {
		t.Fatalf("update major: status %d, got %+v", status, updated)
	}

	var msg struct {
		Message string `json:"message"`
	}
	if status := doJSON(t, http.MethodDelete, itemURL, adminKey, nil, &msg); status != http.StatusOK {
		t.Fatalf("expected 200 from delete, got %d", status)
	}
	if want := fmt.Sprintf("Major with id %d deleted", created.ID); msg.Message != want {
		t.Fatalf("delete message %q, want %q", msg.Message, want)
	}

	var notFound errorResponse
	if status := doJSON(t, http.MethodGet, itemURL, adminKey, nil, &notFound); status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
	if want := fmt.Sprintf("Major with id %d not found", created.ID); notFound.Error.Message != want {
		t.Fatalf("not found message %q, want %q", notFound.Error.Message, want)
	}
}

func TestE2EAuthorization(t *testing.T) {
	baseURL := envOrDefault("UCSB_BASE_URL", "http://localhost:8080")
	bootstrapKey := bootstrapKey(t, model.TierUnlimited, model.RoleUser, model.RoleAdmin)
	userKey := createAPIKey(t, baseURL, bootstrapKey, model.RoleUser)

	if status := doJSON(t, http.MethodGet, baseURL+"/api/parks/all", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous list, got %d", status)
	}
	if status := doJSON(t, http.MethodGet, baseURL+"/api/parks/all", userKey, nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 for user list, got %d", status)
	}

	var denied errorResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/parks", userKey,
		map[string]any{"name": "Denied", "city": "Goleta", "state": "CA", "acres": 1}, &denied)
	if status != http.StatusForbidden || denied.Error.Code != "FORBIDDEN" {
		t.Fatalf("expected 403 FORBIDDEN for user write, got %d %+v", status, denied)
	}

	if status := doJSON(t, http.MethodGet, baseURL+"/api/admin/users", userKey, nil, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for user on admin route, got %d", status)
	}
}

// TestE2ERateLimiting validates that rate limiting returns 429 with proper headers.
func TestE2ERateLimiting(t *testing.T) {
	baseURL := envOrDefault("UCSB_BASE_URL", "http://localhost:8080")
	// Free tier: 60 RPM, burst 10.
	testKey := bootstrapKey(t, model.TierFree, model.RoleUser)

	client := &http.Client{Timeout: 10 * time.Second}
	var lastResp *http.Response
	for i := 0; i < 20; i++ {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/api/majors/all", nil)
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		req.Header.Set("X-API-Key", testKey)

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			lastResp = resp
			break
		}
		resp.Body.Close()
	}
	if lastResp == nil {
		t.Fatalf("expected 429 rate limit after burst, but never hit rate limit")
	}
	defer lastResp.Body.Close()

	if lastResp.Header.Get("X-RateLimit-Limit") == "" {
		t.Error("missing X-RateLimit-Limit header on 429 response")
	}
	if remaining := lastResp.Header.Get("X-RateLimit-Remaining"); remaining != "0" {
		t.Errorf("expected X-RateLimit-Remaining=0, got %s", remaining)
	}
	if lastResp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header on 429 response")
	}

	var errResp errorResponse
	if err := gojson.NewDecoder(lastResp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode 429 response: %v", err)
	}
	if errResp.Error.Code == "" {
		t.Error("429 response missing error code")
	}
}

// TestE2ENoSecretsInResponses checks that credentials are never echoed back.
func TestE2ENoSecretsInResponses(t *testing.T) {
	baseURL := envOrDefault("UCSB_BASE_URL", "http://localhost:8080")
	key := bootstrapKey(t, model.TierUnlimited, model.RoleUser)

	fake := "pk_live_abcdef_" + strings.Repeat("0", 32)
	for _, credential := range []string{fake, key} {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/api/majors/all", nil)
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+credential)

		resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if strings.Contains(string(body), credential) {
			t.Errorf("response to %d echoed the credential", resp.StatusCode)
		}
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// bootstrapKey writes a key for the e2e admin straight to the database.
func bootstrapKey(t *testing.T, tier string, roles ...string) string {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer repo.Close()

	user, err := repo.UpsertUser(ctx, &model.User{Email: adminEmail, Admin: true})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}

	generated, err := auth.GenerateAPIKey(auth.EnvTest)
	if err != nil {
		t.Fatalf("generate api key: %v", err)
	}
	key := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        user.ID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Roles:         roles,
		RateLimitTier: tier,
		Name:          "e2e-bootstrap",
		CreatedAt:     time.Now().UTC(),
	}
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("create api key: %v", err)
	}
	return generated.Plaintext
}

func createAPIKey(t *testing.T, baseURL, bootstrapKey, role string) string {
	t.Helper()

	var resp apiKeyCreateResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/apikeys", bootstrapKey,
		map[string]any{"name": "e2e-" + strings.ToLower(role), "roles": []string{role}}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from api key create, got %d", status)
	}
	if resp.Key == "" {
		t.Fatalf("api key response missing key")
	}
	return resp.Key
}

func containsMajor(majors []majorResponse, id int64) bool {
	for _, m := range majors {
		if m.ID == id {
			return true
		}
	}
	return false
}

func doJSON(t *testing.T, method, url, apiKey string, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := gojson.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := gojson.NewDecoder(resp.Body).Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}
