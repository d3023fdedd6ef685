package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/feedr/feedr/internal/serverdb"
)

// newTestServer spins up a Server over a temp database behind httptest.
func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	store, err := serverdb.Open(filepath.Join(t.TempDir(), "feedr.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := LoadConfig()
	cfg.RateLimitAuth = 1000
	cfg.RateLimitMutate = 1000
	cfg.RateLimitRead = 1000

	srv, err := NewServer(cfg, store)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv.keepaliveEvery = 50 * time.Millisecond

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

// doJSON issues a request and decodes the response body into out (if non-nil).
func doJSON(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

// signupUser registers an account and returns its token and user id.
func signupUser(t *testing.T, baseURL, email string) (token, userID string) {
	t.Helper()

	var resp struct {
		Token    string `json:"token"`
		Identity struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"identity"`
	}
	status := doJSON(t, "POST", baseURL+"/v1/auth/signup", "",
		map[string]string{"email": email, "password": "hunter2hunter2"}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("signup: status %d", status)
	}
	if resp.Token == "" || resp.Identity.ID == "" {
		t.Fatal("signup returned empty token or identity")
	}
	return resp.Token, resp.Identity.ID
}
