// Test utilities for the vb commands.
//
// Commands are exercised end to end: setupTestEnv starts an httptest
// server, points VIBER_HOST at it and sets a token, and Execute runs the
// command with os.Stdout captured.
//
//	handler := newRouteHandler().
//	    On("POST", "/pa/send_message", jsonResponse(200, `{"status":0,"status_message":"ok","message_token":1}`))
//	setupTestEnv(t, handler)
//
//	output := captureStdout(t, func() {
//	    if err := Execute(context.Background(), []string{"send", "--to", "u1", "--sender-name", "Bot", "--text", "hi"}); err != nil {
//	        t.Fatalf("send failed: %v", err)
//	    }
//	})
package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/99designs/keyring"

	"github.com/viber/viber-cli/internal/config"
)

const testToken = "test-token-0123456789"

// captureStdout executes fn and returns what it wrote to stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	_ = w.Close()
	os.Stdout = old
	return <-done
}

// captureStderr executes fn and returns what it wrote to stderr.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	_ = w.Close()
	os.Stderr = old
	return <-done
}

// testEnv is a mock API server wired into the environment.
type testEnv struct {
	server *httptest.Server
}

// setupTestEnv starts a server for handler and exports VIBER_HOST,
// VIBER_AUTH_TOKEN and VIBER_ALLOW_PRIVATE for the test.
func setupTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("VIBER_HOST", server.URL)
	t.Setenv("VIBER_AUTH_TOKEN", testToken)
	t.Setenv("VIBER_ALLOW_PRIVATE", "1")
	t.Setenv("VIBER_OUTPUT", "text")

	return &testEnv{server: server}
}

// useFreshKeyring gives the test its own empty keyring.
func useFreshKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
}

func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}
}

// okResponse is a success reply with extra top-level fields.
func okResponse(extra string) http.HandlerFunc {
	body := `{"status":0,"status_message":"ok"`
	if extra != "" {
		body += "," + extra
	}
	return jsonResponse(http.StatusOK, body+"}")
}

// routeHandler routes requests by "METHOD PATH" and records what it saw.
type routeHandler struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

func newRouteHandler() *routeHandler {
	return &routeHandler{routes: make(map[string]http.HandlerFunc)}
}

// On registers a handler for the given method and path.
func (rh *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	rh.routes[method+" "+path] = handler
	return rh
}

func (rh *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	rh.mu.Lock()
	rh.requests = append(rh.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
	handler, ok := rh.routes[r.Method+" "+r.URL.Path]
	rh.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

// Requests returns a copy of the recorded requests.
func (rh *routeHandler) Requests() []recordedRequest {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	return append([]recordedRequest(nil), rh.requests...)
}

// bodyOf decodes a recorded request body.
func bodyOf(t *testing.T, req recordedRequest) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(req.Body, &m); err != nil {
		t.Fatalf("request body is not a JSON object: %v (%q)", err, req.Body)
	}
	return m
}

func TestRouteHandlerRecordsRequests(t *testing.T) {
	handler := newRouteHandler().On("POST", "/pa/get_online", okResponse(""))
	env := setupTestEnv(t, handler)

	resp, err := http.Post(env.server.URL+"/pa/get_online", "application/json", bytes.NewBufferString(`{"ids":["a"]}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(env.server.URL + "/pa/unknown")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown route, got %d", resp.StatusCode)
	}

	reqs := handler.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", len(reqs))
	}
	if got := bodyOf(t, reqs[0])["ids"]; got == nil {
		t.Errorf("expected ids in recorded body")
	}
}

// withStdin replaces os.Stdin for the duration of the test.
func withStdin(t *testing.T, r *os.File) {
	t.Helper()
	old := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = old
		_ = r.Close()
	})
}
