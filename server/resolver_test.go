package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nqduc/minihttpd/protocol"
)

// newTestServer builds an unstarted server over temp-dir backed routes.
// resolve needs no listener or pool.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	hello := filepath.Join(dir, "hello.html")
	if err := os.WriteFile(hello, []byte("<html>Hi</html>"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	fallback := filepath.Join(dir, "404.html")
	if err := os.WriteFile(fallback, []byte("Not Found"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg := DefaultConfig()
	cfg.FallbackFile = fallback
	return New(cfg, map[string]string{"/": hello})
}

func request(method, path string) *protocol.Request {
	return &protocol.Request{Method: method, Path: path, Version: "HTTP/1.1"}
}

func TestResolveRouteHit(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.resolve(request("GET", "/"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resp.Status != protocol.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Status)
	}
	if resp.Body != "<html>Hi</html>" {
		t.Errorf("Unexpected body: %q", resp.Body)
	}
}

func TestResolvePostRouteHit(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.resolve(request("POST", "/"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resp.Status != protocol.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Status)
	}
}

func TestResolveRouteMiss(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.resolve(request("POST", "/missing"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resp.Status != protocol.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Status)
	}
	if resp.Body != "Not Found" {
		t.Errorf("Unexpected body: %q", resp.Body)
	}
}

func TestResolveUnsupportedMethods(t *testing.T) {
	s := newTestServer(t)

	for _, method := range []string{"HEAD", "OPTIONS"} {
		resp, err := s.resolve(request(method, "/"))
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if resp.Status != protocol.StatusNotImplemented {
			t.Errorf("%s: expected status 501, got %d", method, resp.Status)
		}
		if !strings.Contains(resp.Body, method) {
			t.Errorf("%s: body should name the method: %q", method, resp.Body)
		}
	}
}

func TestResolveDisallowedMethod(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.resolve(request("DELETE", "/"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resp.Status != protocol.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", resp.Status)
	}
	if !strings.Contains(resp.Body, "DELETE") {
		t.Errorf("Body should name the method: %q", resp.Body)
	}
}

func TestResolveMissingMappedFile(t *testing.T) {
	s := newTestServer(t)
	s.routes["/gone"] = filepath.Join(t.TempDir(), "never-written.html")

	if _, err := s.resolve(request("GET", "/gone")); err == nil {
		t.Error("Expected error for missing mapped file")
	}
}

func TestResolveMissingFallback(t *testing.T) {
	s := newTestServer(t)
	s.config.FallbackFile = filepath.Join(t.TempDir(), "never-written.html")

	if _, err := s.resolve(request("GET", "/missing")); err == nil {
		t.Error("Expected error for missing fallback document")
	}
}
