package engine

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) (*Server, *Session) {
	t.Helper()
	dir := t.TempDir()
	writeSiteFile(t, dir, "index.html", `<h1>home</h1>`)

	s, _ := newTestSession(t, dir)
	if err := NewGenerator(s).Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return NewServer(s, NewReloadHub()), s
}

func get(t *testing.T, srv *Server, path string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	resp, err := srv.App().Test(req, 5000)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestServer_Static(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := get(t, srv, "/index.html")
	if code != 200 || body != "<h1>home</h1>" {
		t.Fatalf("GET /index.html = %d %q", code, body)
	}
	code, body = get(t, srv, "/")
	if code != 200 || body != "<h1>home</h1>" {
		t.Fatalf("GET / = %d %q", code, body)
	}
}

func TestServer_NotFound(t *testing.T) {
	srv, s := newTestServer(t)

	code, _ := get(t, srv, "/missing.html")
	if code != 404 {
		t.Fatalf("status = %d, want 404", code)
	}

	writeSiteFile(t, s.Config().OutputDir, "404.html", "custom not found")
	code, body := get(t, srv, "/missing.html")
	if code != 404 || body != "custom not found" {
		t.Fatalf("GET /missing.html = %d %q", code, body)
	}
}

func TestServer_CacheStats(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := get(t, srv, "/cache-stats")
	if code != 200 {
		t.Fatalf("status = %d", code)
	}
	if !strings.HasPrefix(body, "Cache Statistics:\n") || !strings.Contains(body, "parsed_files: 1") {
		t.Fatalf("body = %q", body)
	}
}

func TestReloadHub(t *testing.T) {
	hub := NewReloadHub()
	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	if n := hub.Subscribers(); n != 2 {
		t.Fatalf("subscribers = %d", n)
	}

	// a second broadcast before anyone reads must not block
	hub.Broadcast()
	hub.Broadcast()
	for _, ch := range []<-chan struct{}{a, b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("no notification received")
		}
	}

	cancelA()
	cancelB()
	if n := hub.Subscribers(); n != 0 {
		t.Fatalf("subscribers after cancel = %d", n)
	}
	hub.Broadcast()
}
