package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/cadastro" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"csrf_key":"s3cr3t","n":1},"metadata":{"version":1}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	t.Setenv("VAULT_ADDR", addr)
	t.Setenv("VAULT_TOKEN", "")
	c, err := New(context.Background(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestResolveAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	c := newTestClient(t, srv.URL)

	for i := 0; i < 2; i++ {
		got, err := c.Resolve(context.Background(), "vault:secret/cadastro#csrf_key")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got != "s3cr3t" {
			t.Fatalf("got %q", got)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("server hit %d times, want 1 (cached)", n)
	}
}

func TestResolveErrors(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	if got, err := c.Resolve(ctx, "plain"); err != nil || got != "plain" {
		t.Fatalf("plain value: %q %v", got, err)
	}
	for _, ref := range []string{
		"vault:secret/cadastro",         // no key
		"vault:secret/cadastro#missing", // absent key
		"vault:secret/cadastro#n",       // not a string
		"vault:secret/other#csrf_key",   // 404
	} {
		if _, err := c.Resolve(ctx, ref); err == nil {
			t.Errorf("Resolve(%q) succeeded", ref)
		}
	}
}

func TestParseRef(t *testing.T) {
	path, key, err := ParseRef("vault:kv/app/db#password")
	if err != nil || path != "kv/app/db" || key != "password" {
		t.Fatalf("got %q %q %v", path, key, err)
	}
	if m, r := splitMount(path); m != "kv" || r != "app/db" {
		t.Fatalf("splitMount = %q %q", m, r)
	}
}
